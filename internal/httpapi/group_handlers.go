package httpapi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/splitshare/internal/middleware"
	"github.com/mmynk/splitshare/internal/service"
)

type groupHandlers struct {
	groups *service.GroupService
}

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type addMemberRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type postMessageRequest struct {
	Content string `json:"content"`
}

type statusResponse struct {
	Message string `json:"message"`
}

func (h *groupHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.groups.CreateGroup(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.Members)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *groupHandlers) list(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListGroups(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *groupHandlers) detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.groups.GetGroup(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *groupHandlers) delete(w http.ResponseWriter, r *http.Request) {
	err := h.groups.DeleteGroup(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Message: "group deleted"})
}

func (h *groupHandlers) addMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	added, err := h.groups.AddMember(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.Email, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	if added {
		writeJSON(w, http.StatusOK, statusResponse{Message: "member added"})
	} else {
		writeJSON(w, http.StatusOK, statusResponse{Message: "invitation sent"})
	}
}

func (h *groupHandlers) removeMember(w http.ResponseWriter, r *http.Request) {
	email := pathEmail(r)
	err := h.groups.RemoveMember(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Message: "member removed"})
}

func (h *groupHandlers) cancelInvite(w http.ResponseWriter, r *http.Request) {
	email := pathEmail(r)
	err := h.groups.CancelInvite(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Message: "invite cancelled"})
}

func (h *groupHandlers) leave(w http.ResponseWriter, r *http.Request) {
	err := h.groups.Leave(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Message: "left group"})
}

func (h *groupHandlers) postMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.groups.PostMessage(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *groupHandlers) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.groups.ListMessages(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if messages == nil {
		messages = []service.MessageView{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// pathEmail extracts and decodes the {email} path segment; emails arrive
// percent-encoded from browser clients.
func pathEmail(r *http.Request) string {
	raw := chi.URLParam(r, "email")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
