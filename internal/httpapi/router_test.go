package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/splitshare/internal/auth"
	"github.com/mmynk/splitshare/internal/realtime"
	"github.com/mmynk/splitshare/internal/service"
	"github.com/mmynk/splitshare/internal/storage/sqlite"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitshare-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret-key-for-api-tests", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)
	hub := realtime.NewHub(store)

	router := NewRouter(Config{
		Auth:        service.NewAuthService(store, authenticator, jwtManager),
		Groups:      service.NewGroupService(store, hub),
		Expenses:    service.NewExpenseService(store, hub),
		Hub:         hub,
		JWTManager:  jwtManager,
		CORSOrigins: []string{"*"},
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// doJSON issues a JSON request and decodes the response into out (if non-nil).
func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

type sessionBody struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

func registerUser(t *testing.T, server *httptest.Server, name, email string) sessionBody {
	t.Helper()
	var session sessionBody
	status := doJSON(t, server, http.MethodPost, "/api/auth/register", "",
		map[string]string{"name": name, "email": email, "password": "s3cret-pass"}, &session)
	if status != http.StatusCreated {
		t.Fatalf("register %s: status = %d, want 201", email, status)
	}
	return session
}

func TestAuthFlow(t *testing.T) {
	server := setupTestServer(t)

	session := registerUser(t, server, "Alice", "alice@example.com")
	if session.Token == "" {
		t.Fatal("expected a token on registration")
	}

	var login sessionBody
	status := doJSON(t, server, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "alice@example.com", "password": "s3cret-pass"}, &login)
	if status != http.StatusOK {
		t.Fatalf("login status = %d, want 200", status)
	}

	status = doJSON(t, server, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "alice@example.com", "password": "wrong"}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", status)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server := setupTestServer(t)

	if status := doJSON(t, server, http.MethodGet, "/api/groups", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", status)
	}
	if status := doJSON(t, server, http.MethodGet, "/api/groups", "garbage-token", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", status)
	}
}

func TestGroupAndExpenseFlow(t *testing.T) {
	server := setupTestServer(t)

	alice := registerUser(t, server, "Alice", "alice@example.com")
	bob := registerUser(t, server, "Bob", "bob@example.com")
	carol := registerUser(t, server, "Carol", "carol@example.com")

	// Alice creates a group and adds Bob and Carol by email.
	var group struct {
		ID string `json:"id"`
	}
	status := doJSON(t, server, http.MethodPost, "/api/groups", alice.Token,
		map[string]any{"name": "Dinner Club"}, &group)
	if status != http.StatusCreated {
		t.Fatalf("create group status = %d, want 201", status)
	}

	for _, email := range []string{"bob@example.com", "carol@example.com"} {
		status = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/members", group.ID), alice.Token,
			map[string]string{"email": email}, nil)
		if status != http.StatusOK {
			t.Fatalf("add member %s: status = %d, want 200", email, status)
		}
	}

	// Alice records a 30-unit expense split three ways.
	var expense struct {
		IndividualShare float64 `json:"individualShare"`
	}
	status = doJSON(t, server, http.MethodPost, "/api/expenses/"+group.ID, alice.Token,
		map[string]any{
			"description": "Dinner",
			"amount":      30,
			"splitAmong":  []string{alice.User.ID, bob.User.ID, carol.User.ID},
		}, &expense)
	if status != http.StatusCreated {
		t.Fatalf("record expense status = %d, want 201", status)
	}
	if math.Abs(expense.IndividualShare-10.0) > 0.001 {
		t.Errorf("individual share = %v, want 10.00", expense.IndividualShare)
	}

	// Group detail carries recomputed balances.
	var detail struct {
		Balances map[string]float64 `json:"balances"`
	}
	status = doJSON(t, server, http.MethodGet, "/api/groups/"+group.ID, bob.Token, nil, &detail)
	if status != http.StatusOK {
		t.Fatalf("group detail status = %d, want 200", status)
	}
	if math.Abs(detail.Balances[bob.User.ID]-10.0) > 0.001 {
		t.Errorf("bob balance = %v, want 10.0", detail.Balances[bob.User.ID])
	}
	if math.Abs(detail.Balances[alice.User.ID]+20.0) > 0.001 {
		t.Errorf("alice balance = %v, want -20.0", detail.Balances[alice.User.ID])
	}

	// Expense validation surfaces field detail.
	var badReq struct {
		Field string `json:"field"`
	}
	status = doJSON(t, server, http.MethodPost, "/api/expenses/"+group.ID, alice.Token,
		map[string]any{"description": "Taxi", "amount": 10, "splitAmong": []string{}}, &badReq)
	if status != http.StatusBadRequest {
		t.Fatalf("empty split status = %d, want 400", status)
	}
	if badReq.Field != "splitAmong" {
		t.Errorf("error field = %s, want splitAmong", badReq.Field)
	}

	// Only the creator may delete the group.
	status = doJSON(t, server, http.MethodDelete, "/api/groups/"+group.ID, bob.Token, nil, nil)
	if status != http.StatusForbidden {
		t.Errorf("non-creator delete status = %d, want 403", status)
	}
	status = doJSON(t, server, http.MethodDelete, "/api/groups/"+group.ID, alice.Token, nil, nil)
	if status != http.StatusOK {
		t.Errorf("creator delete status = %d, want 200", status)
	}
	status = doJSON(t, server, http.MethodGet, "/api/groups/"+group.ID, alice.Token, nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("deleted group detail status = %d, want 404", status)
	}
}

func TestMessageEndpoints(t *testing.T) {
	server := setupTestServer(t)

	alice := registerUser(t, server, "Alice", "alice@example.com")

	var group struct {
		ID string `json:"id"`
	}
	if status := doJSON(t, server, http.MethodPost, "/api/groups", alice.Token,
		map[string]any{"name": "Chatty"}, &group); status != http.StatusCreated {
		t.Fatalf("create group status = %d, want 201", status)
	}

	status := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/messages", group.ID), alice.Token,
		map[string]string{"content": "hello"}, nil)
	if status != http.StatusCreated {
		t.Fatalf("post message status = %d, want 201", status)
	}

	var messages []struct {
		Content string `json:"content"`
		Sender  struct {
			Name string `json:"name"`
		} `json:"sender"`
	}
	status = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/groups/%s/messages", group.ID), alice.Token, nil, &messages)
	if status != http.StatusOK {
		t.Fatalf("list messages status = %d, want 200", status)
	}
	if len(messages) != 1 || messages[0].Content != "hello" {
		t.Fatalf("unexpected messages: %+v", messages)
	}
	if messages[0].Sender.Name != "Alice" {
		t.Errorf("sender = %s, want Alice", messages[0].Sender.Name)
	}

	// Blank content is rejected.
	status = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/messages", group.ID), alice.Token,
		map[string]string{"content": "  "}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("blank message status = %d, want 400", status)
	}
}

func TestInviteEndpoints(t *testing.T) {
	server := setupTestServer(t)

	alice := registerUser(t, server, "Alice", "alice@example.com")

	var group struct {
		ID string `json:"id"`
	}
	if status := doJSON(t, server, http.MethodPost, "/api/groups", alice.Token,
		map[string]any{"name": "Flat"}, &group); status != http.StatusCreated {
		t.Fatalf("create group status = %d, want 201", status)
	}

	// Unregistered email becomes a pending invite.
	status := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/members", group.ID), alice.Token,
		map[string]string{"email": "carol@example.com", "name": "Carol"}, nil)
	if status != http.StatusOK {
		t.Fatalf("invite status = %d, want 200", status)
	}

	// Inviting again is rejected.
	status = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/members", group.ID), alice.Token,
		map[string]string{"email": "carol@example.com"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("duplicate invite status = %d, want 400", status)
	}

	// Cancel removes it; the next invite succeeds again.
	status = doJSON(t, server, http.MethodDelete,
		fmt.Sprintf("/api/groups/%s/invites/carol%%40example.com", group.ID), alice.Token, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("cancel invite status = %d, want 200", status)
	}
	status = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/members", group.ID), alice.Token,
		map[string]string{"email": "carol@example.com"}, nil)
	if status != http.StatusOK {
		t.Errorf("re-invite status = %d, want 200", status)
	}
}
