package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/splitshare/internal/middleware"
	"github.com/mmynk/splitshare/internal/service"
)

type expenseHandlers struct {
	expenses *service.ExpenseService
}

type recordExpenseRequest struct {
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	SplitAmong  []string `json:"splitAmong"`
}

func (h *expenseHandlers) record(w http.ResponseWriter, r *http.Request) {
	var req recordExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	expense, err := h.expenses.RecordExpense(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "groupId"),
		req.Description,
		req.Amount,
		req.SplitAmong,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, expense)
}
