package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/splitshare/internal/calculator"
	"github.com/mmynk/splitshare/internal/models"
	"github.com/mmynk/splitshare/internal/storage"
)

// ExpenseService records expenses against groups.
type ExpenseService struct {
	store     storage.Store
	publisher Publisher
}

// NewExpenseService creates a new ExpenseService with the given storage
// backend and realtime publisher.
func NewExpenseService(store storage.Store, publisher Publisher) *ExpenseService {
	return &ExpenseService{store: store, publisher: publisher}
}

// RecordExpense creates an immutable expense against a group. The caller is
// the payer and is unconditionally included in the effective split set. The
// per-head share is amount / |final split| rounded to two decimals; the sum
// of shares may miss the amount by a residual cent, which is accepted drift
// and never redistributed.
//
// On success an expenseAdded event carrying the full record is broadcast to
// the group's channel.
func (s *ExpenseService) RecordExpense(ctx context.Context, callerID, groupID, description string, amount float64, splitAmong []string) (*models.Expense, error) {
	if strings.TrimSpace(description) == "" {
		return nil, validationErr("description", "must not be empty")
	}
	if amount <= 0 {
		return nil, validationErr("amount", "must be positive")
	}
	if len(splitAmong) == 0 {
		return nil, validationErr("splitAmong", "must be a non-empty list of member IDs")
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
		}
		slog.Error("RecordExpense failed to load group", "group_id", groupID, "error", err)
		return nil, err
	}
	if !group.HasMember(callerID) {
		return nil, fmt.Errorf("user %s is not a member of group %s: %w", callerID, groupID, ErrForbidden)
	}

	finalSplit := make([]string, 0, len(splitAmong)+1)
	seen := make(map[string]bool, len(splitAmong)+1)
	for _, id := range splitAmong {
		if seen[id] {
			continue
		}
		if !group.HasMember(id) {
			return nil, validationErr("splitAmong", fmt.Sprintf("user %s is not a group member", id))
		}
		seen[id] = true
		finalSplit = append(finalSplit, id)
	}
	// The payer always shares the expense, even when the caller omits them.
	if !seen[callerID] {
		finalSplit = append(finalSplit, callerID)
	}

	expense := &models.Expense{
		GroupID:         groupID,
		Description:     description,
		Amount:          amount,
		PaidBy:          callerID,
		SplitAmong:      finalSplit,
		IndividualShare: calculator.Share(amount, len(finalSplit)),
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("RecordExpense failed", "group_id", groupID, "error", err)
		return nil, err
	}

	s.publisher.PublishToGroup(groupID, EventExpenseAdded, NewExpenseAddedEvent(expense))

	slog.Info("Expense recorded",
		"expense_id", expense.ID,
		"group_id", groupID,
		"paid_by", callerID,
		"amount", amount,
		"split_count", len(finalSplit),
	)
	return expense, nil
}
