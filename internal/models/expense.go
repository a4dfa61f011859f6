package models

// Expense represents a shared expense recorded against a group.
// Expenses are immutable once created.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"group"`

	// Description is the human-readable label (e.g., "Dinner", "Cab").
	Description string `json:"description"`

	// Amount is the full amount paid, in a currency-agnostic unit.
	Amount float64 `json:"amount"`

	// PaidBy is the user ID of the payer. The payer is always part of
	// SplitAmong.
	PaidBy string `json:"paidBy"`

	// SplitAmong is the ordered list of user IDs sharing the cost. It is
	// never empty; the payer is appended if the caller omitted them.
	SplitAmong []string `json:"splitAmong"`

	// IndividualShare is Amount / len(SplitAmong) rounded to two decimal
	// places, half away from zero. The shares may not sum exactly to
	// Amount; the residual cent is accepted rounding drift.
	IndividualShare float64 `json:"individualShare"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"createdAt"`
}
