// Package calculator computes per-member balances from a group's expense
// history. All functions are pure: they take fully-resolved inputs and have
// no side effects, so concurrent use is safe.
package calculator

import "math"

// ExpenseForBalance carries the minimal expense information needed for
// balance computation.
type ExpenseForBalance struct {
	Amount     float64
	PaidBy     string
	SplitAmong []string
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Share computes one participant's share of an amount split n ways,
// rounded to two decimal places. The shares may not sum exactly to the
// amount; the residual cent is accepted rounding drift and is not
// redistributed.
func Share(amount float64, n int) float64 {
	return Round2(amount / float64(n))
}

// ComputeBalances derives the net balance of every member from the full
// expense history of a group.
//
// Sign convention: positive means the member owes money, negative means
// the member is owed money. The sum over all entries is zero up to
// cumulative rounding drift.
//
// Algorithm: every member starts at zero. For each expense, the per-head
// amount is recomputed live from the split set. Each participant other
// than the payer accrues +perHead, and the payer accrues -perHead for
// each such participant. The payer is never charged their own share.
//
// An ID appearing in an expense but not in members (possible if
// membership changed after the expense was recorded) still gets a balance
// entry; the function unions all IDs it sees.
func ComputeBalances(members []string, expenses []ExpenseForBalance) map[string]float64 {
	balances := make(map[string]float64, len(members))
	for _, m := range members {
		balances[m] = 0
	}

	for _, e := range expenses {
		if len(e.SplitAmong) == 0 {
			continue
		}
		perHead := e.Amount / float64(len(e.SplitAmong))
		for _, p := range e.SplitAmong {
			if p == e.PaidBy {
				continue
			}
			balances[p] += perHead
			balances[e.PaidBy] -= perHead
		}
	}

	return balances
}
