// Package models defines the core domain models for Splitshare.
//
// # Models
//
//   - User: a registered account, identified by a unique email
//   - Group: a named set of members sharing expenses and a chat log
//   - Invite: a pending email invitation to a group, for people who have
//     not registered yet
//   - Message: one entry in a group's chat log
//   - Expense: an immutable record of an amount paid by one member and
//     split among a subset of members
//
// # Design Principles
//
//  1. **ID strings, not pointers**: relationships are expressed as ID
//     strings to avoid circular references; resolution happens at the
//     storage/service boundary.
//  2. **Balances are derived**: there is no Balance model in storage.
//     Balances are recomputed from the full expense history on every read
//     (see internal/calculator).
//  3. **Expenses are immutable**: there is no update or delete operation
//     for an expense once recorded.
package models
