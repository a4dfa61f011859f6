// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitshare/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for persistence operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user. Fails if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email address.
	// Returns nil, nil if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	// Returns nil, nil if no such user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs retrieves multiple users keyed by ID. IDs with no
	// matching user are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// CreateGroup persists a new group with its initial members and
	// populates the group's ID and CreatedAt.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members and pending invites.
	// Returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByMember retrieves all groups the user is a member of.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// DeleteGroup removes a group and its embedded membership, invites and
	// messages. Expense records are left in place. Returns ErrNotFound if
	// the group does not exist.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddGroupMember adds a user to a group's member set.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// RemoveGroupMember removes a user from a group's member set.
	// No-op if the user is not a member.
	RemoveGroupMember(ctx context.Context, groupID, userID string) error

	// AddInvite records a pending email invite on a group.
	AddInvite(ctx context.Context, groupID string, invite models.Invite) error

	// RemoveInvite deletes a pending invite by email. No-op if absent.
	RemoveInvite(ctx context.Context, groupID, email string) error

	// ListInvitesByEmail finds the group IDs holding a pending invite for
	// the email.
	ListInvitesByEmail(ctx context.Context, email string) ([]string, error)

	// AppendMessage appends a message to a group's chat log and populates
	// its ID and CreatedAt.
	AppendMessage(ctx context.Context, msg *models.Message) error

	// ListMessages retrieves a group's chat log in posting order.
	ListMessages(ctx context.Context, groupID string) ([]*models.Message, error)

	// CreateExpense persists a new expense and populates its ID and
	// CreatedAt. The expense is appended to the group's expense list.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpensesByGroup retrieves a group's expenses in creation order.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// Close releases any resources held by the store.
	Close() error
}
