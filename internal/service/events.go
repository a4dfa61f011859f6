package service

import (
	"time"

	"github.com/mmynk/splitshare/internal/models"
)

// Realtime event names published to group channels.
const (
	EventExpenseAdded = "expenseAdded"
	EventNewMessage   = "newMessage"
)

// Publisher fans out events to realtime subscribers of a group channel.
// Delivery is fire-and-forget: at most once per currently connected
// subscriber, no backlog for clients that join later.
type Publisher interface {
	PublishToGroup(groupID, event string, payload any)
}

// NopPublisher discards all events. Used when no realtime hub is wired,
// e.g. in tests.
type NopPublisher struct{}

func (NopPublisher) PublishToGroup(groupID, event string, payload any) {}

// ExpenseAddedEvent is the payload of an expenseAdded broadcast: the full
// expense record plus a fresh emission timestamp.
type ExpenseAddedEvent struct {
	models.Expense
	EmittedAt string `json:"emittedAt"`
}

// NewExpenseAddedEvent stamps the expense with the current time.
func NewExpenseAddedEvent(expense *models.Expense) ExpenseAddedEvent {
	return ExpenseAddedEvent{
		Expense:   *expense,
		EmittedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// SenderInfo is the resolved identity of a message author.
type SenderInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MessageEvent is the payload of a newMessage broadcast. It carries both
// the structured form and a legacy flat shape (user/userId/message/time)
// for older consumers; the two are always emitted together.
type MessageEvent struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Sender    SenderInfo `json:"sender"`
	CreatedAt string     `json:"createdAt"`

	// Legacy flat shape.
	User    string `json:"user"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// NewMessageEvent builds the dual-shape broadcast payload for a persisted
// chat message.
func NewMessageEvent(msg *models.Message, sender *models.User) MessageEvent {
	displayName := sender.Name
	if displayName == "" {
		displayName = sender.Email
	}
	ts := time.Unix(msg.CreatedAt, 0).UTC().Format(time.RFC3339)
	return MessageEvent{
		ID:        msg.ID,
		Content:   msg.Content,
		Sender:    SenderInfo{ID: sender.ID, Name: sender.Name, Email: sender.Email},
		CreatedAt: ts,
		User:      displayName,
		UserID:    sender.ID,
		Message:   msg.Content,
		Time:      ts,
	}
}
