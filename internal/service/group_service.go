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

// GroupService handles group lifecycle, membership, invites and chat.
type GroupService struct {
	store     storage.Store
	publisher Publisher
}

// NewGroupService creates a new GroupService with the given storage backend
// and realtime publisher.
func NewGroupService(store storage.Store, publisher Publisher) *GroupService {
	return &GroupService{store: store, publisher: publisher}
}

// MemberView is a resolved member identity for API responses.
type MemberView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MessageView is a chat message with its sender resolved.
type MessageView struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Sender    SenderInfo `json:"sender"`
	CreatedAt int64      `json:"createdAt"`
}

// GroupDetail is the full read model of a group: resolved members, pending
// invites, expense history, chat log and balances recomputed from the full
// expense set. Balances are never cached, so they always reflect every
// expense known at read time.
type GroupDetail struct {
	Group    models.Group       `json:"group"`
	Members  []MemberView       `json:"members"`
	Expenses []*models.Expense  `json:"expenses"`
	Messages []MessageView      `json:"messages"`
	Balances map[string]float64 `json:"balances"`
}

// CreateGroup creates a group. The caller becomes the creator and is always
// part of the initial member set.
func (s *GroupService) CreateGroup(ctx context.Context, callerID, name string, memberIDs []string) (*models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationErr("name", "must not be empty")
	}

	members := []string{callerID}
	seen := map[string]bool{callerID: true}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: callerID,
		Members:   members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "created_by", callerID)
	return group, nil
}

// ListGroups returns the groups the caller is a member of.
func (s *GroupService) ListGroups(ctx context.Context, callerID string) ([]*models.Group, error) {
	groups, err := s.store.ListGroupsByMember(ctx, callerID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", callerID, "error", err)
		return nil, err
	}
	return groups, nil
}

// GetGroup returns the full detail view of a group, with balances
// recomputed from the complete expense history.
func (s *GroupService) GetGroup(ctx context.Context, callerID, groupID string) (*GroupDetail, error) {
	group, err := s.memberGroup(ctx, callerID, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		slog.Error("GetGroup failed to load expenses", "group_id", groupID, "error", err)
		return nil, err
	}

	messages, err := s.listMessageViews(ctx, group)
	if err != nil {
		return nil, err
	}

	users, err := s.store.GetUsersByIDs(ctx, group.Members)
	if err != nil {
		slog.Error("GetGroup failed to resolve members", "group_id", groupID, "error", err)
		return nil, err
	}
	members := make([]MemberView, 0, len(group.Members))
	for _, id := range group.Members {
		view := MemberView{ID: id}
		if u, ok := users[id]; ok {
			view.Name = u.Name
			view.Email = u.Email
		}
		members = append(members, view)
	}

	forBalance := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		forBalance[i] = calculator.ExpenseForBalance{
			Amount:     e.Amount,
			PaidBy:     e.PaidBy,
			SplitAmong: e.SplitAmong,
		}
	}

	return &GroupDetail{
		Group:    *group,
		Members:  members,
		Expenses: expenses,
		Messages: messages,
		Balances: calculator.ComputeBalances(group.Members, forBalance),
	}, nil
}

// AddMember adds a registered user to the group by email, or records a
// pending invite for an unregistered email. Any current member may add.
// Returns true if a member was added, false if an invite was recorded.
func (s *GroupService) AddMember(ctx context.Context, callerID, groupID, email, name string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, validationErr("email", "must not be empty")
	}

	group, err := s.memberGroup(ctx, callerID, groupID)
	if err != nil {
		return false, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		slog.Error("AddMember failed to resolve email", "group_id", groupID, "error", err)
		return false, err
	}

	if user != nil {
		if group.HasMember(user.ID) {
			return false, ErrAlreadyMember
		}
		if err := s.store.AddGroupMember(ctx, groupID, user.ID); err != nil {
			slog.Error("AddMember failed", "group_id", groupID, "user_id", user.ID, "error", err)
			return false, err
		}
		slog.Info("Member added", "group_id", groupID, "user_id", user.ID)
		return true, nil
	}

	if group.HasInvite(email) {
		return false, ErrAlreadyInvited
	}
	if name == "" {
		name = email[:strings.Index(email+"@", "@")]
	}
	if err := s.store.AddInvite(ctx, groupID, models.Invite{Email: email, Name: name}); err != nil {
		slog.Error("AddMember failed to record invite", "group_id", groupID, "error", err)
		return false, err
	}
	slog.Info("Invite recorded", "group_id", groupID, "email", email)
	return false, nil
}

// RemoveMember removes a member by email. Creator only. Any pending invite
// for the email is purged as well, since an email lives in exactly one of
// the two sets.
func (s *GroupService) RemoveMember(ctx context.Context, callerID, groupID, email string) error {
	email = normalizeEmail(email)

	group, err := s.creatorGroup(ctx, callerID, groupID)
	if err != nil {
		return err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		slog.Error("RemoveMember failed to resolve email", "group_id", groupID, "error", err)
		return err
	}
	if user != nil {
		if err := s.store.RemoveGroupMember(ctx, groupID, user.ID); err != nil {
			slog.Error("RemoveMember failed", "group_id", groupID, "user_id", user.ID, "error", err)
			return err
		}
	}

	if err := s.store.RemoveInvite(ctx, groupID, email); err != nil {
		slog.Error("RemoveMember failed to purge invite", "group_id", groupID, "error", err)
		return err
	}

	slog.Info("Member removed", "group_id", group.ID, "email", email)
	return nil
}

// CancelInvite removes a pending invite by email. Creator only. No-op if
// the invite is absent.
func (s *GroupService) CancelInvite(ctx context.Context, callerID, groupID, email string) error {
	email = normalizeEmail(email)

	if _, err := s.creatorGroup(ctx, callerID, groupID); err != nil {
		return err
	}

	if err := s.store.RemoveInvite(ctx, groupID, email); err != nil {
		slog.Error("CancelInvite failed", "group_id", groupID, "error", err)
		return err
	}

	slog.Info("Invite cancelled", "group_id", groupID, "email", email)
	return nil
}

// Leave removes the caller from the group's member set. Any member may
// leave, the creator included.
func (s *GroupService) Leave(ctx context.Context, callerID, groupID string) error {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return s.mapStoreErr(err, groupID)
	}

	if err := s.store.RemoveGroupMember(ctx, groupID, callerID); err != nil {
		slog.Error("Leave failed", "group_id", groupID, "user_id", callerID, "error", err)
		return err
	}

	slog.Info("Member left group", "group_id", groupID, "user_id", callerID)
	return nil
}

// DeleteGroup removes a group entirely, including its membership, invites
// and message log. Creator only. Expense records are not cascade-deleted;
// they become unreachable orphans.
func (s *GroupService) DeleteGroup(ctx context.Context, callerID, groupID string) error {
	if _, err := s.creatorGroup(ctx, callerID, groupID); err != nil {
		return err
	}

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		slog.Error("DeleteGroup failed", "group_id", groupID, "error", err)
		return s.mapStoreErr(err, groupID)
	}

	slog.Info("Group deleted", "group_id", groupID, "deleted_by", callerID)
	return nil
}

// PostMessage appends a chat message to the group's log and broadcasts a
// newMessage event carrying both the structured and the legacy flat shape.
func (s *GroupService) PostMessage(ctx context.Context, callerID, groupID, content string) (*MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationErr("content", "message content is required")
	}

	if _, err := s.memberGroup(ctx, callerID, groupID); err != nil {
		return nil, err
	}

	sender, err := s.store.GetUserByID(ctx, callerID)
	if err != nil {
		slog.Error("PostMessage failed to resolve sender", "user_id", callerID, "error", err)
		return nil, err
	}
	if sender == nil {
		return nil, fmt.Errorf("sender %s: %w", callerID, ErrNotFound)
	}

	msg := &models.Message{
		GroupID:  groupID,
		SenderID: callerID,
		Content:  content,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		slog.Error("PostMessage failed", "group_id", groupID, "error", err)
		return nil, err
	}

	s.publisher.PublishToGroup(groupID, EventNewMessage, NewMessageEvent(msg, sender))

	slog.Info("Message posted", "group_id", groupID, "message_id", msg.ID)
	return &MessageView{
		ID:        msg.ID,
		Content:   msg.Content,
		Sender:    SenderInfo{ID: sender.ID, Name: sender.Name, Email: sender.Email},
		CreatedAt: msg.CreatedAt,
	}, nil
}

// ListMessages returns the group's chat log with senders resolved.
// Only persisted messages appear here; direct-socket broadcasts never
// touch the log.
func (s *GroupService) ListMessages(ctx context.Context, callerID, groupID string) ([]MessageView, error) {
	group, err := s.memberGroup(ctx, callerID, groupID)
	if err != nil {
		return nil, err
	}
	return s.listMessageViews(ctx, group)
}

func (s *GroupService) listMessageViews(ctx context.Context, group *models.Group) ([]MessageView, error) {
	messages, err := s.store.ListMessages(ctx, group.ID)
	if err != nil {
		slog.Error("Failed to load messages", "group_id", group.ID, "error", err)
		return nil, err
	}

	senderIDs := make([]string, 0, len(messages))
	seen := make(map[string]bool)
	for _, m := range messages {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	senders, err := s.store.GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		slog.Error("Failed to resolve senders", "group_id", group.ID, "error", err)
		return nil, err
	}

	views := make([]MessageView, len(messages))
	for i, m := range messages {
		view := MessageView{
			ID:        m.ID,
			Content:   m.Content,
			Sender:    SenderInfo{ID: m.SenderID},
			CreatedAt: m.CreatedAt,
		}
		if u, ok := senders[m.SenderID]; ok {
			view.Sender.Name = u.Name
			view.Sender.Email = u.Email
		}
		views[i] = view
	}
	return views, nil
}

// memberGroup fetches a group and verifies the caller is a member.
// The membership check precedes any other validation.
func (s *GroupService) memberGroup(ctx context.Context, callerID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, s.mapStoreErr(err, groupID)
	}
	if !group.HasMember(callerID) {
		return nil, fmt.Errorf("user %s is not a member of group %s: %w", callerID, groupID, ErrForbidden)
	}
	return group, nil
}

// creatorGroup fetches a group and verifies the caller is its creator.
func (s *GroupService) creatorGroup(ctx context.Context, callerID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, s.mapStoreErr(err, groupID)
	}
	if group.CreatedBy != callerID {
		return nil, fmt.Errorf("user %s is not the creator of group %s: %w", callerID, groupID, ErrForbidden)
	}
	return group, nil
}

func (s *GroupService) mapStoreErr(err error, groupID string) error {
	if errorsIsNotFound(err) {
		return fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	return err
}
