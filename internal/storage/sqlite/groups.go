package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitshare/internal/models"
	"github.com/mmynk/splitshare/internal/storage"
)

// CreateGroup persists a new group along with its initial member set.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_by, created_at) VALUES (?, ?, ?, ?)",
		group.ID, group.Name, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for _, userID := range group.Members {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
			group.ID, userID, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroup retrieves a group by ID with its members and pending invites.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if err := s.loadMembersAndInvites(ctx, group); err != nil {
		return nil, err
	}

	return group, nil
}

// ListGroupsByMember retrieves all groups the user belongs to, newest first.
func (s *SQLiteStore) ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.created_by, g.created_at
		 FROM groups g JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ? ORDER BY g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	for _, group := range groups {
		if err := s.loadMembersAndInvites(ctx, group); err != nil {
			return nil, err
		}
	}

	return groups, nil
}

// loadMembersAndInvites populates the Members and Invites fields of a group.
func (s *SQLiteStore) loadMembersAndInvites(ctx context.Context, group *models.Group) error {
	memberRows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY joined_at, user_id",
		group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var userID string
		if err := memberRows.Scan(&userID); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		group.Members = append(group.Members, userID)
	}
	if err := memberRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate members: %w", err)
	}

	inviteRows, err := s.db.QueryContext(ctx,
		"SELECT email, name FROM group_invites WHERE group_id = ? ORDER BY created_at, email",
		group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get invites: %w", err)
	}
	defer inviteRows.Close()

	for inviteRows.Next() {
		var invite models.Invite
		if err := inviteRows.Scan(&invite.Email, &invite.Name); err != nil {
			return fmt.Errorf("failed to scan invite: %w", err)
		}
		group.Invites = append(group.Invites, invite)
	}
	if err := inviteRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate invites: %w", err)
	}

	return nil
}

// DeleteGroup removes a group. Members, invites and messages go with it via
// foreign key cascade; expense rows are left orphaned on purpose.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// AddGroupMember adds a user to a group's member set.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		groupID, userID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveGroupMember removes a user from a group's member set.
func (s *SQLiteStore) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// AddInvite records a pending email invite on a group.
func (s *SQLiteStore) AddInvite(ctx context.Context, groupID string, invite models.Invite) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO group_invites (group_id, email, name, created_at) VALUES (?, ?, ?, ?)",
		groupID, invite.Email, invite.Name, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to add invite: %w", err)
	}
	return nil
}

// RemoveInvite deletes a pending invite by email.
func (s *SQLiteStore) RemoveInvite(ctx context.Context, groupID, email string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM group_invites WHERE group_id = ? AND email = ?",
		groupID, email,
	)
	if err != nil {
		return fmt.Errorf("failed to remove invite: %w", err)
	}
	return nil
}

// ListInvitesByEmail finds groups holding a pending invite for the email.
func (s *SQLiteStore) ListInvitesByEmail(ctx context.Context, email string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT group_id FROM group_invites WHERE email = ?",
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites by email: %w", err)
	}
	defer rows.Close()

	var groupIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		groupIDs = append(groupIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invites: %w", err)
	}

	return groupIDs, nil
}
