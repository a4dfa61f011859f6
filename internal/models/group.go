package models

// Group represents a named collection of users sharing expenses and a chat log.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string `json:"name"`

	// CreatedBy is the user ID of the group's creator. The creator is
	// always a member from creation and is the only one allowed to delete
	// the group, remove members, or cancel invites.
	CreatedBy string `json:"createdBy"`

	// Members is the list of member user IDs. A user appears at most once.
	Members []string `json:"members"`

	// Invites are pending email invitations for people who have not
	// registered yet. An email appears at most once.
	Invites []Invite `json:"emailInvites"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"createdAt"`
}

// Invite is a pending association between an email address and a group,
// awaiting registration of that email.
type Invite struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HasMember reports whether userID is currently a member of the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// HasInvite reports whether email has a pending invite in the group.
func (g *Group) HasInvite(email string) bool {
	for _, inv := range g.Invites {
		if inv.Email == email {
			return true
		}
	}
	return false
}

// Message is one entry in a group's chat log. Messages are owned by the
// group and deleted with it.
type Message struct {
	// ID is the unique identifier for the message (UUID format).
	ID string `json:"id"`

	// GroupID is the group this message belongs to.
	GroupID string `json:"groupId"`

	// SenderID is the user ID of the author.
	SenderID string `json:"senderId"`

	// Content is the message text.
	Content string `json:"content"`

	// CreatedAt is the Unix timestamp when the message was posted.
	CreatedAt int64 `json:"createdAt"`
}
