package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Conversation is the persisted participant set of a direct or group
// thread. Membership management is outside the relay; every fan-out
// decision reads the current participant list.
type Conversation struct {
	ID            uuid.UUID  `json:"id"`
	Participants  []string   `json:"participants"`
	IsGroup       bool       `json:"is_group"`
	GroupName     string     `json:"group_name,omitempty"`
	GroupAdmins   []string   `json:"group_admins,omitempty"`
	CreatedBy     string     `json:"created_by"`
	LastMessageID *uuid.UUID `json:"last_message_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (c Conversation) HasParticipant(userID string) bool {
	return lo.Contains(c.Participants, userID)
}

// OtherParticipants returns every participant except the given user,
// preserving order. Used for typing relays, which never echo back.
func (c Conversation) OtherParticipants(userID string) []string {
	return lo.Filter(c.Participants, func(p string, _ int) bool {
		return p != userID
	})
}
