package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaFile  MediaKind = "file"
)

// Media is an opaque descriptor produced by the upload pipeline outside
// the relay. The relay never fetches the URL.
type Media struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

type Reaction struct {
	UserID string `json:"user_id"`
	Emoji  string `json:"emoji"`
}

// Message belongs to exactly one conversation for its lifetime.
// Reactions hold at most one entry per user.
type Message struct {
	ID                 uuid.UUID  `json:"id"`
	ConversationID     uuid.UUID  `json:"conversation_id"`
	SenderID           string     `json:"sender_id"`
	Text               string     `json:"text"`
	Media              []Media    `json:"media,omitempty"`
	ReplyTo            *uuid.UUID `json:"reply_to,omitempty"`
	ForwardedFrom      string     `json:"forwarded_from,omitempty"`
	AutoGenerated      bool       `json:"auto_generated,omitempty"`
	Reactions          []Reaction `json:"reactions,omitempty"`
	SeenBy             []string   `json:"seen_by,omitempty"`
	Edited             bool       `json:"edited,omitempty"`
	EditedAt           *time.Time `json:"edited_at,omitempty"`
	DeletedBy          []string   `json:"deleted_by,omitempty"`
	DeletedForEveryone bool       `json:"deleted_for_everyone,omitempty"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ToggleReaction applies the toggle semantics: same (user, emoji) removes
// the reaction, a different emoji for the same user replaces it, and a
// new user adds one.
func (m *Message) ToggleReaction(userID, emoji string) {
	existing, found := lo.Find(m.Reactions, func(r Reaction) bool {
		return r.UserID == userID
	})
	m.Reactions = lo.Filter(m.Reactions, func(r Reaction, _ int) bool {
		return r.UserID != userID
	})
	if found && existing.Emoji == emoji {
		return
	}
	m.Reactions = append(m.Reactions, Reaction{UserID: userID, Emoji: emoji})
}

// Edit replaces the text and stamps the edit. Authorization is the
// caller's concern.
func (m *Message) Edit(newText string, at time.Time) {
	m.Text = newText
	m.Edited = true
	m.EditedAt = &at
}

// BlankForEveryone clears content in place. The record survives so that
// replies and forwards referencing it keep resolving.
func (m *Message) BlankForEveryone(at time.Time) {
	m.Text = ""
	m.Media = nil
	m.DeletedForEveryone = true
	m.DeletedAt = &at
}

// HideFor marks the message deleted for a single user. Idempotent.
func (m *Message) HideFor(userID string) {
	if !lo.Contains(m.DeletedBy, userID) {
		m.DeletedBy = append(m.DeletedBy, userID)
	}
}

// MarkSeen appends the user to the seen list. Idempotent.
func (m *Message) MarkSeen(userID string) {
	if !lo.Contains(m.SeenBy, userID) {
		m.SeenBy = append(m.SeenBy, userID)
	}
}
