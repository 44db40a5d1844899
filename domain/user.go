// Package domain contains core concepts of the relay.
// No runtime, network, or storage logic should be added here.
package domain

import "time"

// AutoReplyMode selects the tone used when a reply is generated on a
// user's behalf.
type AutoReplyMode string

const (
	AutoReplyFriendly     AutoReplyMode = "friendly"
	AutoReplyProfessional AutoReplyMode = "professional"
	AutoReplyFunny        AutoReplyMode = "funny"
)

type AutoReplySettings struct {
	Enabled bool          `json:"enabled"`
	Mode    AutoReplyMode `json:"mode"`
}

// User is the persisted profile record. The relay only reads it: profile
// management happens outside this process.
type User struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	AvatarURL string            `json:"avatar_url"`
	AutoReply AutoReplySettings `json:"auto_reply"`
	LastSeen  time.Time         `json:"last_seen"`
}

// DisplayInfo is the snapshot attached to a connection at auth time.
// It is never refreshed during the connection's lifetime, so a profile
// edit only shows up after a reconnect.
type DisplayInfo struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

func (u User) Display() DisplayInfo {
	return DisplayInfo{UserID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}
