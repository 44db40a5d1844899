package domain

import (
	"time"

	"github.com/google/uuid"
)

type CallType string

const (
	CallVoice CallType = "voice"
	CallVideo CallType = "video"
)

type CallStatus string

const (
	CallRinging   CallStatus = "ringing"
	CallConnected CallStatus = "connected"
	CallMissed    CallStatus = "missed"
	CallRejected  CallStatus = "rejected"
	CallCancelled CallStatus = "cancelled"
	CallEnded     CallStatus = "ended"
)

type EndReason string

const (
	EndCompleted EndReason = "completed"
	EndCancelled EndReason = "cancelled"
	EndMissed    EndReason = "missed"
	EndError     EndReason = "error"
)

// CallSession records one call attempt between exactly two users.
// Lifecycle: ringing -> {connected, missed, rejected, cancelled},
// connected -> ended. No transition revisits ringing or hops between
// terminal states.
type CallSession struct {
	ID          uuid.UUID  `json:"id"`
	CallerID    string     `json:"caller_id"`
	RecipientID string     `json:"recipient_id"`
	Type        CallType   `json:"type"`
	Status      CallStatus `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	EndReason   EndReason  `json:"end_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CanTransition reports whether moving to the target status is a legal
// lifecycle step from the current one.
func (c CallSession) CanTransition(to CallStatus) bool {
	switch c.Status {
	case CallRinging:
		switch to {
		case CallConnected, CallMissed, CallRejected, CallCancelled:
			return true
		}
	case CallConnected:
		return to == CallEnded
	}
	return false
}
