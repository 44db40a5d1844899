// Package event defines the closed set of server-to-client events.
// The transport encodes them through a single switch on Kind, so adding
// an event means adding a Kind constant, a struct, and one encoder case.
package event

import (
	"encoding/json"

	"chat-relay/domain"

	"github.com/google/uuid"
)

type Kind string

const (
	KindOnlineUsers    Kind = "online-users"
	KindNewMessage     Kind = "new-message"
	KindMessageUpdated Kind = "message-updated"
	KindMessageRemoved Kind = "message-removed"
	KindUserTyping     Kind = "user-typing"
	KindUserStopTyping Kind = "user-stopped-typing"
	KindCallIncoming   Kind = "call-incoming"
	KindCallRinging    Kind = "call-ringing"
	KindCallAccepted   Kind = "call-accepted"
	KindCallRejected   Kind = "call-rejected"
	KindCallEnded      Kind = "call-ended"
	KindCallMissed     Kind = "call-missed"
	KindCallBusy       Kind = "call-busy"
	KindWebRTCOffer    Kind = "webrtc-offer"
	KindWebRTCAnswer   Kind = "webrtc-answer"
	KindWebRTCICE      Kind = "webrtc-ice-candidate"
	KindError          Kind = "error"
)

// DomainEvent is the tagged union pushed through sinks to connections.
type DomainEvent interface {
	Kind() Kind
}

// OnlineUsers carries the full reachable roster after every registry
// mutation. Process-wide, not scoped to conversations.
type OnlineUsers struct {
	UserIDs []string `json:"user_ids"`
}

func (OnlineUsers) Kind() Kind { return KindOnlineUsers }

type NewMessage struct {
	Message domain.Message     `json:"message"`
	Sender  domain.DisplayInfo `json:"sender"`
}

func (NewMessage) Kind() Kind { return KindNewMessage }

type MessageUpdated struct {
	Message domain.Message     `json:"message"`
	Sender  domain.DisplayInfo `json:"sender"`
}

func (MessageUpdated) Kind() Kind { return KindMessageUpdated }

// MessageRemoved signals that a message's content was removed for
// everyone. The persisted record survives, blanked.
type MessageRemoved struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

func (MessageRemoved) Kind() Kind { return KindMessageRemoved }

type UserTyping struct {
	ConversationID uuid.UUID          `json:"conversation_id"`
	User           domain.DisplayInfo `json:"user"`
}

func (UserTyping) Kind() Kind { return KindUserTyping }

type UserStoppedTyping struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         string    `json:"user_id"`
}

func (UserStoppedTyping) Kind() Kind { return KindUserStopTyping }

type CallIncoming struct {
	CallID         uuid.UUID          `json:"call_id"`
	Caller         domain.DisplayInfo `json:"caller"`
	CallType       domain.CallType    `json:"call_type"`
	ConversationID uuid.UUID          `json:"conversation_id"`
}

func (CallIncoming) Kind() Kind { return KindCallIncoming }

// CallRinging acknowledges the caller that the recipient was notified.
type CallRinging struct {
	CallID      uuid.UUID `json:"call_id"`
	RecipientID string    `json:"recipient_id"`
}

func (CallRinging) Kind() Kind { return KindCallRinging }

type CallAccepted struct {
	Recipient domain.DisplayInfo `json:"recipient"`
}

func (CallAccepted) Kind() Kind { return KindCallAccepted }

type CallRejected struct {
	RecipientID string `json:"recipient_id"`
	Reason      string `json:"reason"`
}

func (CallRejected) Kind() Kind { return KindCallRejected }

type CallEnded struct {
	PeerID string `json:"peer_id"`
	Reason string `json:"reason"`
}

func (CallEnded) Kind() Kind { return KindCallEnded }

type CallMissed struct {
	Caller domain.DisplayInfo `json:"caller"`
}

func (CallMissed) Kind() Kind { return KindCallMissed }

type CallBusy struct {
	RecipientID string `json:"recipient_id"`
}

func (CallBusy) Kind() Kind { return KindCallBusy }

// Signal forwards an opaque WebRTC payload. The relay never inspects it.
type Signal struct {
	SignalKind Kind            `json:"-"`
	SenderID   string          `json:"sender_id"`
	Payload    json.RawMessage `json:"payload"`
}

func (s Signal) Kind() Kind { return s.SignalKind }

// Error is the event-scoped failure notification sent back to the
// originating connection only.
type Error struct {
	Scope  string `json:"scope"`
	Reason string `json:"reason"`
}

func (Error) Kind() Kind { return KindError }
