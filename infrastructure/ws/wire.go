package ws

import (
	"encoding/json"
	"fmt"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Inbound event names form a closed set; dispatch happens in a single
// switch in the connection read loop, so an unknown name is rejected in
// exactly one place.
const (
	inJoinConversation  = "join-conversation"
	inLeaveConversation = "leave-conversation"
	inSendMessage       = "send-message"
	inEditMessage       = "edit-message"
	inDeleteMessage     = "delete-message"
	inReactMessage      = "react-message"
	inMessageSeen       = "message-seen"
	inTypingStart       = "typing-start"
	inTypingStop        = "typing-stop"
	inCallInitiate      = "call-initiate"
	inCallAccept        = "call-accept"
	inCallReject        = "call-reject"
	inCallEnd           = "call-end"
	inCallRecordEnd     = "call-record-end"
	inCallNoAnswer      = "call-no-answer"
	inCallBusy          = "call-busy"
	inWebRTCOffer       = "webrtc-offer"
	inWebRTCAnswer      = "webrtc-answer"
	inWebRTCICE         = "webrtc-ice-candidate"
)

// envelope is the frame shape in both directions.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func encodeEvent(e event.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: string(e.Kind()), Payload: payload})
}

var validate = validator.New()

// decode unmarshals and validates an inbound payload in one step.
func decode[T any](raw json.RawMessage, into *T) error {
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	if err := validate.Struct(into); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return nil
}

// parseID converts a client-supplied identifier, mapping malformed ones
// to the invalid-reference failure.
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", errors.ErrInvalidReference, raw)
	}
	return id, nil
}

func parseOptionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type conversationPayload struct {
	ConversationID string `json:"conversation_id" validate:"required,uuid4"`
}

type mediaDescriptor struct {
	URL  string `json:"url" validate:"required"`
	Kind string `json:"kind" validate:"omitempty,oneof=image video audio file"`
}

type sendMessagePayload struct {
	ConversationID string            `json:"conversation_id" validate:"required,uuid4"`
	Text           string            `json:"text"`
	Media          []mediaDescriptor `json:"media" validate:"omitempty,dive"`
	ReplyTo        string            `json:"reply_to" validate:"omitempty,uuid4"`
	ForwardedFrom  string            `json:"forwarded_from"`
}

func (p sendMessagePayload) media() []domain.Media {
	if len(p.Media) == 0 {
		return nil
	}
	media := make([]domain.Media, len(p.Media))
	for i, m := range p.Media {
		kind := domain.MediaKind(m.Kind)
		if kind == "" {
			kind = domain.MediaImage
		}
		media[i] = domain.Media{URL: m.URL, Kind: kind}
	}
	return media
}

type editMessagePayload struct {
	MessageID string `json:"message_id" validate:"required,uuid4"`
	NewText   string `json:"new_text" validate:"required"`
}

type deleteMessagePayload struct {
	MessageID string `json:"message_id" validate:"required,uuid4"`
	Scope     string `json:"scope" validate:"required,oneof=self everyone"`
}

type reactMessagePayload struct {
	MessageID string `json:"message_id" validate:"required,uuid4"`
	Emoji     string `json:"emoji" validate:"required"`
}

type messageSeenPayload struct {
	MessageID string `json:"message_id" validate:"required,uuid4"`
}

type callInitiatePayload struct {
	RecipientID    string `json:"recipient_id" validate:"required"`
	CallType       string `json:"call_type" validate:"required,oneof=voice video"`
	ConversationID string `json:"conversation_id" validate:"required,uuid4"`
}

type callAcceptPayload struct {
	CallerID string `json:"caller_id" validate:"required"`
	CallID   string `json:"call_id" validate:"omitempty,uuid4"`
}

type callRejectPayload struct {
	CallerID string `json:"caller_id" validate:"required"`
	Reason   string `json:"reason"`
	CallID   string `json:"call_id" validate:"omitempty,uuid4"`
}

type callEndPayload struct {
	PeerID string `json:"peer_id" validate:"required"`
}

type callRecordEndPayload struct {
	CallID string `json:"call_id" validate:"required,uuid4"`
	Reason string `json:"reason" validate:"required,oneof=completed cancelled missed error"`
}

type callNoAnswerPayload struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	CallID      string `json:"call_id" validate:"omitempty,uuid4"`
}

type callBusyPayload struct {
	CallerID string `json:"caller_id" validate:"required"`
}

type signalPayload struct {
	RecipientID string          `json:"recipient_id" validate:"required"`
	Payload     json.RawMessage `json:"payload" validate:"required"`
}
