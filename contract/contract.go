//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/google/uuid"
)

// EventSink is one connection's inbox. Consume must not block the
// fan-out path: implementations buffer and drop rather than stall.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the one piece of state shared by every component.
// Safe for concurrent use from independent connection lifecycles.
type IRegistry interface {
	Register(userID string, connID uuid.UUID, sink EventSink)
	Unregister(userID string, connID uuid.UUID)
	SinksOf(userID string) []EventSink
	IsOnline(userID string) bool
	OnlineUsers() []string
	AllSinks() []EventSink
}

type IUserRepository interface {
	FindUser(userID string) (domain.User, error)
}

// IConversationRepository backs the membership oracle: every
// conversation-scoped action re-validates against it, since membership
// can change between two events of the same connection.
type IConversationRepository interface {
	FindConversation(id uuid.UUID) (domain.Conversation, error)
	IsParticipant(conversationID uuid.UUID, userID string) (bool, error)
	SetLastMessage(conversationID, messageID uuid.UUID) error
}

type IMessageRepository interface {
	CreateMessage(message domain.Message) error
	FindMessage(id uuid.UUID) (domain.Message, error)
	// UpdateMessage applies mutate under the message's per-record lock,
	// so two concurrent reactions or edits cannot clobber each other.
	UpdateMessage(id uuid.UUID, mutate func(*domain.Message)) (domain.Message, error)
	RecentMessages(conversationID uuid.UUID, limit int) ([]domain.Message, error)
}

type ICallRepository interface {
	CreateCall(call domain.CallSession) error
	FindCall(id uuid.UUID) (domain.CallSession, error)
	// FindRingingCall resolves the ringing session between a caller and
	// recipient pair, for clients that cannot echo the session id back.
	FindRingingCall(callerID, recipientID string) (domain.CallSession, error)
	// TransitionCall moves the session to the target status under the
	// record lock, rejecting illegal lifecycle steps.
	TransitionCall(id uuid.UUID, to domain.CallStatus, reason domain.EndReason) (domain.CallSession, error)
}

// CredentialVerifier validates the opaque credential presented during
// the connection handshake.
type CredentialVerifier interface {
	Verify(token string) (userID string, err error)
}

// ResponseGenerator produces the text of an auto-reply. Failures are
// recovered by the scheduler, never surfaced to clients.
type ResponseGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type GenerateRequest struct {
	OnBehalfOf domain.User
	Mode       domain.AutoReplyMode
	History    []HistoryEntry
}

type HistoryEntry struct {
	SenderName string
	Text       string
}
