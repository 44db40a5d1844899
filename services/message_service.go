package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"

	"github.com/google/uuid"
)

type IMessageService interface {
	Submit(ctx context.Context, cmd SubmitCommand) (domain.Message, error)
	Edit(ctx context.Context, messageID uuid.UUID, actorID, newText string) (domain.Message, error)
	DeleteForEveryone(ctx context.Context, messageID uuid.UUID, actorID string) error
	DeleteForMe(messageID uuid.UUID, actorID string) error
	React(ctx context.Context, messageID uuid.UUID, actorID, emoji string) (domain.Message, error)
	MarkSeen(ctx context.Context, messageID uuid.UUID, actorID string) error
	TypingStarted(ctx context.Context, conversationID uuid.UUID, actor domain.DisplayInfo) error
	TypingStopped(ctx context.Context, conversationID uuid.UUID, actorID string) error
	EnsureParticipant(conversationID uuid.UUID, userID string) error
}

// Censor is implemented by the moderation automaton.
type Censor interface {
	Censor(text string) string
}

// AutoResponder schedules a synthetic reply for an unreachable
// recipient. Fire-and-forget: it must not block delivery.
type AutoResponder interface {
	Schedule(recipient domain.User, conversationID uuid.UUID, lastText string)
}

type SubmitCommand struct {
	ConversationID uuid.UUID
	SenderID       string
	Sender         domain.DisplayInfo
	Text           string
	Media          []domain.Media
	ReplyTo        *uuid.UUID
	ForwardedFrom  string
	AutoGenerated  bool
}

// MessageService validates membership, persists message mutations and
// fans the results out to every participant's live connections.
// Delivery is at-most-once per connection, best-effort: a connection
// dropping between lookup and send simply misses the event.
type MessageService struct {
	log           *slog.Logger
	registry      contract.IRegistry
	conversations contract.IConversationRepository
	messages      contract.IMessageRepository
	users         contract.IUserRepository
	censor        Censor
	autoReply     AutoResponder
}

func NewMessageService(log *slog.Logger, registry contract.IRegistry,
	conversations contract.IConversationRepository, messages contract.IMessageRepository,
	users contract.IUserRepository, censor Censor, autoReply AutoResponder) *MessageService {
	return &MessageService{
		log:           log,
		registry:      registry,
		conversations: conversations,
		messages:      messages,
		users:         users,
		censor:        censor,
		autoReply:     autoReply,
	}
}

// Submit persists a new message and delivers it to every live
// connection of every participant, the sender's own included. Offline
// participants with auto-reply enabled are handed to the scheduler.
func (s *MessageService) Submit(ctx context.Context, cmd SubmitCommand) (domain.Message, error) {
	conversation, err := s.conversations.FindConversation(cmd.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if !conversation.HasParticipant(cmd.SenderID) {
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrNotAParticipant, cmd.SenderID)
	}

	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: cmd.ConversationID,
		SenderID:       cmd.SenderID,
		Text:           s.censor.Censor(cmd.Text),
		Media:          cmd.Media,
		ReplyTo:        cmd.ReplyTo,
		ForwardedFrom:  cmd.ForwardedFrom,
		AutoGenerated:  cmd.AutoGenerated,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.CreateMessage(message); err != nil {
		return domain.Message{}, err
	}
	if err := s.conversations.SetLastMessage(cmd.ConversationID, message.ID); err != nil {
		// The message is persisted; a stale last-message pointer is not
		// worth failing the send over.
		s.log.Warn("failed to update last-message pointer",
			"conversation_id", cmd.ConversationID, "error", err)
	}

	s.deliver(ctx, conversation.Participants, event.NewMessage{Message: message, Sender: cmd.Sender})

	for _, participantID := range conversation.OtherParticipants(cmd.SenderID) {
		if s.registry.IsOnline(participantID) {
			continue
		}
		recipient, err := s.users.FindUser(participantID)
		if err != nil {
			s.log.Warn("offline participant lookup failed",
				"user_id", participantID, "error", err)
			continue
		}
		if recipient.AutoReply.Enabled && !cmd.AutoGenerated {
			s.autoReply.Schedule(recipient, cmd.ConversationID, message.Text)
		}
	}
	return message, nil
}

// Edit replaces a message's text. Only the original sender may edit.
func (s *MessageService) Edit(ctx context.Context, messageID uuid.UUID, actorID, newText string) (domain.Message, error) {
	message, err := s.authorizeSenderAction(messageID, actorID)
	if err != nil {
		return domain.Message{}, err
	}

	updated, err := s.messages.UpdateMessage(message.ID, func(m *domain.Message) {
		m.Edit(s.censor.Censor(newText), time.Now().UTC())
	})
	if err != nil {
		return domain.Message{}, err
	}
	s.broadcastUpdate(ctx, updated)
	return updated, nil
}

// DeleteForEveryone blanks the message content in place and broadcasts
// a removal event. The record survives so replies and forwards keep
// resolving.
func (s *MessageService) DeleteForEveryone(ctx context.Context, messageID uuid.UUID, actorID string) error {
	message, err := s.authorizeSenderAction(messageID, actorID)
	if err != nil {
		return err
	}

	updated, err := s.messages.UpdateMessage(message.ID, func(m *domain.Message) {
		m.BlankForEveryone(time.Now().UTC())
	})
	if err != nil {
		return err
	}

	conversation, err := s.conversations.FindConversation(updated.ConversationID)
	if err != nil {
		return err
	}
	s.deliver(ctx, conversation.Participants, event.MessageRemoved{
		MessageID:      updated.ID,
		ConversationID: updated.ConversationID,
	})
	return nil
}

// DeleteForMe is a private visibility filter applied at read time.
// Idempotent, never broadcast.
func (s *MessageService) DeleteForMe(messageID uuid.UUID, actorID string) error {
	message, err := s.messages.FindMessage(messageID)
	if err != nil {
		return err
	}
	if err := s.EnsureParticipant(message.ConversationID, actorID); err != nil {
		return err
	}
	_, err = s.messages.UpdateMessage(messageID, func(m *domain.Message) {
		m.HideFor(actorID)
	})
	return err
}

// React toggles the actor's reaction and re-broadcasts the message.
func (s *MessageService) React(ctx context.Context, messageID uuid.UUID, actorID, emoji string) (domain.Message, error) {
	message, err := s.messages.FindMessage(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if err := s.EnsureParticipant(message.ConversationID, actorID); err != nil {
		return domain.Message{}, err
	}

	updated, err := s.messages.UpdateMessage(messageID, func(m *domain.Message) {
		m.ToggleReaction(actorID, emoji)
	})
	if err != nil {
		return domain.Message{}, err
	}
	s.broadcastUpdate(ctx, updated)
	return updated, nil
}

// MarkSeen appends the actor to the seen list and re-broadcasts.
func (s *MessageService) MarkSeen(ctx context.Context, messageID uuid.UUID, actorID string) error {
	message, err := s.messages.FindMessage(messageID)
	if err != nil {
		return err
	}
	if err := s.EnsureParticipant(message.ConversationID, actorID); err != nil {
		return err
	}

	updated, err := s.messages.UpdateMessage(messageID, func(m *domain.Message) {
		m.MarkSeen(actorID)
	})
	if err != nil {
		return err
	}
	s.broadcastUpdate(ctx, updated)
	return nil
}

// TypingStarted relays the indicator to every other participant's live
// connections. Never echoed back, never persisted.
func (s *MessageService) TypingStarted(ctx context.Context, conversationID uuid.UUID, actor domain.DisplayInfo) error {
	conversation, err := s.conversations.FindConversation(conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(actor.UserID) {
		return fmt.Errorf("%w: %s", errors.ErrNotAParticipant, actor.UserID)
	}
	s.deliver(ctx, conversation.OtherParticipants(actor.UserID), event.UserTyping{
		ConversationID: conversationID,
		User:           actor,
	})
	return nil
}

func (s *MessageService) TypingStopped(ctx context.Context, conversationID uuid.UUID, actorID string) error {
	conversation, err := s.conversations.FindConversation(conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(actorID) {
		return fmt.Errorf("%w: %s", errors.ErrNotAParticipant, actorID)
	}
	s.deliver(ctx, conversation.OtherParticipants(actorID), event.UserStoppedTyping{
		ConversationID: conversationID,
		UserID:         actorID,
	})
	return nil
}

// EnsureParticipant re-validates membership against the current
// conversation record.
func (s *MessageService) EnsureParticipant(conversationID uuid.UUID, userID string) error {
	ok, err := s.conversations.IsParticipant(conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrNotAParticipant, userID)
	}
	return nil
}

// authorizeSenderAction loads the message and checks that the actor is
// both a current participant and the original sender.
func (s *MessageService) authorizeSenderAction(messageID uuid.UUID, actorID string) (domain.Message, error) {
	message, err := s.messages.FindMessage(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if err := s.EnsureParticipant(message.ConversationID, actorID); err != nil {
		return domain.Message{}, err
	}
	if message.SenderID != actorID {
		return domain.Message{}, fmt.Errorf("%w: only the sender may do this", errors.ErrNotAuthorized)
	}
	return message, nil
}

// broadcastUpdate re-sends the full message state, display-enriched, to
// all participants' live connections.
func (s *MessageService) broadcastUpdate(ctx context.Context, message domain.Message) {
	conversation, err := s.conversations.FindConversation(message.ConversationID)
	if err != nil {
		s.log.Warn("broadcast skipped, conversation lookup failed",
			"conversation_id", message.ConversationID, "error", err)
		return
	}
	s.deliver(ctx, conversation.Participants, event.MessageUpdated{
		Message: message,
		Sender:  s.displayOf(message.SenderID),
	})
}

func (s *MessageService) displayOf(userID string) domain.DisplayInfo {
	user, err := s.users.FindUser(userID)
	if err != nil {
		return domain.DisplayInfo{UserID: userID}
	}
	return user.Display()
}

// deliver pushes one event to every live connection of every listed
// participant, exactly once per connection.
func (s *MessageService) deliver(ctx context.Context, participants []string, e event.DomainEvent) {
	for _, participantID := range participants {
		for _, sink := range s.registry.SinksOf(participantID) {
			if err := sink.Consume(ctx, e); err != nil {
				s.log.Debug("event dropped", "user_id", participantID,
					"kind", e.Kind(), "error", err)
			}
		}
	}
}
