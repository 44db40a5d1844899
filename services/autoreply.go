package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/google/uuid"
)

const historyWindow = 5

// Poster is the slice of the message service the scheduler needs to
// inject the generated reply back through the regular fan-out path.
type Poster interface {
	Submit(ctx context.Context, cmd SubmitCommand) (domain.Message, error)
}

// pendingKey identifies the single reply slot a conversation holds for
// one recipient.
type pendingKey struct {
	conversationID uuid.UUID
	recipientID    string
}

// AutoReplyScheduler produces a synthetic reply on behalf of an
// unreachable, opted-in recipient. At most one reply is pending per
// (conversation, recipient) pair: further triggers while that slot is
// occupied are dropped. Generation failures are swallowed: no reply is
// produced and nobody is notified.
//
// The pending delay is not durable and not reachability-aware: a
// recipient who reconnects during the window still gets the reply, and
// a process restart abandons every pending timer.
type AutoReplyScheduler struct {
	log       *slog.Logger
	generator contract.ResponseGenerator
	messages  contract.IMessageRepository
	users     contract.IUserRepository
	delay     time.Duration

	mu      sync.Mutex
	poster  Poster
	pending map[pendingKey]struct{}

	// inflight tracks running goroutines so a graceful shutdown can
	// wait for replies already past generation.
	inflight sync.WaitGroup
}

func NewAutoReplyScheduler(log *slog.Logger, generator contract.ResponseGenerator,
	messages contract.IMessageRepository, users contract.IUserRepository,
	delay time.Duration) *AutoReplyScheduler {
	return &AutoReplyScheduler{
		log:       log,
		generator: generator,
		messages:  messages,
		users:     users,
		delay:     delay,
		pending:   make(map[pendingKey]struct{}),
	}
}

// Bind attaches the message service after construction; the two depend
// on each other and the scheduler is built first.
func (s *AutoReplyScheduler) Bind(poster Poster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poster = poster
}

// Schedule requests a generated reply and, on success, injects it as a
// genuine message after the configured delay. Fire-and-forget. A second
// trigger for the same (conversation, recipient) while one is pending
// is dropped; the slot frees once the reply fires or fails.
func (s *AutoReplyScheduler) Schedule(recipient domain.User, conversationID uuid.UUID, lastText string) {
	key := pendingKey{conversationID: conversationID, recipientID: recipient.ID}

	s.mu.Lock()
	if _, exists := s.pending[key]; exists {
		s.mu.Unlock()
		return
	}
	s.pending[key] = struct{}{}
	s.mu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer s.release(key)
		s.run(recipient, conversationID, lastText)
	}()
}

// Wait blocks until every in-flight reply has fired or failed.
func (s *AutoReplyScheduler) Wait() {
	s.inflight.Wait()
}

func (s *AutoReplyScheduler) release(key pendingKey) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}

func (s *AutoReplyScheduler) run(recipient domain.User, conversationID uuid.UUID, lastText string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text, err := s.generator.Generate(ctx, contract.GenerateRequest{
		OnBehalfOf: recipient,
		Mode:       recipient.AutoReply.Mode,
		History:    s.history(conversationID, lastText),
	})
	if err != nil {
		// Recovered locally: the auto-reply is simply dropped.
		s.log.Warn("auto-reply generation failed",
			"user_id", recipient.ID,
			"conversation_id", conversationID,
			"error", errors.ErrGenerationFailed)
		return
	}

	time.Sleep(s.delay)

	s.mu.Lock()
	poster := s.poster
	s.mu.Unlock()
	if poster == nil {
		return
	}

	_, err = poster.Submit(context.Background(), SubmitCommand{
		ConversationID: conversationID,
		SenderID:       recipient.ID,
		Sender:         recipient.Display(),
		Text:           text,
		AutoGenerated:  true,
	})
	if err != nil {
		s.log.Warn("auto-reply injection failed",
			"user_id", recipient.ID,
			"conversation_id", conversationID,
			"error", err)
	}
}

// history builds the generation context from the newest messages of the
// conversation, oldest first. Falls back to the triggering text when
// the store scan fails.
func (s *AutoReplyScheduler) history(conversationID uuid.UUID, lastText string) []contract.HistoryEntry {
	recent, err := s.messages.RecentMessages(conversationID, historyWindow)
	if err != nil || len(recent) == 0 {
		return []contract.HistoryEntry{{SenderName: "User", Text: lastText}}
	}

	names := make(map[string]string)
	entries := make([]contract.HistoryEntry, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		message := recent[i]
		name, ok := names[message.SenderID]
		if !ok {
			name = "User"
			if user, err := s.users.FindUser(message.SenderID); err == nil {
				name = user.Name
			}
			names[message.SenderID] = name
		}
		entries = append(entries, contract.HistoryEntry{SenderName: name, Text: message.Text})
	}
	return entries
}
