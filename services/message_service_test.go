package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/runtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Received() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

type passthroughCensor struct{}

func (passthroughCensor) Censor(text string) string { return text }

type recordingResponder struct {
	scheduled []string
}

func (r *recordingResponder) Schedule(recipient domain.User, conversationID uuid.UUID, lastText string) {
	r.scheduled = append(r.scheduled, recipient.ID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMessageService_Submit_Fans_Out_To_Every_Connection(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()
	responder := &recordingResponder{}

	service := NewMessageService(testLogger(), registry, conversations, messages, users,
		passthroughCensor{}, responder)

	conversationID := uuid.New()
	conversation := domain.Conversation{
		ID:           conversationID,
		Participants: []string{"alice", "bob"},
	}

	// Given alice on two devices and bob on one
	aliceSink1 := &recordingSink{}
	aliceSink2 := &recordingSink{}
	bobSink := &recordingSink{}
	registry.Register("alice", uuid.New(), aliceSink1)
	registry.Register("alice", uuid.New(), aliceSink2)
	registry.Register("bob", uuid.New(), bobSink)

	conversations.EXPECT().FindConversation(conversationID).Return(conversation, nil)
	messages.EXPECT().CreateMessage(gomock.Any()).Return(nil)
	conversations.EXPECT().SetLastMessage(conversationID, gomock.Any()).Return(nil)

	// When alice sends a message
	sent, err := service.Submit(ctx, SubmitCommand{
		ConversationID: conversationID,
		SenderID:       "alice",
		Sender:         domain.DisplayInfo{UserID: "alice", Name: "Alice"},
		Text:           "hello",
	})

	// Then each connection receives the event exactly once, sender included
	req.NoError(err)
	req.Equal("hello", sent.Text)
	for _, sink := range []*recordingSink{aliceSink1, aliceSink2, bobSink} {
		received := sink.Received()
		req.Len(received, 1)
		delivered, ok := received[0].(event.NewMessage)
		req.True(ok)
		req.Equal(sent.ID, delivered.Message.ID)
		req.Equal("Alice", delivered.Sender.Name)
	}

	// And nothing is scheduled: everyone is online
	req.Empty(responder.scheduled)
}

func TestMessageService_Submit_Rejects_Non_Participant(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()

	service := NewMessageService(testLogger(), registry, conversations, messages, users,
		passthroughCensor{}, &recordingResponder{})

	conversationID := uuid.New()
	conversation := domain.Conversation{ID: conversationID, Participants: []string{"alice", "bob"}}

	aliceSink := &recordingSink{}
	registry.Register("alice", uuid.New(), aliceSink)

	conversations.EXPECT().FindConversation(conversationID).Return(conversation, nil)
	// Nothing may be persisted
	messages.EXPECT().CreateMessage(gomock.Any()).Times(0)

	// When an outsider tries to send
	_, err := service.Submit(ctx, SubmitCommand{
		ConversationID: conversationID,
		SenderID:       "mallory",
		Text:           "hi there",
	})

	// Then the send fails and nobody hears about it
	req.ErrorIs(err, errors.ErrNotAParticipant)
	req.Empty(aliceSink.Received())
}

func TestMessageService_Submit_Schedules_Auto_Reply_For_Offline_Recipient(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()
	responder := &recordingResponder{}

	service := NewMessageService(testLogger(), registry, conversations, messages, users,
		passthroughCensor{}, responder)

	conversationID := uuid.New()
	conversation := domain.Conversation{ID: conversationID, Participants: []string{"alice", "bob"}}

	// Given alice online on two devices and bob offline with auto-reply on
	aliceSink1 := &recordingSink{}
	aliceSink2 := &recordingSink{}
	registry.Register("alice", uuid.New(), aliceSink1)
	registry.Register("alice", uuid.New(), aliceSink2)

	bob := domain.User{
		ID:        "bob",
		Name:      "Bob",
		AutoReply: domain.AutoReplySettings{Enabled: true, Mode: domain.AutoReplyFriendly},
	}

	conversations.EXPECT().FindConversation(conversationID).Return(conversation, nil)
	messages.EXPECT().CreateMessage(gomock.Any()).Return(nil)
	conversations.EXPECT().SetLastMessage(conversationID, gomock.Any()).Return(nil)
	users.EXPECT().FindUser("bob").Return(bob, nil)

	// When alice sends a message
	_, err := service.Submit(ctx, SubmitCommand{
		ConversationID: conversationID,
		SenderID:       "alice",
		Sender:         domain.DisplayInfo{UserID: "alice", Name: "Alice"},
		Text:           "are you there?",
	})

	// Then alice's devices get the message and bob's auto-reply is queued
	req.NoError(err)
	req.Len(aliceSink1.Received(), 1)
	req.Len(aliceSink2.Received(), 1)
	req.Equal([]string{"bob"}, responder.scheduled)
}

func TestMessageService_Submit_Auto_Generated_Never_Triggers_Another_Reply(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()
	responder := &recordingResponder{}

	service := NewMessageService(testLogger(), registry, conversations, messages, users,
		passthroughCensor{}, responder)

	conversationID := uuid.New()
	conversation := domain.Conversation{ID: conversationID, Participants: []string{"alice", "bob"}}

	// Given both participants offline and opted in
	alice := domain.User{ID: "alice", AutoReply: domain.AutoReplySettings{Enabled: true}}

	conversations.EXPECT().FindConversation(conversationID).Return(conversation, nil)
	messages.EXPECT().CreateMessage(gomock.Any()).Return(nil)
	conversations.EXPECT().SetLastMessage(conversationID, gomock.Any()).Return(nil)
	users.EXPECT().FindUser("alice").Return(alice, nil)

	// When a generated reply is injected on bob's behalf
	_, err := service.Submit(ctx, SubmitCommand{
		ConversationID: conversationID,
		SenderID:       "bob",
		Text:           "I am away right now",
		AutoGenerated:  true,
	})

	// Then no counter-reply is scheduled for alice
	req.NoError(err)
	req.Empty(responder.scheduled)
}

func TestMessageService_Edit(t *testing.T) {
	ctrl := gomock.NewController(t)

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()

	service := NewMessageService(testLogger(), registry, conversations, messages, users,
		passthroughCensor{}, &recordingResponder{})

	conversationID := uuid.New()
	messageID := uuid.New()
	stored := domain.Message{
		ID:             messageID,
		ConversationID: conversationID,
		SenderID:       "alice",
		Text:           "helo",
	}

	t.Run("should reject an edit by someone who is not the sender", func(t *testing.T) {
		req := require.New(t)

		messages.EXPECT().FindMessage(messageID).Return(stored, nil)
		conversations.EXPECT().IsParticipant(conversationID, "bob").Return(true, nil)
		messages.EXPECT().UpdateMessage(gomock.Any(), gomock.Any()).Times(0)

		_, err := service.Edit(context.Background(), messageID, "bob", "hijacked")

		req.ErrorIs(err, errors.ErrNotAuthorized)
	})

	t.Run("should apply the edit and broadcast the updated state", func(t *testing.T) {
		req := require.New(t)

		aliceSink := &recordingSink{}
		registry.Register("alice", uuid.New(), aliceSink)

		conversation := domain.Conversation{ID: conversationID, Participants: []string{"alice", "bob"}}
		edited := stored
		edited.Text = "hello"
		edited.Edited = true

		messages.EXPECT().FindMessage(messageID).Return(stored, nil)
		conversations.EXPECT().IsParticipant(conversationID, "alice").Return(true, nil)
		messages.EXPECT().UpdateMessage(messageID, gomock.Any()).Return(edited, nil)
		conversations.EXPECT().FindConversation(conversationID).Return(conversation, nil)
		users.EXPECT().FindUser("alice").Return(domain.User{ID: "alice", Name: "Alice"}, nil)

		updated, err := service.Edit(context.Background(), messageID, "alice", "hello")

		req.NoError(err)
		req.Equal("hello", updated.Text)
		req.True(updated.Edited)

		received := aliceSink.Received()
		req.Len(received, 1)
		broadcast, ok := received[0].(event.MessageUpdated)
		req.True(ok)
		req.Equal("hello", broadcast.Message.Text)
	})

	t.Run("should reject an edit by a former participant", func(t *testing.T) {
		req := require.New(t)

		messages.EXPECT().FindMessage(messageID).Return(stored, nil)
		conversations.EXPECT().IsParticipant(conversationID, "alice").Return(false, nil)
		messages.EXPECT().UpdateMessage(gomock.Any(), gomock.Any()).Times(0)

		_, err := service.Edit(context.Background(), messageID, "alice", "hello")

		req.ErrorIs(err, errors.ErrNotAParticipant)
	})
}

func TestMessageService_DeleteForEveryone_Broadcasts_Removal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()

	service := NewMessageService(testLogger(), registry, conversations, messages, users,
		passthroughCensor{}, &recordingResponder{})

	conversationID := uuid.New()
	messageID := uuid.New()
	conversation := domain.Conversation{ID: conversationID, Participants: []string{"alice", "bob"}}
	stored := domain.Message{ID: messageID, ConversationID: conversationID, SenderID: "alice", Text: "oops"}
	blanked := stored
	blanked.Text = ""
	blanked.DeletedForEveryone = true

	bobSink := &recordingSink{}
	registry.Register("bob", uuid.New(), bobSink)

	messages.EXPECT().FindMessage(messageID).Return(stored, nil)
	conversations.EXPECT().IsParticipant(conversationID, "alice").Return(true, nil)
	messages.EXPECT().UpdateMessage(messageID, gomock.Any()).Return(blanked, nil)
	conversations.EXPECT().FindConversation(conversationID).Return(conversation, nil)

	err := service.DeleteForEveryone(context.Background(), messageID, "alice")

	req.NoError(err)
	received := bobSink.Received()
	req.Len(received, 1)
	removal, ok := received[0].(event.MessageRemoved)
	req.True(ok)
	req.Equal(messageID, removal.MessageID)
	req.Equal(conversationID, removal.ConversationID)
}

func TestMessageService_DeleteForMe_Never_Broadcasts(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()

	service := NewMessageService(testLogger(), registry, conversations, messages, users,
		passthroughCensor{}, &recordingResponder{})

	conversationID := uuid.New()
	messageID := uuid.New()
	stored := domain.Message{ID: messageID, ConversationID: conversationID, SenderID: "alice"}

	bobSink := &recordingSink{}
	registry.Register("bob", uuid.New(), bobSink)

	messages.EXPECT().FindMessage(messageID).Return(stored, nil)
	conversations.EXPECT().IsParticipant(conversationID, "bob").Return(true, nil)
	messages.EXPECT().UpdateMessage(messageID, gomock.Any()).Return(stored, nil)

	err := service.DeleteForMe(messageID, "bob")

	req.NoError(err)
	req.Empty(bobSink.Received())
}

func TestMessageService_Typing_Excludes_The_Typist(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()

	service := NewMessageService(testLogger(), registry, conversations, messages, users,
		passthroughCensor{}, &recordingResponder{})

	conversationID := uuid.New()
	conversation := domain.Conversation{ID: conversationID, Participants: []string{"alice", "bob"}}

	aliceSink := &recordingSink{}
	bobSink := &recordingSink{}
	registry.Register("alice", uuid.New(), aliceSink)
	registry.Register("bob", uuid.New(), bobSink)

	conversations.EXPECT().FindConversation(conversationID).Return(conversation, nil).Times(2)

	// When alice starts then stops typing
	req.NoError(service.TypingStarted(ctx, conversationID, domain.DisplayInfo{UserID: "alice", Name: "Alice"}))
	req.NoError(service.TypingStopped(ctx, conversationID, "alice"))

	// Then bob sees both indicators and alice sees none of her own
	req.Empty(aliceSink.Received())
	received := bobSink.Received()
	req.Len(received, 2)
	req.Equal(event.KindUserTyping, received[0].Kind())
	req.Equal(event.KindUserStopTyping, received[1].Kind())
}

func TestMessageService_React_Requires_Membership(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()

	service := NewMessageService(testLogger(), registry, conversations, messages, users,
		passthroughCensor{}, &recordingResponder{})

	conversationID := uuid.New()
	messageID := uuid.New()
	stored := domain.Message{ID: messageID, ConversationID: conversationID, SenderID: "alice"}

	messages.EXPECT().FindMessage(messageID).Return(stored, nil)
	conversations.EXPECT().IsParticipant(conversationID, "mallory").Return(false, nil)
	messages.EXPECT().UpdateMessage(gomock.Any(), gomock.Any()).Times(0)

	_, err := service.React(context.Background(), messageID, "mallory", "👍")

	req.ErrorIs(err, errors.ErrNotAParticipant)
}

// Submit with a slow last-message pointer update must still deliver.
func TestMessageService_Submit_Survives_Last_Message_Pointer_Failure(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()

	service := NewMessageService(testLogger(), registry, conversations, messages, users,
		passthroughCensor{}, &recordingResponder{})

	conversationID := uuid.New()
	conversation := domain.Conversation{ID: conversationID, Participants: []string{"alice"}}

	aliceSink := &recordingSink{}
	registry.Register("alice", uuid.New(), aliceSink)

	conversations.EXPECT().FindConversation(conversationID).Return(conversation, nil)
	messages.EXPECT().CreateMessage(gomock.Any()).Return(nil)
	conversations.EXPECT().SetLastMessage(conversationID, gomock.Any()).
		Return(errors.ErrNotFound)

	_, err := service.Submit(ctx, SubmitCommand{
		ConversationID: conversationID,
		SenderID:       "alice",
		Text:           "note to self",
	})

	req.NoError(err)
	req.Len(aliceSink.Received(), 1)
}
