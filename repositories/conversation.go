package repositories

import (
	"chat-relay/domain"

	"github.com/google/uuid"
)

type ConversationRepository struct {
	store *Store
}

func NewConversationRepository(store *Store) ConversationRepository {
	return ConversationRepository{store: store}
}

func (r ConversationRepository) FindConversation(id uuid.UUID) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.store.get(conversationKey(id), &conversation)
	return conversation, err
}

// IsParticipant answers the membership oracle query. Always reads the
// current record: membership may have changed since the last event.
func (r ConversationRepository) IsParticipant(conversationID uuid.UUID, userID string) (bool, error) {
	conversation, err := r.FindConversation(conversationID)
	if err != nil {
		return false, err
	}
	return conversation.HasParticipant(userID), nil
}

func (r ConversationRepository) SetLastMessage(conversationID, messageID uuid.UUID) error {
	var conversation domain.Conversation
	return r.store.mutate(conversationKey(conversationID), &conversation, func() error {
		conversation.LastMessageID = &messageID
		return nil
	})
}

// SaveConversation exists for provisioning and tests; membership
// management is outside the relay.
func (r ConversationRepository) SaveConversation(conversation domain.Conversation) error {
	return r.store.put(conversationKey(conversation.ID), conversation)
}
