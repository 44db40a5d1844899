package repositories

import (
	"chat-relay/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type MessageRepository struct {
	store *Store
}

func NewMessageRepository(store *Store) MessageRepository {
	return MessageRepository{store: store}
}

// CreateMessage persists the record and its chronological index entry in
// one transaction.
func (r MessageRepository) CreateMessage(message domain.Message) error {
	bytes, err := encode(message)
	if err != nil {
		return err
	}
	return r.store.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(message.ID), bytes); err != nil {
			return err
		}
		index := messageIndexKey(message.ConversationID, message.CreatedAt.UnixNano(), message.ID)
		return txn.Set(index, message.ID[:])
	})
}

func (r MessageRepository) FindMessage(id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := r.store.get(messageKey(id), &message)
	return message, err
}

// UpdateMessage applies mutate under the message's record lock so two
// concurrent reactions or edits cannot clobber each other, and returns
// the persisted state.
func (r MessageRepository) UpdateMessage(id uuid.UUID, mutate func(*domain.Message)) (domain.Message, error) {
	var message domain.Message
	err := r.store.mutate(messageKey(id), &message, func() error {
		mutate(&message)
		return nil
	})
	return message, err
}

// RecentMessages returns up to limit messages of a conversation, newest
// first, via a reverse prefix scan over the chronological index.
func (r MessageRepository) RecentMessages(conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	var ids []uuid.UUID
	err := r.store.db.View(func(txn *badger.Txn) error {
		prefix := messageIndexPrefix(conversationID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration starts past the newest key of the prefix.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(ids) < limit; it.Next() {
			err := it.Item().Value(func(value []byte) error {
				id, err := uuid.FromBytes(value)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		message, err := r.FindMessage(id)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
