package repositories

import (
	"fmt"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type CallRepository struct {
	store *Store
}

func NewCallRepository(store *Store) CallRepository {
	return CallRepository{store: store}
}

// CreateCall persists the session and its ringing-pair pointer in one
// transaction. Sessions are always created ringing.
func (r CallRepository) CreateCall(call domain.CallSession) error {
	bytes, err := encode(call)
	if err != nil {
		return err
	}
	return r.store.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(callKey(call.ID), bytes); err != nil {
			return err
		}
		return txn.Set(ringingKey(call.CallerID, call.RecipientID), call.ID[:])
	})
}

func (r CallRepository) FindCall(id uuid.UUID) (domain.CallSession, error) {
	var call domain.CallSession
	err := r.store.get(callKey(id), &call)
	return call, err
}

// FindRingingCall resolves the session currently ringing between a
// caller and recipient through the pair pointer.
func (r CallRepository) FindRingingCall(callerID, recipientID string) (domain.CallSession, error) {
	var id uuid.UUID
	err := r.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ringingKey(callerID, recipientID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			parsed, err := uuid.FromBytes(value)
			if err != nil {
				return err
			}
			id = parsed
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.CallSession{}, fmt.Errorf("%w: no ringing call %s -> %s",
			errors.ErrNotFound, callerID, recipientID)
	}
	if err != nil {
		return domain.CallSession{}, err
	}
	return r.FindCall(id)
}

// TransitionCall moves a session to the target status under the record
// lock. Illegal lifecycle steps are rejected before anything is written:
// a session never revisits ringing and never hops between terminal
// states. Start and end timestamps are stamped by the transition itself,
// and leaving ringing clears the pair pointer.
func (r CallRepository) TransitionCall(id uuid.UUID, to domain.CallStatus,
	reason domain.EndReason) (domain.CallSession, error) {
	var call domain.CallSession
	var fromRinging bool
	err := r.store.mutate(callKey(id), &call, func() error {
		if !call.CanTransition(to) {
			return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidCallTransition, call.Status, to)
		}
		fromRinging = call.Status == domain.CallRinging
		now := time.Now().UTC()
		call.Status = to
		switch to {
		case domain.CallConnected:
			call.StartedAt = &now
		case domain.CallEnded, domain.CallMissed, domain.CallRejected, domain.CallCancelled:
			call.EndedAt = &now
			call.EndReason = reason
		}
		return nil
	})
	if err != nil {
		return domain.CallSession{}, err
	}
	if fromRinging {
		err = r.store.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(ringingKey(call.CallerID, call.RecipientID))
		})
		if err != nil {
			return domain.CallSession{}, err
		}
	}
	return call, nil
}
