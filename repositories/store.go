package repositories

import (
	"encoding/json"
	"fmt"

	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
)

// Store groups the Badger handle and the per-record lock table shared by
// the typed repositories.
type Store struct {
	db    *badger.DB
	locks recordLocks
}

func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

func encode(record any) ([]byte, error) {
	return json.Marshal(record)
}

func (s *Store) put(key []byte, record any) error {
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, bytes)
	})
}

func (s *Store) get(key []byte, record any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, key)
	}
	return err
}

// mutate runs a read-modify-write cycle on one record under its stripe
// lock. An error from apply aborts the cycle before anything is written.
func (s *Store) mutate(key []byte, record any, apply func() error) error {
	defer s.locks.lock(key).Unlock()

	if err := s.get(key, record); err != nil {
		return err
	}
	if err := apply(); err != nil {
		return err
	}
	return s.put(key, record)
}
