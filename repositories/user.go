package repositories

import (
	"chat-relay/domain"
)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) UserRepository {
	return UserRepository{store: store}
}

func (r UserRepository) FindUser(userID string) (domain.User, error) {
	var user domain.User
	err := r.store.get(userKey(userID), &user)
	return user, err
}

// SaveUser exists for provisioning and tests; profile management is
// outside the relay.
func (r UserRepository) SaveUser(user domain.User) error {
	return r.store.put(userKey(user.ID), user)
}
