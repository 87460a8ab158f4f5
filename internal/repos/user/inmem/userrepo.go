// Package inmem provides a user repository that works from memory.
// It stands in for the external identity store - the calendar core only ever reads from it.
package inmem

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/evercal/evercal/internal/models"
)

// UserRepo provides a simple in-memory user storage
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// New creates a new user repository instance
func New() *UserRepo {
	return &UserRepo{
		users: make(map[string]models.User),
	}
}

// Create registers a new user. Users without an ID get a fresh opaque one assigned
func (r *UserRepo) Create(u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	} else if _, ok := r.users[u.ID]; ok {
		return fmt.Errorf("Create: A user with the given ID does already exist")
	}
	r.users[u.ID] = *u
	return nil
}

// GetByID returns the user with the given ID or nil if no such user exists
func (r *UserRepo) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		// Copy the user
		ret := u
		return &ret, nil
	}
	return nil, nil
}

// GetByCredentials returns the user which has the given username and password - this is used for login
func (r *UserRepo) GetByCredentials(username string, password string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Name == username && u.CheckPassword(password) == nil {
			ret := u // copy
			return &ret, nil
		}
	}
	return nil, nil
}
