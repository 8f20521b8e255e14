package user

import (
	"sync"

	"github.com/google/uuid"
)

// User is an opaque profile. The matching core never examines it beyond the
// owning id carried on orders.
type User struct {
	ID    string
	Name  string
	Phone string
	Email string
}

// Registry is the in-memory user store, safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*User)}
}

// Register stores a new profile under a generated id. It never fails.
func (r *Registry) Register(name, phone, email string) string {
	u := &User{
		ID:    uuid.NewString(),
		Name:  name,
		Phone: phone,
		Email: email,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return u.ID
}

// Get retrieves a profile by id.
func (r *Registry) Get(id string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	return u, ok
}

// Exists reports whether a user id is registered.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[id]
	return ok
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
