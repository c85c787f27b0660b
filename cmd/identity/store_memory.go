package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is the fallback Store when no database is configured.
// Every read-modify-write runs under one lock so concurrent updates and deletes
// never act on a stale index.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	users  []User // ordered by ID
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		users:  make([]User, 0, 64),
	}
}

// Close closes the store (noop for in-memory).
func (s *MemoryStore) Close() error { return nil }

// List returns a snapshot of all users ordered by ID.
func (s *MemoryStore) List(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]User(nil), s.users...), nil
}

// FindByID returns the user with the given ID.
func (s *MemoryStore) FindByID(ctx context.Context, id int64) (User, error) {
	const op = "identity.FindByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return User{}, notFoundUser(op)
	}
	return s.users[i], nil
}

// FindByEmail returns the first user (lowest ID) whose normalized email matches.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.FindByEmail"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return User{}, notFoundUser(op)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if NormalizeEmail(u.Email) == norm {
			return u, nil
		}
	}
	return User{}, notFoundUser(op)
}

// Insert appends a new user with the next sequential ID.
func (s *MemoryStore) Insert(ctx context.Context, in InsertUserInput) (User, error) {
	const op = "identity.Insert"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, invalid(op, "password hash is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := User{
		ID:           s.nextID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.nextID++
	s.users = append(s.users, u)

	return u, nil
}

// Update applies patch to the user with the given ID and returns the result.
func (s *MemoryStore) Update(ctx context.Context, id int64, patch UserPatch) (User, error) {
	const op = "identity.Update"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if patch.PasswordHash != nil && strings.TrimSpace(*patch.PasswordHash) == "" {
		return User{}, invalid(op, "password hash must not be empty")
	}

	now := patch.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return User{}, notFoundUser(op)
	}

	u := s.users[i]
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	if !patch.Empty() {
		u.UpdatedAt = now
	}
	s.users[i] = u

	return u, nil
}

// Delete removes the user with the given ID.
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	const op = "identity.Delete"

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return notFoundUser(op)
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	return nil
}

// indexOf must be called with s.mu held.
func (s *MemoryStore) indexOf(id int64) int {
	i := sort.Search(len(s.users), func(i int) bool { return s.users[i].ID >= id })
	if i < len(s.users) && s.users[i].ID == id {
		return i
	}
	return -1
}
