package users

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Store kept in process memory, used when no MongoDB is configured.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: map[string]User{}}
}

func (m *MemoryStore) Create(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (*User, error) {
	return m.find(func(u User) bool { return u.ID == id })
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return m.find(func(u User) bool { return u.Email == email })
}

func (m *MemoryStore) FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	return m.find(func(u User) bool { return u.Email == email || u.Username == username })
}

func (m *MemoryStore) FindByRefreshToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	return m.find(func(u User) bool { return u.RefreshToken == token })
}

func (m *MemoryStore) SetRefreshToken(ctx context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = token
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

func (m *MemoryStore) find(match func(User) bool) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}
