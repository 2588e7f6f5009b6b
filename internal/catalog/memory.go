package catalog

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Store kept in process memory, used when no MongoDB is configured.
type MemoryStore struct {
	mu       sync.Mutex
	products []Product
}

func NewMemoryStore(products ...Product) *MemoryStore {
	return &MemoryStore{products: append([]Product(nil), products...)}
}

func (m *MemoryStore) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for _, id := range ids {
		if m.indexOf(id) >= 0 {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *MemoryStore) InsertMany(ctx context.Context, products []Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var dup []string
	for _, p := range products {
		if m.indexOf(p.ID) >= 0 {
			dup = append(dup, p.ID)
		}
	}
	if len(dup) > 0 {
		return &DuplicateError{IDs: dup}
	}
	now := time.Now().UTC()
	for i := range products {
		products[i].CreatedAt = now
		products[i].UpdatedAt = now
	}
	m.products = append(m.products, products...)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Product{}, m.products...), nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		p := m.products[i]
		return &p, nil
	}
	return nil, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, u ProductUpdate) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	m.products[i] = u.Apply(m.products[i])
	m.products[i].UpdatedAt = time.Now().UTC()
	p := m.products[i]
	return &p, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}
	m.products = append(m.products[:i], m.products[i+1:]...)
	return true, nil
}

func (m *MemoryStore) indexOf(id string) int {
	for i, p := range m.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
