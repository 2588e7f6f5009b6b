package cart

import (
	"context"
	"log"
	"sync"

	"github.com/shopspring/decimal"
)

// Listener receives a snapshot of the cart after every change.
type Listener func(items []Item)

// Store is the cart of one session. Lines keep insertion order and there is at most one
// line per product id; a line's quantity is never below 1.
type Store struct {
	mu        sync.Mutex
	session   string
	items     []Item
	persister Persister

	nextSub   int
	listeners map[int]Listener
}

// NewStore returns an empty cart for session persisted through p (nil means in-memory only).
func NewStore(session string, p Persister) *Store {
	if p == nil {
		p = NopPersister{}
	}
	return &Store{
		session:   session,
		persister: p,
		listeners: map[int]Listener{},
	}
}

// Restore replaces the contents with previously persisted items without persisting again.
func (s *Store) Restore(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 || s.indexOf(it.ID) >= 0 {
			continue
		}
		s.items = append(s.items, it)
	}
}

// Add puts one unit of item in the cart. An existing line for the same id is incremented by
// one; item.Quantity is ignored.
func (s *Store) Add(ctx context.Context, item Item) {
	s.mutate(ctx, func() bool {
		if i := s.indexOf(item.ID); i >= 0 {
			s.items[i].Quantity++
			return true
		}
		item.Quantity = 1
		s.items = append(s.items, item)
		return true
	})
}

// Remove deletes the line for id. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mutate(ctx, func() bool {
		return s.removeLocked(id)
	})
}

// SetQuantity replaces the quantity of the line for id; q <= 0 removes the line.
func (s *Store) SetQuantity(ctx context.Context, id string, q int) {
	s.mutate(ctx, func() bool {
		if q <= 0 {
			return s.removeLocked(id)
		}
		i := s.indexOf(id)
		if i < 0 {
			return false
		}
		s.items[i].Quantity = q
		return true
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, func() bool {
		s.items = nil
		return true
	})
}

// Total is the sum of price * quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.items)
}

// Items returns a snapshot of the lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Copy(s.items)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subscribe registers l for change notifications and returns its cancel func.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// mutate applies fn under the lock; when fn reports a change the new state is persisted and
// listeners are notified. Saves happen under the lock so they land in mutation order.
// Persistence failures are logged and the in-memory state is kept.
func (s *Store) mutate(ctx context.Context, fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	snapshot := Copy(s.items)
	if err := s.persister.Save(ctx, s.session, snapshot); err != nil {
		log.Printf("[cart] persist session=%s: %v", s.session, err)
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(Copy(snapshot))
	}
}

func (s *Store) removeLocked(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
