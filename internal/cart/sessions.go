package cart

import (
	"context"
	"log"
	"sync"
)

// Sessions hands out one Store per session id. Stores are created lazily and restored from
// the persister on first use.
type Sessions struct {
	mu        sync.Mutex
	persister Persister
	stores    map[string]*Store
}

func NewSessions(p Persister) *Sessions {
	if p == nil {
		p = NopPersister{}
	}
	return &Sessions{persister: p, stores: map[string]*Store{}}
}

// Get returns the cart for session. A failed restore is logged and the cart starts empty.
func (s *Sessions) Get(ctx context.Context, session string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[session]; ok {
		return st
	}

	st := NewStore(session, s.persister)
	items, err := s.persister.Load(ctx, session)
	if err != nil {
		log.Printf("[cart] restore session=%s: %v", session, err)
	} else if len(items) > 0 {
		st.Restore(items)
	}
	s.stores[session] = st
	return st
}
