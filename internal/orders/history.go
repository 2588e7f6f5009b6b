package orders

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/imrishuroy/go-storefront/internal/cart"
)

// Listener receives the order after it was created or its status changed.
type Listener func(o Order)

// History is the order list of one session plus its current order.
type History struct {
	mu        sync.Mutex
	orders    []Order
	currentID string
	nowFunc   func() time.Time
	newID     func() string

	nextSub   int
	listeners map[int]Listener
}

func NewHistory() *History {
	return &History{
		nowFunc:   time.Now,
		newID:     newOrderID,
		listeners: map[int]Listener{},
	}
}

// newOrderID returns a time-ordered UUIDv7.
func newOrderID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Create snapshots items into a new Placed order, appends it and makes it current. Later
// changes to the caller's slice do not reach the order.
func (h *History) Create(items []cart.Item, customer CustomerDetails) Order {
	h.mu.Lock()
	o := Order{
		ID:        h.newID(),
		Items:     cart.Copy(items),
		Customer:  customer.clone(),
		Status:    StatusPlaced,
		CreatedAt: h.nowFunc().UTC(),
	}
	h.orders = append(h.orders, o)
	h.currentID = o.ID
	listeners := h.listenersLocked()
	h.mu.Unlock()

	notify(listeners, o)
	return o.clone()
}

// UpdateStatus sets the status of order id to any value; transitions are not checked.
// It reports false, changing nothing, when id is unknown.
func (h *History) UpdateStatus(id string, status Status) bool {
	h.mu.Lock()
	i := h.indexOf(id)
	if i < 0 {
		h.mu.Unlock()
		return false
	}
	h.orders[i].Status = status
	o := h.orders[i].clone()
	listeners := h.listenersLocked()
	h.mu.Unlock()

	notify(listeners, o)
	return true
}

// Get looks an order up by id.
func (h *History) Get(id string) (Order, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i := h.indexOf(id); i >= 0 {
		return h.orders[i].clone(), true
	}
	return Order{}, false
}

// Current returns the most recently created order.
func (h *History) Current() (Order, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i := h.indexOf(h.currentID); i >= 0 {
		return h.orders[i].clone(), true
	}
	return Order{}, false
}

// All returns every order in creation order.
func (h *History) All() []Order {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Order, len(h.orders))
	for i, o := range h.orders {
		out[i] = o.clone()
	}
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.orders)
}

func (h *History) Subscribe(l Listener) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.listeners[id] = l
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

func (h *History) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range h.orders {
		if h.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (h *History) listenersLocked() []Listener {
	out := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, o Order) {
	for _, l := range listeners {
		l(o.clone())
	}
}

// Histories hands out one History per session.
type Histories struct {
	mu     sync.Mutex
	byUser map[string]*History
}

func NewHistories() *Histories {
	return &Histories{byUser: map[string]*History{}}
}

func (hs *Histories) Get(session string) *History {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	h, ok := hs.byUser[session]
	if !ok {
		h = NewHistory()
		hs.byUser[session] = h
	}
	return h
}
