// Package cart implements the storefront cart as an explicit state
// container: a fixed action set mutates the items and registered
// observers are notified after every mutation. Checkout consumes the
// store read-only; only the cart actions below may write it.
package cart

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Akashkilledar/trendy-footwear/internal/domain"
)

var (
	// ErrInvalidItem indicates an add with a missing id or non-positive quantity.
	ErrInvalidItem = errors.New("cart: invalid item")
	// ErrItemNotFound indicates the referenced item is not in the cart.
	ErrItemNotFound = errors.New("cart: item not found")
	// ErrInvalidQuantity indicates a quantity update below one.
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
)

// Snapshot is an immutable view of the cart handed to observers and
// read-only consumers.
type Snapshot struct {
	Items    []domain.CartItem
	Subtotal decimal.Decimal
}

// Observer receives a snapshot after every cart mutation.
type Observer func(Snapshot)

// Store holds the selected items for one visitor session.
type Store struct {
	mu        sync.Mutex
	items     map[string]domain.CartItem
	observers map[int]Observer
	nextSub   int
}

// NewStore returns an empty cart store.
func NewStore() *Store {
	return &Store{
		items:     make(map[string]domain.CartItem),
		observers: make(map[int]Observer),
	}
}

// Add puts an item into the cart, merging quantity with any existing
// entry for the same product id.
func (s *Store) Add(item domain.CartItem) error {
	if strings.TrimSpace(item.ID) == "" || item.Quantity < 1 {
		return ErrInvalidItem
	}

	s.mu.Lock()
	if existing, ok := s.items[item.ID]; ok {
		existing.Quantity += item.Quantity
		s.items[item.ID] = existing
	} else {
		s.items[item.ID] = item
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// UpdateQuantity sets the quantity for an existing item.
func (s *Store) UpdateQuantity(id string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	item.Quantity = quantity
	s.items[id] = item
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// Remove deletes an item from the cart.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	delete(s.items, id)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// Clear removes every item.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = make(map[string]domain.CartItem)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// Items returns the cart contents ordered by product id.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

// Subtotal returns Σ quantity × price across the cart.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

// View returns a consistent snapshot of items and subtotal.
func (s *Store) View() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers an observer and returns its unsubscribe func.
func (s *Store) Subscribe(observer Observer) func() {
	if observer == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.observers[id] = observer
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(snapshot Snapshot) {
	s.mu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, observer := range s.observers {
		observers = append(observers, observer)
	}
	s.mu.Unlock()

	for _, observer := range observers {
		observer(snapshot)
	}
}

func (s *Store) itemsLocked() []domain.CartItem {
	items := make([]domain.CartItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (s *Store) subtotalLocked() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range s.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:    s.itemsLocked(),
		Subtotal: s.subtotalLocked(),
	}
}

// Registry hands out one store per visitor session.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// For returns the store for the given session id, creating it on first use.
func (r *Registry) For(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[sessionID]
	if !ok {
		store = NewStore()
		r.stores[sessionID] = store
	}
	return store
}
