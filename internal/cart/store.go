package cart

import (
	"context"
	"sync"

	"github.com/massaviva/massaviva-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// Persister is the durable local storage behind the store. Persistence is
// best effort: a failed save leaves the in-memory state authoritative for
// the rest of the session.
type Persister interface {
	Load(ctx context.Context) ([]LineItem, error)
	Save(ctx context.Context, items []LineItem) error
}

// Store holds the authoritative in-session cart state. Mutations apply
// synchronously, persist best-effort and notify subscribers; none of them
// can fail from the caller's perspective.
type Store struct {
	mu     sync.Mutex
	items  []LineItem
	subs   map[int]func([]LineItem)
	nextID int

	persist Persister
	logg    *logger.Logger
}

// NewStore builds a cart store and restores any previously persisted state.
// A load failure starts the session with an empty cart.
func NewStore(ctx context.Context, persist Persister, logg *logger.Logger) *Store {
	s := &Store{
		subs:    map[int]func([]LineItem){},
		persist: persist,
		logg:    logg,
	}
	if persist != nil {
		items, err := persist.Load(ctx)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "cart: restore failed, starting empty", err)
			}
		} else {
			s.items = items
		}
	}
	return s
}

// AddItem appends the item, or increments the quantity of the line sharing
// its composite identity. Quantities below one are raised to one.
func (s *Store) AddItem(item LineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	merged := false
	for n := range s.items {
		if s.items[n].ID == item.ID {
			s.items[n].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}
	s.afterMutationLocked()
}

// RemoveItem drops the line with the given id; absent lines are a no-op.
func (s *Store) RemoveItem(lineID string) {
	s.mu.Lock()
	for n := range s.items {
		if s.items[n].ID == lineID {
			s.items = append(s.items[:n], s.items[n+1:]...)
			break
		}
	}
	s.afterMutationLocked()
}

// UpdateQuantity sets the line's quantity, clamped to a minimum of one.
// Removal goes through RemoveItem only; absent lines are a no-op.
func (s *Store) UpdateQuantity(lineID string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	for n := range s.items {
		if s.items[n].ID == lineID {
			s.items[n].Quantity = quantity
			break
		}
	}
	s.afterMutationLocked()
}

// Clear empties the cart unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.afterMutationLocked()
}

// SetItems replaces the whole line list. Used by the synchronizer when a
// remote snapshot wins; it bypasses the merge-by-identity rule of AddItem.
func (s *Store) SetItems(items []LineItem) {
	s.mu.Lock()
	s.items = CloneItems(items)
	s.afterMutationLocked()
}

// Items returns a copy of the current line list.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CloneItems(s.items)
}

// Total recomputes the cart total from the current lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.items)
}

// Subscribe registers fn to run after every line-list change. The returned
// cancel detaches it.
func (s *Store) Subscribe(fn func(items []LineItem)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// afterMutationLocked persists and notifies. It releases the mutex so
// subscribers observe a settled store and may call back into it.
func (s *Store) afterMutationLocked() {
	snapshot := CloneItems(s.items)
	fns := make([]func([]LineItem), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Save(context.Background(), snapshot); err != nil && s.logg != nil {
			s.logg.Error(context.Background(), "cart: persist failed, in-memory state kept", err)
		}
	}
	for _, fn := range fns {
		fn(CloneItems(snapshot))
	}
}
