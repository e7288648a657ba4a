// internal/domain/cart/store.go
package cart

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Mirror propagates local cart mutations to the authoritative backing store:
// the device key-value store while anonymous, the remote cart service once
// authenticated.
//
// Upsert always carries the absolute resulting quantity, never a delta, so
// mirror calls are idempotent and commutative: retries and out-of-order
// completion cannot corrupt the backing store.
type Mirror interface {
	Upsert(ctx context.Context, line Line) error
	Remove(ctx context.Context, key LineKey) error
	Clear(ctx context.Context) error
}

// Store is an ordered collection of cart lines keyed by (product, variant).
//
// Mutations apply to in-memory state synchronously and are the presented
// truth; the mirror side effect is fired asynchronously and its failures are
// logged, not rolled back. Callers must not assume the mirror has completed
// when a mutation returns.
type Store struct {
	mu     sync.Mutex
	lines  []Line
	mirror Mirror
	logger *logrus.Logger
}

// NewStore creates a cart store seeded with the given lines
func NewStore(lines []Line, mirror Mirror, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		lines:  append([]Line(nil), lines...),
		mirror: mirror,
		logger: logger,
	}
}

// Add merges a line into the cart. A line with the same key has its quantity
// incremented; otherwise the line is appended.
func (s *Store) Add(ctx context.Context, line Line) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	s.mu.Lock()
	s.lines = MergeLine(s.lines, line)
	resulting := s.lineByKey(line.Key())
	s.mu.Unlock()

	s.mirrorUpsert(ctx, resulting)
}

// SetQuantity replaces the quantity of the line with the given key.
// A quantity below 1 removes the line.
func (s *Store) SetQuantity(ctx context.Context, key LineKey, quantity int) {
	if quantity < 1 {
		s.Remove(ctx, key)
		return
	}

	s.mu.Lock()
	var resulting Line
	found := false
	for i := range s.lines {
		if s.lines[i].Key() == key {
			s.lines[i].Quantity = quantity
			resulting = s.lines[i]
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.mirrorUpsert(ctx, resulting)
	}
}

// Remove deletes the line with the matching key. Removing an absent key is a
// no-op, not an error.
func (s *Store) Remove(ctx context.Context, key LineKey) {
	s.mu.Lock()
	found := false
	for i := range s.lines {
		if s.lines[i].Key() == key {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found && s.mirror != nil {
		go func() {
			if err := s.mirror.Remove(ctx, key); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"product_id": key.ProductID,
					"variant_id": key.VariantID,
				}).Warn("cart mirror remove failed")
			}
		}()
	}
}

// Clear removes all lines
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()

	if s.mirror != nil {
		go func() {
			if err := s.mirror.Clear(ctx); err != nil {
				s.logger.WithError(err).Warn("cart mirror clear failed")
			}
		}()
	}
}

// Replace swaps the whole line list, without mirroring. Used when adopting an
// authoritative cart returned by the remote service.
func (s *Store) Replace(lines []Line) {
	s.mu.Lock()
	s.lines = append([]Line(nil), lines...)
	s.mu.Unlock()
}

// Items returns a copy of the lines in insertion order
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

// TotalItems returns the sum of all line quantities
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// TotalAmount returns the sum of captured unit price times quantity
func (s *Store) TotalAmount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, line := range s.lines {
		total += line.Price * int64(line.Quantity)
	}
	return total
}

// Len returns the number of unique lines
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// lineByKey must be called with the mutex held
func (s *Store) lineByKey(key LineKey) Line {
	for i := range s.lines {
		if s.lines[i].Key() == key {
			return s.lines[i]
		}
	}
	return Line{}
}

func (s *Store) mirrorUpsert(ctx context.Context, line Line) {
	if s.mirror == nil {
		return
	}
	go func() {
		if err := s.mirror.Upsert(ctx, line); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"product_id": line.ProductID,
				"quantity":   line.Quantity,
			}).Warn("cart mirror upsert failed")
		}
	}()
}
