package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/clock"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/idempotency"
)

// Store is an in-memory implementation of idempotency.Store.
// It is safe for concurrent use. Records older than the TTL are treated as absent
// and pruned on write.
type Store struct {
	mu  sync.RWMutex
	m   map[idempotency.Fingerprint]idempotency.Record
	ttl time.Duration
	clk clock.Clock
}

// NewStore returns a store that never expires records.
func NewStore() *Store {
	return NewStoreWithTTL(0, nil)
}

// NewStoreWithTTL returns a store whose records expire ttl after CreatedAt.
// ttl <= 0 disables expiry.
func NewStoreWithTTL(ttl time.Duration, clk clock.Clock) *Store {
	if clk == nil {
		clk = utcClock{}
	}
	return &Store{
		m:   make(map[idempotency.Fingerprint]idempotency.Record),
		ttl: ttl,
		clk: clk,
	}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.m[fp]
	if !ok || s.expired(rec, s.clk.Now()) {
		return idempotency.Record{}, false, nil
	}
	rec.Body = append([]byte(nil), rec.Body...)
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	rec.Body = append([]byte(nil), rec.Body...)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clk.Now()
	for k, v := range s.m {
		if s.expired(v, now) {
			delete(s.m, k)
		}
	}
	s.m[fp] = rec
	return nil
}

func (s *Store) expired(rec idempotency.Record, now time.Time) bool {
	return s.ttl > 0 && now.Sub(rec.CreatedAt) >= s.ttl
}

type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC() }
