package otp

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// ==============================================
// IN-MEMORY FALLBACK STORE
// ==============================================

// MemoryStore is the process-local fallback used when Redis is unreachable.
// Nothing reclaims its entries on a timer, so every Exists and Consume sweeps
// expired records first. The mutex is held across the whole compare/delete
// sequence, which gives the same consume-once guarantee the Redis transaction
// does.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record

	now func() time.Time // swapped in tests
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, key string, rec *Record, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records[key] = &cp
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	_, ok := s.records[key]
	return ok, nil
}

func (s *MemoryStore) Consume(_ context.Context, key, hashedCode string, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	rec, ok := s.records[key]
	if !ok {
		return ErrNotFoundOrExpired
	}

	if s.now().After(rec.ExpiresAt) {
		delete(s.records, key)
		return ErrNotFoundOrExpired
	}

	// Exhaustion check precedes the comparison.
	if rec.Attempts >= maxAttempts {
		delete(s.records, key)
		return ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(rec.HashedCode), []byte(hashedCode)) != 1 {
		rec.Attempts++
		if rec.Attempts >= maxAttempts {
			return ErrTooManyAttempts
		}
		return ErrInvalidCode
	}

	delete(s.records, key)
	return nil
}

// sweepLocked removes entries past their deadline. Caller holds s.mu.
func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for key, rec := range s.records {
		if now.After(rec.ExpiresAt) {
			delete(s.records, key)
		}
	}
}
