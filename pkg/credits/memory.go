package credits

import (
	"context"
	"sync"
)

// MemoryStore is an in-process credit counter for development and tests.
// The mutex makes Debit's check-and-decrement atomic per process; use
// RedisStore when more than one instance serves traffic.
type MemoryStore struct {
	mu       sync.Mutex
	balances map[string]int
}

// NewMemoryStore creates an empty in-memory credit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[string]int),
	}
}

// Debit implements Store.
func (s *MemoryStore) Debit(ctx context.Context, subject string, cost int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balances[subject]
	if balance < cost {
		return 0, &InsufficientError{Required: cost, Remaining: balance}
	}
	balance -= cost
	s.balances[subject] = balance
	return balance, nil
}

// Balance implements Store.
func (s *MemoryStore) Balance(ctx context.Context, subject string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[subject], nil
}

// Grant implements Store.
func (s *MemoryStore) Grant(ctx context.Context, subject string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[subject] += amount
	return s.balances[subject], nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, subject string, balance int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[subject] = balance
	return nil
}
