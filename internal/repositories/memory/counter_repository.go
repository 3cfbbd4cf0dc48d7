package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// CounterRepository issues sequential values guarded by a mutex.
type CounterRepository struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewCounterRepository constructs a counter repository with the given seeds.
// The first Next call for a seeded counter returns seed+1.
func NewCounterRepository(seeds map[string]int64) *CounterRepository {
	values := make(map[string]int64, len(seeds))
	for id, seed := range seeds {
		values[id] = seed
	}
	return &CounterRepository{values: values}
}

// Next atomically increments the counter and returns the new value.
func (r *CounterRepository) Next(_ context.Context, counterID string) (int64, error) {
	id := strings.TrimSpace(counterID)
	if id == "" {
		return 0, errors.New("counter id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[id]++
	return r.values[id], nil
}
