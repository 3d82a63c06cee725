package catalog

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository for tests and local runs.
type MemoryRepository struct {
	mu     sync.Mutex
	byName map[string]int
	items  []Specialty
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byName: make(map[string]int)}
}

func (r *MemoryRepository) Create(_ context.Context, name, description string) (*Specialty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return nil, ErrDuplicateName
	}

	sp := Specialty{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}
	r.byName[name] = len(r.items)
	r.items = append(r.items, sp)

	return &sp, nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]Specialty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Specialty, len(r.items))
	copy(out, r.items)
	return out, nil
}
