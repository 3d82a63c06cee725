package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemorySlotRepository is a mutex-guarded in-process SlotRepository. It backs
// the engine's tests and local runs without Postgres; the conditional
// reservation holds the same atomicity guarantee under the lock.
type MemorySlotRepository struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*Slot
}

func NewMemorySlotRepository() *MemorySlotRepository {
	return &MemorySlotRepository{slots: make(map[uuid.UUID]*Slot)}
}

func (r *MemorySlotRepository) Create(_ context.Context, in NewSlot) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	s := &Slot{
		ID:          uuid.New(),
		StartsAt:    in.StartsAt,
		Physician:   in.Physician,
		Specialty:   in.Specialty,
		Description: in.Description,
		Available:   true,
		Holder:      nil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.slots[s.ID] = s

	out := *s
	return &out, nil
}

func (r *MemorySlotRepository) GetByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}

	out := *s
	return &out, nil
}

func (r *MemorySlotRepository) List(_ context.Context, filter SlotFilter) ([]Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var slots []Slot
	for _, s := range r.slots {
		if filter.matches(s) {
			slots = append(slots, *s)
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].StartsAt.Equal(slots[j].StartsAt) {
			return slots[i].StartsAt.Before(slots[j].StartsAt)
		}
		return slots[i].ID.String() < slots[j].ID.String()
	})

	return slots, nil
}

func (r *MemorySlotRepository) ReserveIfAvailable(_ context.Context, id uuid.UUID, holder string) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if !s.Available {
		return nil, ErrAlreadyReserved
	}

	h := holder
	s.Available = false
	s.Holder = &h
	s.UpdatedAt = time.Now()

	out := *s
	return &out, nil
}
