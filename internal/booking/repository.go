package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound = errors.New("slot not found")

	// ErrAlreadyReserved means the conditional reservation update found the
	// slot no longer available. Losing this race is a normal outcome, not a
	// system fault.
	ErrAlreadyReserved = errors.New("slot already reserved")

	ErrUnauthenticated = errors.New("caller is not authenticated")

	// ErrStoreUnavailable wraps transient infrastructure failures. Safe for
	// the caller to retry with backoff; never indicates partial state.
	ErrStoreUnavailable = errors.New("slot store unavailable")
)

// ValidationError reports a malformed field on a create operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SlotRepository is the persistence contract for slots. ReserveIfAvailable
// is the only mutation of a slot's availability and must be atomic: it
// succeeds only if the record is still available at the moment the store
// applies the update, and on conflict changes nothing.
type SlotRepository interface {
	Create(ctx context.Context, in NewSlot) (*Slot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	List(ctx context.Context, filter SlotFilter) ([]Slot, error)
	ReserveIfAvailable(ctx context.Context, id uuid.UUID, holder string) (*Slot, error)
}
