package booking

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a bookable appointment: a moment with a physician, tagged with a
// specialty. Everything but the availability pair is immutable after
// creation. Holder is nil exactly while Available is true.
type Slot struct {
	ID          uuid.UUID
	StartsAt    time.Time
	Physician   string
	Specialty   string
	Description string
	Available   bool
	Holder      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HeldBy reports whether the slot is reserved by the given user.
func (s *Slot) HeldBy(userID string) bool {
	return s.Holder != nil && *s.Holder == userID
}

// NewSlot carries the operator-supplied fields for slot creation. The store
// assigns the id and always creates the slot available with no holder.
type NewSlot struct {
	StartsAt    time.Time
	Physician   string
	Specialty   string
	Description string
}

// SlotFilter narrows listing queries. Nil/empty fields mean "don't filter".
// Specialty is matched as an opaque, case-sensitive tag; it need not exist
// in the specialty catalog.
type SlotFilter struct {
	Available *bool
	Holder    *string
	Specialty string
}

func (f SlotFilter) matches(s *Slot) bool {
	if f.Available != nil && s.Available != *f.Available {
		return false
	}
	if f.Holder != nil && !s.HeldBy(*f.Holder) {
		return false
	}
	if f.Specialty != "" && s.Specialty != f.Specialty {
		return false
	}
	return true
}
