package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListingCache is an optional, eventually consistent read path for
// availability listings. It is never consulted on the reserve path; losing
// or lagging the cache can only make a listing stale, never a reservation
// wrong.
type ListingCache interface {
	GetAvailable(ctx context.Context, specialty string) ([]Slot, bool)
	SetAvailable(ctx context.Context, specialty string, slots []Slot)
	InvalidateAvailable(ctx context.Context)
}

// Service is the reservation engine. It owns the availability state machine
// (available -> reserved, reserved is terminal) and never caches slot state
// across calls; every decision re-reads the store.
type Service struct {
	slots SlotRepository
	cache ListingCache // may be nil
	log   *zap.Logger
}

func NewService(slots SlotRepository, cache ListingCache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		slots: slots,
		cache: cache,
		log:   log,
	}
}

// CreateSlot publishes a new bookable slot. New slots are always available
// with no holder.
func (s *Service) CreateSlot(ctx context.Context, in NewSlot) (*Slot, error) {
	if in.StartsAt.IsZero() {
		return nil, &ValidationError{Field: "starts_at", Reason: "must be a parsable timestamp"}
	}
	if strings.TrimSpace(in.Physician) == "" {
		return nil, &ValidationError{Field: "physician", Reason: "must not be empty"}
	}
	if strings.TrimSpace(in.Specialty) == "" {
		return nil, &ValidationError{Field: "specialty", Reason: "must not be empty"}
	}

	slot, err := s.slots.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateAvailable(ctx)
	}

	s.log.Info("slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("specialty", slot.Specialty),
		zap.Time("starts_at", slot.StartsAt),
	)

	return slot, nil
}

// ListAvailable returns all unheld slots, narrowed to one specialty when the
// filter is non-empty. An empty filter means every specialty.
func (s *Service) ListAvailable(ctx context.Context, specialty string) ([]Slot, error) {
	if s.cache != nil {
		if slots, ok := s.cache.GetAvailable(ctx, specialty); ok {
			return slots, nil
		}
	}

	available := true
	slots, err := s.slots.List(ctx, SlotFilter{Available: &available, Specialty: specialty})
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}

	if s.cache != nil {
		s.cache.SetAvailable(ctx, specialty, slots)
	}

	return slots, nil
}

// ListMine returns the slots held by the given user, optionally narrowed by
// specialty.
func (s *Service) ListMine(ctx context.Context, userID, specialty string) ([]Slot, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	slots, err := s.slots.List(ctx, SlotFilter{Holder: &userID, Specialty: specialty})
	if err != nil {
		return nil, fmt.Errorf("list held slots: %w", err)
	}

	return slots, nil
}

// Reserve transitions a slot from available to held by userID. First
// committer wins: the store's conditional update decides the race, there is
// no retry and no partial state. Losing callers get ErrAlreadyReserved.
func (s *Service) Reserve(ctx context.Context, userID string, slotID uuid.UUID) (*Slot, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	if _, err := s.slots.GetByID(ctx, slotID); err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}

	slot, err := s.slots.ReserveIfAvailable(ctx, slotID, userID)
	if err != nil {
		if errors.Is(err, ErrAlreadyReserved) || errors.Is(err, ErrSlotNotFound) {
			s.log.Debug("reservation lost",
				zap.String("slot_id", slotID.String()),
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return nil, err
		}
		return nil, fmt.Errorf("reserve slot: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateAvailable(ctx)
	}

	s.log.Info("slot reserved",
		zap.String("slot_id", slot.ID.String()),
		zap.String("user_id", userID),
	)

	return slot, nil
}
