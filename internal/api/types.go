package api

import (
	"time"

	"github.com/google/uuid"

	"clinicbook-service/internal/booking"
	"clinicbook-service/internal/catalog"
)

type CreateSpecialtyRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type SpecialtyResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateSlotRequest struct {
	StartsAt    string `json:"starts_at" validate:"required"`
	Physician   string `json:"physician" validate:"required"`
	Specialty   string `json:"specialty" validate:"required"`
	Description string `json:"description"`
}

type SlotResponse struct {
	ID          uuid.UUID `json:"id"`
	StartsAt    time.Time `json:"starts_at"`
	Physician   string    `json:"physician"`
	Specialty   string    `json:"specialty"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	Holder      *string   `json:"holder,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toSlotResponse(s *booking.Slot) SlotResponse {
	return SlotResponse{
		ID:          s.ID,
		StartsAt:    s.StartsAt,
		Physician:   s.Physician,
		Specialty:   s.Specialty,
		Description: s.Description,
		Available:   s.Available,
		Holder:      s.Holder,
	}
}

func toSlotResponses(slots []booking.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for i := range slots {
		out = append(out, toSlotResponse(&slots[i]))
	}
	return out
}

func toSpecialtyResponses(specialties []catalog.Specialty) []SpecialtyResponse {
	out := make([]SpecialtyResponse, 0, len(specialties))
	for _, sp := range specialties {
		out = append(out, SpecialtyResponse{Name: sp.Name, Description: sp.Description})
	}
	return out
}
