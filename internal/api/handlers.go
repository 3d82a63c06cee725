package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"clinicbook-service/internal/booking"
	"clinicbook-service/internal/catalog"
	"clinicbook-service/internal/identity"
)

var validate = validator.New()

// Accepted timestamp layouts for slot creation. The second covers the
// value an HTML datetime-local input submits.
var startsAtLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

func createSpecialtyHandler(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSpecialtyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		sp, err := svc.Create(r.Context(), req.Name, req.Description)
		if err != nil {
			handleCatalogError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, SpecialtyResponse{Name: sp.Name, Description: sp.Description})
	}
}

func listSpecialtiesHandler(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specialties, err := svc.ListAll(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toSpecialtyResponses(specialties))
	}
}

func createSlotHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		startsAt, err := parseStartsAt(req.StartsAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_starts_at", "starts_at must be RFC 3339 or YYYY-MM-DDTHH:MM")
			return
		}

		slot, err := svc.CreateSlot(r.Context(), booking.NewSlot{
			StartsAt:    startsAt,
			Physician:   req.Physician,
			Specialty:   req.Specialty,
			Description: req.Description,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSlotResponse(slot))
	}
}

func listAvailableSlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.ListAvailable(r.Context(), r.URL.Query().Get("specialty"))
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}

func listMySlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.ListMine(r.Context(), currentUserID(r), r.URL.Query().Get("specialty"))
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}

func reserveSlotHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "id must be a valid UUID")
			return
		}

		slot, err := svc.Reserve(r.Context(), currentUserID(r), slotID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponse(slot))
	}
}

func currentUserID(r *http.Request) string {
	if u, ok := identity.FromContext(r.Context()); ok {
		return u.ID
	}
	return ""
}

func parseStartsAt(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range startsAtLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func handleBookingError(w http.ResponseWriter, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid_"+verr.Field, verr.Error())
	case errors.Is(err, booking.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a valid bearer token is required")
	case errors.Is(err, booking.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, booking.ErrAlreadyReserved):
		writeError(w, http.StatusConflict, "slot_already_reserved", "slot was reserved by someone else, refresh the listing")
	case errors.Is(err, booking.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "storage temporarily unavailable, retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "invalid_name", err.Error())
	case errors.Is(err, catalog.ErrDuplicateName):
		writeError(w, http.StatusConflict, "specialty_exists", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
