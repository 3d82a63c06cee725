package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinicbook-service/internal/booking"
	"clinicbook-service/internal/catalog"
	"clinicbook-service/internal/identity"
)

const testSecret = "handler-test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *booking.Service) {
	t.Helper()
	return newTestServerWith(t, booking.NewMemorySlotRepository())
}

func newTestServerWith(t *testing.T, repo booking.SlotRepository) (*httptest.Server, *booking.Service) {
	t.Helper()

	bookingSvc := booking.NewService(repo, nil, nil)
	catalogSvc := catalog.NewService(catalog.NewMemoryRepository(), nil)

	router := NewRouter(RouterConfig{
		Booking:  bookingSvc,
		Catalog:  catalogSvc,
		Identity: identity.NewJWTProvider(testSecret),
		Env:      "test",
		Version:  "test",
		Log:      zap.NewNop(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, bookingSvc
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := identity.NewJWTProvider(testSecret).Sign(userID, "", time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, method, url, auth string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)

	return resp, out.Bytes()
}

func TestCreateAndListSpecialties(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/specialties", "", CreateSpecialtyRequest{
		Name:        "Cardiologia",
		Description: "Heart",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Duplicate name conflicts.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/specialties", "", CreateSpecialtyRequest{Name: "Cardiologia"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Missing name is rejected by validation.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/specialties", "", CreateSpecialtyRequest{Description: "no name"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/specialties", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var specialties []SpecialtyResponse
	require.NoError(t, json.Unmarshal(body, &specialties))
	require.Len(t, specialties, 1)
	assert.Equal(t, "Cardiologia", specialties[0].Name)
}

func TestCreateSlot(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/slots", "", CreateSlotRequest{
		StartsAt:    time.Now().Add(time.Hour).Format(time.RFC3339),
		Physician:   "Dr. X",
		Specialty:   "Cardiologia",
		Description: "Checkup",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var slot SlotResponse
	require.NoError(t, json.Unmarshal(body, &slot))
	assert.True(t, slot.Available)
	assert.Nil(t, slot.Holder)

	// datetime-local format is accepted too.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/slots", "", CreateSlotRequest{
		StartsAt:  "2030-05-12T09:30",
		Physician: "Dr. Y",
		Specialty: "Pediatria",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/slots", "", CreateSlotRequest{
		StartsAt:  "next tuesday",
		Physician: "Dr. Y",
		Specialty: "Pediatria",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReserveFlow(t *testing.T) {
	srv, bookingSvc := newTestServer(t)

	slot, err := bookingSvc.CreateSlot(context.Background(), booking.NewSlot{
		StartsAt:  time.Now().Add(time.Hour),
		Physician: "Dr. X",
		Specialty: "Cardiologia",
	})
	require.NoError(t, err)

	reserveURL := srv.URL + "/slots/" + slot.ID.String() + "/reserve"

	// Unauthenticated reserve is refused.
	resp, _ := doJSON(t, http.MethodPost, reserveURL, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// First authenticated caller wins.
	resp, body := doJSON(t, http.MethodPost, reserveURL, bearerFor(t, "user-1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reserved SlotResponse
	require.NoError(t, json.Unmarshal(body, &reserved))
	assert.False(t, reserved.Available)
	require.NotNil(t, reserved.Holder)
	assert.Equal(t, "user-1", *reserved.Holder)

	// Second caller gets a conflict; holder is unchanged.
	resp, body = doJSON(t, http.MethodPost, reserveURL, bearerFor(t, "user-2"), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "slot_already_reserved", errResp.Error)

	// The winner sees the slot under /slots/mine.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/slots/mine", bearerFor(t, "user-1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var mine []SlotResponse
	require.NoError(t, json.Unmarshal(body, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, slot.ID, mine[0].ID)
}

func TestReserve_UnknownSlot(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/slots/0b81c32e-937a-4f16-9f44-8c8c0ffee000/reserve", bearerFor(t, "user-1"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/slots/not-a-uuid/reserve", bearerFor(t, "user-1"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListAvailable_FilterQuery(t *testing.T) {
	srv, bookingSvc := newTestServer(t)
	ctx := context.Background()

	_, err := bookingSvc.CreateSlot(ctx, booking.NewSlot{StartsAt: time.Now().Add(time.Hour), Physician: "Dr. A", Specialty: "Cardiologia"})
	require.NoError(t, err)
	_, err = bookingSvc.CreateSlot(ctx, booking.NewSlot{StartsAt: time.Now().Add(2 * time.Hour), Physician: "Dr. B", Specialty: "Pediatria"})
	require.NoError(t, err)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/slots/available?specialty=Cardiologia", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var slots []SlotResponse
	require.NoError(t, json.Unmarshal(body, &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, "Cardiologia", slots[0].Specialty)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/slots/available", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &slots))
	assert.Len(t, slots, 2)
}

// failingSlotRepository simulates an unreachable store: every call comes
// back wrapped in booking.ErrStoreUnavailable, the way the Postgres
// repository classifies timeouts and connection failures.
type failingSlotRepository struct{}

func (failingSlotRepository) Create(context.Context, booking.NewSlot) (*booking.Slot, error) {
	return nil, fmt.Errorf("create slot: %w", booking.ErrStoreUnavailable)
}

func (failingSlotRepository) GetByID(context.Context, uuid.UUID) (*booking.Slot, error) {
	return nil, fmt.Errorf("get slot by id: %w", booking.ErrStoreUnavailable)
}

func (failingSlotRepository) List(context.Context, booking.SlotFilter) ([]booking.Slot, error) {
	return nil, fmt.Errorf("list slots: %w", booking.ErrStoreUnavailable)
}

func (failingSlotRepository) ReserveIfAvailable(context.Context, uuid.UUID, string) (*booking.Slot, error) {
	return nil, fmt.Errorf("reserve slot: %w", booking.ErrStoreUnavailable)
}

// A transiently unavailable store must surface as a retryable 503, both on
// listings and on the reserve path.
func TestStoreUnavailable_MapsTo503(t *testing.T) {
	srv, _ := newTestServerWith(t, failingSlotRepository{})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/slots/available", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "store_unavailable", errResp.Error)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/slots/"+uuid.NewString()+"/reserve", bearerFor(t, "user-1"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "store_unavailable", errResp.Error)
}

func TestReadiness_NoDependenciesConfigured(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ready ReadinessResponse
	require.NoError(t, json.Unmarshal(body, &ready))
	assert.Equal(t, "ok", ready.Status)
}

// Validation error codes stay snake_case end to end.
func TestCreateSlot_ValidationErrorCodes(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/slots", "", CreateSlotRequest{
		StartsAt:  time.Now().Add(time.Hour).Format(time.RFC3339),
		Physician: "   ",
		Specialty: "Cardiologia",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "invalid_physician", errResp.Error)

	rec := httptest.NewRecorder()
	handleBookingError(rec, &booking.ValidationError{Field: "starts_at", Reason: "must be a parsable timestamp"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "invalid_starts_at", errResp.Error)
}

func TestInvalidBearerToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/slots/mine", "Bearer garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "invalid_token", errResp.Error)
}
