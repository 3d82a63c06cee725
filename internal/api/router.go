package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"clinicbook-service/internal/booking"
	"clinicbook-service/internal/catalog"
	"clinicbook-service/internal/identity"
)

type RouterConfig struct {
	Booking  *booking.Service
	Catalog  *catalog.Service
	Identity identity.Provider
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Env      string
	Version  string
	Log      *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(AuthMiddleware(cfg.Identity, cfg.Log))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Specialty catalog
	r.Post("/specialties", createSpecialtyHandler(cfg.Catalog))
	r.Get("/specialties", listSpecialtiesHandler(cfg.Catalog))

	// Slots and reservations
	r.Post("/slots", createSlotHandler(cfg.Booking))
	r.Get("/slots/available", listAvailableSlotsHandler(cfg.Booking))
	r.Get("/slots/mine", listMySlotsHandler(cfg.Booking))
	r.Post("/slots/{id}/reserve", reserveSlotHandler(cfg.Booking))

	return r
}
