package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/availability-scheduling/internal/availability"
)

type RouterConfig struct {
	Service     AvailabilityService
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Logger      *zap.Logger
	Window      WindowOptions
	CORSOrigins []string
	RateLimit   int // requests per minute per IP, 0 disables
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Window.Now == nil {
		cfg.Window.Now = time.Now
	}
	if cfg.Window.Location == nil {
		cfg.Window.Location = time.UTC
	}
	if cfg.Window.DefaultDays <= 0 {
		cfg.Window.DefaultDays = availability.DefaultNumberOfDays
	}
	if cfg.Window.MaxDays < cfg.Window.DefaultDays {
		cfg.Window.MaxDays = cfg.Window.DefaultDays
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}

		r.Get("/availabilities", getAvailabilitiesHandler(cfg.Service, cfg.Window))

		r.Post("/events", createEventHandler(cfg.Service))
		r.Get("/events/{id}", getEventHandler(cfg.Service))
		r.Delete("/events/{id}", deleteEventHandler(cfg.Service))
	})

	return r
}
