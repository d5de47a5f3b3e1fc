package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/consultorios/booking-chat/internal/clinics"
	"github.com/consultorios/booking-chat/internal/funnel"
	"github.com/consultorios/booking-chat/pkg/logging"
)

type RouterConfig struct {
	Resolver      *funnel.Resolver
	Fallback      Fallback
	Clinics       *clinics.Client
	Logger        *logging.Logger
	Env           string
	Version       string
	ChatRateLimit int // requests per minute per IP; 0 disables
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.Clinics, cfg.Fallback != nil, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/chat/greeting", greetingHandler())

	r.Group(func(r chi.Router) {
		if cfg.ChatRateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.ChatRateLimit, time.Minute))
		}
		r.Post("/chat", chatHandler(cfg.Resolver, cfg.Fallback, cfg.Logger))
	})

	return r
}
