package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"example.com/exercisetracker/internal/web"
)

// RouterConfig controls the optional parts of the router.
type RouterConfig struct {
	CORSOrigin string
	Metrics    bool
	Logger     log.FieldLogger
}

// NewRouter mounts the landing page, static assets, API routes and,
// when enabled, the Prometheus endpoint.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors(origin))

	r.Get("/", web.Index)
	r.Handle("/public/*", http.StripPrefix("/public/", web.Static()))
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	h.RegisterRoutes(r)
	return r
}
