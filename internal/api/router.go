package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/fleet", func(r chi.Router) {
			r.Get("/stats", s.handleFleetStats)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/update", s.handleUpdate)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Post("/poll", s.handlePollDevice)
				r.Put("/power", s.handleSetPower)
				r.Put("/mode", s.handleSetMode)
				r.Put("/speed", s.handleSetSpeed)
				r.Put("/mist", s.handleSetMist)
				r.Put("/warm", s.handleSetWarm)
				r.Put("/humidity", s.handleSetHumidity)
				r.Put("/display", s.handleSetDisplay)
				r.Put("/child-lock", s.handleSetChildLock)
				r.Put("/timer", s.handleSetTimer)
				r.Delete("/timer", s.handleClearTimer)
				r.Put("/brightness", s.handleSetBrightness)
				r.Put("/color-temp", s.handleSetColorTemp)
				r.Put("/color", s.handleSetColor)
				r.Put("/night-light", s.handleSetNightLight)
				r.Put("/light-detection", s.handleSetLightDetection)
				r.Put("/auto-preference", s.handleSetAutoPreference)
				r.Post("/reset-filter", s.handleResetFilter)
			})
		})

		// WebSocket event stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	logged := s.fleet.Session() != nil
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"logged_in": logged,
	})
}
