package server

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ambientdeck/ambientdeck/internal/observability"
	"github.com/ambientdeck/ambientdeck/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)
	s.router.Get("/health/startup", s.health.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler)

	s.router.Method(http.MethodGet, "/metrics", newMetricsProxy())

	s.router.Route("/api/v1", s.registerAPI)

	s.registerAdminEndpoint()
}

func (s *Server) registerAPI(r chi.Router) {
	if d := s.opts.Deck; d != nil {
		deckHandler := &handlers.DeckHandler{Deck: d}
		r.Route("/deck", func(r chi.Router) {
			r.Get("/", deckHandler.Snapshot)
			r.Post("/play", deckHandler.Play)
			r.Post("/pause", deckHandler.Pause)
			r.Post("/toggle", deckHandler.Toggle)
			r.Post("/next", deckHandler.Next)
			r.Post("/previous", deckHandler.Previous)
			r.Post("/goto/{index}", deckHandler.GoTo)
			r.Put("/interval", deckHandler.SetInterval)
			r.Put("/images", deckHandler.SetImages)
		})

		boards := &handlers.BoardsHandler{Deck: d}
		r.Get("/boards", boards.List)
		r.Get("/boards/{boardID}/pins", boards.Pins)
		r.Post("/boards/{boardID}/load", boards.Load)
		r.Get("/pins/search", boards.Search)

		uploads := &handlers.UploadsHandler{Deck: d}
		r.Post("/uploads", uploads.Upload)

		notifications := &handlers.NotificationsHandler{Center: d.Notifier}
		r.Get("/notifications", notifications.List)
		r.Delete("/notifications/{id}", notifications.Dismiss)
	}

	if s.opts.Settings != nil {
		settings := &handlers.SettingsHandler{Store: s.opts.Settings}
		r.Get("/settings", settings.List)
		r.Put("/settings/{key}", settings.Put)
	}
}

// registerAdminEndpoint optionally registers the admin signal endpoint
func (s *Server) registerAdminEndpoint() {
	logger := observability.ServerLogger

	if s.opts.AdminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no admin token configured)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: 10, // requests per minute
		RateBurst: 5,
		Manager:   nil, // default global manager
	})

	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("auth", "bearer token"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
