// Package viewer provides the upload, filter, sort and grid feature.
package viewer

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/pqview/internal/session"
	"github.com/leapstack-labs/pqview/internal/ui/notifier"
)

// SetupRoutes configures routes for the viewer feature.
func SetupRoutes(
	router chi.Router,
	manager *session.Manager,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	opts Options,
) error {
	handlers := NewHandlers(manager, sessionStore, notify, opts)

	router.Get("/", handlers.ViewerPage)
	router.Get("/updates", handlers.ViewerUpdates)

	router.Route("/api", func(r chi.Router) {
		r.Post("/upload", handlers.Upload)
		r.Post("/filter", handlers.Filter)
		r.Post("/filter/regex", handlers.ToggleRegex)
		r.Post("/sort/{index}", handlers.Sort)
		r.Post("/page", handlers.Page)
		r.Post("/reset", handlers.Reset)
		r.Post("/error/dismiss", handlers.DismissError)
	})

	return nil
}
