// Package router sets up HTTP routes for the UI server.
package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/pqview/internal/session"
	viewerFeature "github.com/leapstack-labs/pqview/internal/ui/features/viewer"
	"github.com/leapstack-labs/pqview/internal/ui/notifier"
	"github.com/leapstack-labs/pqview/internal/ui/resources"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(
	router chi.Router,
	manager *session.Manager,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	opts viewerFeature.Options,
) error {
	router.Handle("/static/*", resources.Handler())

	return viewerFeature.SetupRoutes(router, manager, sessionStore, notify, opts)
}
