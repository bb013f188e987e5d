package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pqview/internal/ui/features"
	viewerFeature "github.com/leapstack-labs/pqview/internal/ui/features/viewer"
)

func setupMux(t *testing.T) *chi.Mux {
	t.Helper()

	fixture := features.SetupTestFixture(t)
	r := chi.NewMux()
	require.NoError(t, SetupRoutes(r, fixture.Manager, fixture.SessionStore, fixture.Notifier, viewerFeature.Options{}))
	return r
}

func TestSetupRoutes(t *testing.T) {
	mux := setupMux(t)

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantType   string
	}{
		{method: http.MethodGet, path: "/", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/static/app.css", wantStatus: http.StatusOK, wantType: "text/css"},
		{method: http.MethodGet, path: "/static/app.js", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/static/missing.js", wantStatus: http.StatusNotFound},
		{method: http.MethodPost, path: "/api/sort/0", wantStatus: http.StatusOK, wantType: "text/event-stream"},
		{method: http.MethodPost, path: "/api/filter/regex", wantStatus: http.StatusOK, wantType: "text/event-stream"},
		{method: http.MethodPost, path: "/api/reset", wantStatus: http.StatusOK, wantType: "text/event-stream"},
		{method: http.MethodPost, path: "/api/error/dismiss", wantStatus: http.StatusOK, wantType: "text/event-stream"},
		{method: http.MethodPost, path: "/api/page?offset=10", wantStatus: http.StatusOK, wantType: "text/event-stream"},
		{method: http.MethodGet, path: "/api/reset", wantStatus: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantType != "" {
				assert.Contains(t, rec.Header().Get("Content-Type"), tt.wantType)
			}
		})
	}
}
