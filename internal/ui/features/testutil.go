// Package features provides shared test utilities for UI feature tests.
package features

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pqview/internal/decode"
	"github.com/leapstack-labs/pqview/internal/session"
	"github.com/leapstack-labs/pqview/internal/testutil"
	"github.com/leapstack-labs/pqview/internal/ui/notifier"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Manager      *session.Manager
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	Decoder      decode.Decoder
}

// SetupTestFixture creates a session manager backed by the DuckDB decoder
// whose changes are broadcast through the fixture's notifier.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	notify := notifier.New()
	dec := decode.NewDuckDB(logger)

	manager := session.NewManager(session.Options{
		Decoder:  dec,
		PageSize: 50,
		Logger:   logger,
		OnChange: notify.Broadcast,
	})

	return &TestFixture{
		Manager:      manager,
		Notifier:     notify,
		SessionStore: NewTestSessionStore(),
		Decoder:      dec,
	}
}

// UploadRequest builds a multipart upload of data under filename.
func UploadRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// SignalsRequest builds a Datastar POST carrying signals as a JSON body.
func SignalsRequest(target, signals string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(signals))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithCookies copies the cookies set on a previous response onto r.
func WithCookies(r *http.Request, prev *httptest.ResponseRecorder) *http.Request {
	for _, c := range prev.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithTimeout wraps a request with a context timeout.
func RequestWithTimeout(t *testing.T, r *http.Request, timeout time.Duration) *http.Request {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	t.Cleanup(cancel)
	return r.WithContext(ctx)
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
