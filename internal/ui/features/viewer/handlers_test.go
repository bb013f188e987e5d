package viewer

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/pqview/internal/decode/decodetest"
	"github.com/leapstack-labs/pqview/internal/session"
	"github.com/leapstack-labs/pqview/internal/testutil"
	"github.com/leapstack-labs/pqview/internal/ui/features"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t)
	handlers := NewHandlers(fixture.Manager, fixture.SessionStore, fixture.Notifier, Options{
		Locale: language.English,
		Logger: testutil.NewTestLogger(t),
	})
	return handlers, fixture
}

// openPage loads the page once and returns the recorder carrying the
// session cookie.
func openPage(t *testing.T, h *Handlers) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ViewerPage(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies(), "a new visitor gets a session cookie")
	return rec
}

func uploadPeople(t *testing.T, h *Handlers, page *httptest.ResponseRecorder) string {
	t.Helper()

	data := decodetest.Parquet(t, decodetest.PeopleQuery)
	req := features.WithCookies(features.UploadRequest(t, "/api/upload", "people.parquet", data), page)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	return rec.Body.String()
}

func post(h http.HandlerFunc, req *http.Request, page *httptest.ResponseRecorder) string {
	rec := httptest.NewRecorder()
	h(rec, features.WithCookies(req, page))
	return rec.Body.String()
}

// =============================================================================
// ViewerPage
// =============================================================================

func TestViewerPage(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	rec := openPage(t, h)

	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		"<title>Viewer - pqview</title>",
		"data-init",
		"/updates",
		`id="app"`,
		"Drop a .parquet file here",
		`accept=".parquet"`,
	} {
		assert.Contains(t, body, want, "response should contain %q", want)
	}
	assert.Equal(t, 1, fixture.Manager.Len())
}

func TestViewerPage_ReusesSessionFromCookie(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	page := openPage(t, h)

	rec := httptest.NewRecorder()
	h.ViewerPage(rec, features.WithCookies(httptest.NewRequest(http.MethodGet, "/", nil), page))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "a known session is not re-issued")
	assert.Equal(t, 1, fixture.Manager.Len())
}

// =============================================================================
// Upload
// =============================================================================

func TestUpload_LoadsFile(t *testing.T) {
	h, _ := setupTestHandlers(t)
	page := openPage(t, h)

	body := uploadPeople(t, h, page)

	assert.GreaterOrEqual(t, strings.Count(body, "event: datastar-patch-elements"), 2,
		"loading state and result are both patched")
	assert.Contains(t, body, "Loading...")
	assert.Contains(t, body, "Showing 4 of 4 rows")
	assert.Contains(t, body, "people.parquet")
	assert.Contains(t, body, "Ann")
	assert.Contains(t, body, "event: datastar-patch-signals")
}

func TestUpload_RejectsOtherExtensions(t *testing.T) {
	h, _ := setupTestHandlers(t)
	page := openPage(t, h)

	req := features.WithCookies(features.UploadRequest(t, "/api/upload", "people.csv", []byte("a,b\n1,2\n")), page)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "please select a .parquet file")
	assert.NotContains(t, body, "Loading...")
	assert.Contains(t, body, "Drop a .parquet file here")
}

func TestUpload_DecodeFailureShowsBanner(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	page := openPage(t, h)

	req := features.WithCookies(features.UploadRequest(t, "/api/upload", "broken.parquet", []byte("not parquet")), page)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "Failed to parse parquet file: ")
	assert.Contains(t, body, "/api/error/dismiss")

	dismissed := post(h.DismissError, httptest.NewRequest(http.MethodPost, "/api/error/dismiss", nil), page)
	assert.NotContains(t, dismissed, "Failed to parse parquet file")
	assert.Contains(t, dismissed, "Drop a .parquet file here")

	require.Equal(t, 1, fixture.Manager.Len())
}

func TestUpload_MissingFile(t *testing.T) {
	h, _ := setupTestHandlers(t)
	page := openPage(t, h)

	body := post(h.Upload, httptest.NewRequest(http.MethodPost, "/api/upload", nil), page)

	assert.Contains(t, body, "no file received")
}

func TestUpload_TooLarge(t *testing.T) {
	fixture := features.SetupTestFixture(t)
	h := NewHandlers(fixture.Manager, fixture.SessionStore, fixture.Notifier, Options{MaxUploadBytes: 1 << 20})
	page := openPage(t, h)

	big := make([]byte, 2<<20)
	req := features.WithCookies(features.UploadRequest(t, "/api/upload", "big.parquet", big), page)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "error-banner")
	assert.Contains(t, body, "large")
}

// =============================================================================
// Filter / Sort / Page / Reset
// =============================================================================

func TestFilter(t *testing.T) {
	h, _ := setupTestHandlers(t)
	page := openPage(t, h)
	uploadPeople(t, h, page)

	body := post(h.Filter, features.SignalsRequest("/api/filter", `{"filterColumn":"name","filterValue":"a"}`), page)

	assert.Contains(t, body, "Showing 2 of 4 rows")
	assert.Contains(t, body, "Ann")
	assert.Contains(t, body, "cal")
	assert.NotContains(t, body, "Bob")
}

func TestFilter_InvalidRegexFallsBackSilently(t *testing.T) {
	h, _ := setupTestHandlers(t)
	page := openPage(t, h)
	uploadPeople(t, h, page)

	post(h.Filter, features.SignalsRequest("/api/filter", `{"filterColumn":"name","filterValue":"(unclosed"}`), page)
	body := post(h.ToggleRegex, httptest.NewRequest(http.MethodPost, "/api/filter/regex", nil), page)

	assert.Contains(t, body, "Showing 4 of 4 rows")
	assert.Contains(t, body, `aria-pressed="true"`)
	assert.NotContains(t, body, "error-banner")
}

func TestFilter_BeforeLoadIsIgnored(t *testing.T) {
	h, _ := setupTestHandlers(t)
	page := openPage(t, h)

	body := post(h.Filter, features.SignalsRequest("/api/filter", `{"filterColumn":"name","filterValue":"a"}`), page)

	assert.Contains(t, body, "Drop a .parquet file here")
}

func TestSort(t *testing.T) {
	h, _ := setupTestHandlers(t)
	page := openPage(t, h)
	uploadPeople(t, h, page)

	req := features.RequestWithPathParam(httptest.NewRequest(http.MethodPost, "/api/sort/2", nil), "index", "2")
	body := post(h.Sort, req, page)
	assert.Contains(t, body, `aria-sort="ascending"`)
	assert.Less(t, strings.Index(body, "Ann"), strings.Index(body, "Dee"))

	req = features.RequestWithPathParam(httptest.NewRequest(http.MethodPost, "/api/sort/2", nil), "index", "2")
	body = post(h.Sort, req, page)
	assert.Contains(t, body, `aria-sort="descending"`)
	assert.Less(t, strings.Index(body, "Dee"), strings.Index(body, "Ann"))
}

func TestSort_BadIndex(t *testing.T) {
	h, _ := setupTestHandlers(t)
	page := openPage(t, h)
	uploadPeople(t, h, page)

	for _, index := range []string{"99", "x"} {
		req := features.RequestWithPathParam(httptest.NewRequest(http.MethodPost, "/api/sort/"+index, nil), "index", index)
		body := post(h.Sort, req, page)
		assert.NotContains(t, body, `aria-sort="ascending"`)
		assert.Contains(t, body, "Showing 4 of 4 rows")
	}
}

func TestPage(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	page := openPage(t, h)

	data := decodetest.Parquet(t, `SELECT range AS n FROM range(120)`)
	req := features.WithCookies(features.UploadRequest(t, "/api/upload", "range.parquet", data), page)
	h.Upload(httptest.NewRecorder(), req)

	body := post(h.Page, httptest.NewRequest(http.MethodPost, "/api/page?offset=50", nil), page)
	assert.Contains(t, body, "Rows 51–100")

	body = post(h.Page, httptest.NewRequest(http.MethodPost, "/api/page?offset=1000", nil), page)
	assert.Contains(t, body, "Rows 101–120")

	assert.Equal(t, 1, fixture.Manager.Len())
}

func TestReset(t *testing.T) {
	h, _ := setupTestHandlers(t)
	page := openPage(t, h)
	uploadPeople(t, h, page)
	post(h.Filter, features.SignalsRequest("/api/filter", `{"filterColumn":"name","filterValue":"a"}`), page)

	body := post(h.Reset, httptest.NewRequest(http.MethodPost, "/api/reset", nil), page)

	assert.Contains(t, body, "Drop a .parquet file here")
	assert.Contains(t, body, "event: datastar-patch-signals")
	assert.Contains(t, body, `"filterColumn":""`)
}

// =============================================================================
// ViewerUpdates
// =============================================================================

func TestViewerUpdates_PushesSessionChanges(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	page := openPage(t, h)

	req := features.WithCookies(httptest.NewRequest(http.MethodGet, "/updates", nil), page)
	req = features.RequestWithTimeout(t, req, 500*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ViewerUpdates(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	uploadPeople(t, h, page)

	<-done

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
	assert.Contains(t, body, "Showing 4 of 4 rows")
	assert.Equal(t, 1, fixture.Manager.Len())
}

func TestViewerUpdates_NoInitialState(t *testing.T) {
	h, _ := setupTestHandlers(t)
	page := openPage(t, h)

	req := features.WithCookies(httptest.NewRequest(http.MethodGet, "/updates", nil), page)
	req = features.RequestWithTimeout(t, req, 50*time.Millisecond)
	rec := httptest.NewRecorder()
	h.ViewerUpdates(rec, req)

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"))
}

func TestViewerUpdates_OtherSessionsAreNotNotified(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	mine := openPage(t, h)
	theirs := openPage(t, h)

	req := features.WithCookies(httptest.NewRequest(http.MethodGet, "/updates", nil), theirs)
	req = features.RequestWithTimeout(t, req, 300*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ViewerUpdates(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	uploadPeople(t, h, mine)
	<-done

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"))
	assert.Equal(t, 2, fixture.Manager.Len())
	assert.Equal(t, session.Idle, sessionState(t, fixture, theirs))
}

func sessionState(t *testing.T, fixture *features.TestFixture, page *httptest.ResponseRecorder) session.State {
	t.Helper()

	req := features.WithCookies(httptest.NewRequest(http.MethodGet, "/", nil), page)
	gs, err := fixture.SessionStore.Get(req, cookieName)
	require.NoError(t, err)
	id, _ := gs.Values[sessionIDKey].(string)
	s, ok := fixture.Manager.Get(id)
	require.True(t, ok)
	return s.State()
}
