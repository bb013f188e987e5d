package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/pqview/internal/session"
	"github.com/leapstack-labs/pqview/internal/ui/features/viewer/components"
	"github.com/leapstack-labs/pqview/internal/ui/notifier"
	"github.com/leapstack-labs/pqview/internal/view"
)

// Handlers provides HTTP handlers for the viewer feature.
type Handlers struct {
	sessions     *session.Manager
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	locale       language.Tag
	maxUpload    int64
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(manager *session.Manager, sessionStore sessions.Store, notify *notifier.Notifier, opts Options) *Handlers {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handlers{
		sessions:     manager,
		sessionStore: sessionStore,
		notifier:     notify,
		locale:       opts.Locale,
		maxUpload:    opts.MaxUploadBytes,
		logger:       opts.Logger,
	}
}

// ViewerPage renders the full page for the caller's session.
func (h *Handlers) ViewerPage(w http.ResponseWriter, r *http.Request) {
	s := h.current(w, r)

	if err := components.Page(pageTitle, h.appData(s)).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ViewerUpdates is the long-lived SSE endpoint. It re-renders the app
// whenever the session changes, from this tab or any other.
// It does not send initial state; ViewerPage renders that.
func (h *Handlers) ViewerUpdates(w http.ResponseWriter, r *http.Request) {
	s := h.current(w, r)
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe(s.ID())
	defer h.notifier.Unsubscribe(s.ID(), updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := h.sendApp(sse, s); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// Upload accepts a multipart file and decodes it into the session.
// The loading state is patched before the decode starts.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	s := h.current(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	name, data, err := h.readUpload(r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.logger.Warn("rejected upload", slog.String("session", s.ID()), slog.Any("error", err))
		s.ReportError(err.Error())
		h.patchApp(sse, s)
		return
	}

	switch err := s.Begin(name); {
	case errors.Is(err, session.ErrBusy):
		h.logger.Debug("upload ignored while loading", slog.String("session", s.ID()), slog.String("file", name))
		h.patchApp(sse, s)
		return
	case err != nil:
		h.patchApp(sse, s)
		return
	}
	h.patchApp(sse, s)

	// the decode outlives a disconnected client
	_ = s.Decode(context.WithoutCancel(r.Context()), name, data)

	h.patchApp(sse, s)
	h.patchSignals(sse, s)
}

func (h *Handlers) readUpload(r *http.Request) (string, []byte, error) {
	f, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("file is larger than the %d MB upload limit", tooLarge.Limit>>20)
		}
		return "", nil, fmt.Errorf("no file received: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return header.Filename, data, nil
}

// Filter applies the filter column and value signals.
func (h *Handlers) Filter(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals components.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", err))
		return
	}

	s := h.current(w, r)
	h.apply(w, r, s, s.SetFilter(signals.FilterColumn, signals.FilterValue))
}

// ToggleRegex flips the filter between substring and regex matching.
func (h *Handlers) ToggleRegex(w http.ResponseWriter, r *http.Request) {
	s := h.current(w, r)
	h.apply(w, r, s, s.ToggleRegex())
}

// Sort applies a header click on the column at the index path parameter.
func (h *Handlers) Sort(w http.ResponseWriter, r *http.Request) {
	s := h.current(w, r)

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.apply(w, r, s, fmt.Errorf("%w: %q", session.ErrNoSuchColumn, chi.URLParam(r, "index")))
		return
	}
	h.apply(w, r, s, s.SelectSort(index))
}

// Page moves the grid window to the offset query parameter.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	s := h.current(w, r)

	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		offset = 0
	}
	h.apply(w, r, s, s.SetOffset(offset))
}

// Reset returns the session to the upload surface.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	s := h.current(w, r)
	err := s.Reset()

	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.logger.Debug("reset ignored", slog.String("session", s.ID()), slog.Any("error", err))
	}
	h.patchApp(sse, s)
	h.patchSignals(sse, s)
}

// DismissError clears the error banner.
func (h *Handlers) DismissError(w http.ResponseWriter, r *http.Request) {
	s := h.current(w, r)
	s.DismissError()

	sse := datastar.NewSSE(w, r)
	h.patchApp(sse, s)
}

// apply finishes a view change: it logs a rejected change and patches the
// resulting app state either way.
func (h *Handlers) apply(w http.ResponseWriter, r *http.Request, s *session.Session, err error) {
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.logger.Debug("view change ignored", slog.String("session", s.ID()), slog.Any("error", err))
	}
	h.patchApp(sse, s)
}

// current returns the caller's session, creating one and setting the
// cookie when needed. It must run before the SSE response starts.
func (h *Handlers) current(w http.ResponseWriter, r *http.Request) *session.Session {
	gs, err := h.sessionStore.Get(r, cookieName)
	if err != nil {
		h.logger.Debug("discarding unreadable session cookie", slog.Any("error", err))
	}

	id, _ := gs.Values[sessionIDKey].(string)
	s, created := h.sessions.GetOrCreate(id)
	if created {
		gs.Values[sessionIDKey] = s.ID()
		if err := gs.Save(r, w); err != nil {
			h.logger.Error("failed to save session cookie", slog.Any("error", err))
		}
	}
	return s
}

func (h *Handlers) appData(s *session.Session) components.AppData {
	snap := s.Snapshot()
	return components.AppData{
		Snapshot: snap,
		Readout:  view.Readout(h.locale, snap.Count(), snap.Total),
	}
}

func (h *Handlers) sendApp(sse *datastar.ServerSentEventGenerator, s *session.Session) error {
	return sse.PatchElementTempl(components.App(h.appData(s)))
}

func (h *Handlers) patchApp(sse *datastar.ServerSentEventGenerator, s *session.Session) {
	if err := h.sendApp(sse, s); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func (h *Handlers) patchSignals(sse *datastar.ServerSentEventGenerator, s *session.Session) {
	if err := sse.MarshalAndPatchSignals(components.SignalsFor(s.Snapshot())); err != nil {
		_ = sse.ConsoleError(err)
	}
}
