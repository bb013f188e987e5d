// Package session holds the per-browser viewing state: which file is loaded,
// whether a decode is in flight, the last user-facing error and the view
// configuration over the loaded rows.
//
// A session moves through Idle → Loading → {Loaded | Failed} → Idle. Only
// one decode may run per session; uploads arriving while Loading are
// rejected with ErrBusy.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/pqview/internal/decode"
	"github.com/leapstack-labs/pqview/internal/rowstore"
	"github.com/leapstack-labs/pqview/internal/view"
)

// State is the lifecycle position of a session.
type State int

// Session states.
const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrBusy is returned for uploads and resets while a decode is in flight.
	ErrBusy = errors.New("a file is already loading")
	// ErrNotLoaded is returned for view changes when no file is loaded.
	ErrNotLoaded = errors.New("no file loaded")
	// ErrNoSuchColumn is returned when a sort targets a column index that
	// does not exist.
	ErrNoSuchColumn = errors.New("no such column")
)

// Snapshot is a consistent copy of a session for rendering.
type Snapshot struct {
	ID       string
	State    State
	FileName string
	Error    string
	Columns  []rowstore.Column
	Total    int
	Filter   view.FilterConfig
	Sort     view.SortConfig
	Window   view.Window
}

// Count is the number of rows in the derived view.
func (s Snapshot) Count() int {
	return s.Window.Total
}

// Session is safe for concurrent use.
type Session struct {
	id       string
	decoder  decode.Decoder
	pageSize int
	logger   *slog.Logger
	onChange func(id string)
	now      func() time.Time

	mu       sync.Mutex
	state    State
	fileName string
	errMsg   string
	offset   int
	ctrl     *view.Controller
	lastSeen time.Time
}

func newSession(id string, opts Options) *Session {
	logger := opts.Logger.With(slog.String("session", id))
	return &Session{
		id:       id,
		decoder:  opts.Decoder,
		pageSize: opts.PageSize,
		logger:   logger,
		onChange: opts.OnChange,
		now:      opts.Now,
		ctrl:     view.NewController(view.Options{Locale: opts.Locale, Logger: logger}),
		lastSeen: opts.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// Begin moves the session to Loading for name. A name without the parquet
// extension is rejected before any state change other than the error
// message; a session already Loading returns ErrBusy and is left untouched.
// Entering Loading discards the previously loaded rows.
func (s *Session) Begin(name string) error {
	s.mu.Lock()
	if s.state == Loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if err := decode.Validate(name); err != nil {
		s.errMsg = decode.ErrUnsupportedFileType.Error()
		s.mu.Unlock()
		s.changed()
		return err
	}

	s.state = Loading
	s.fileName = name
	s.errMsg = ""
	s.offset = 0
	s.ctrl.Reset()
	s.lastSeen = s.now()
	s.mu.Unlock()

	s.logger.Info("loading file", slog.String("file", name))
	s.changed()
	return nil
}

// Complete settles a decode started with Begin.
func (s *Session) Complete(store *rowstore.Store, err error) {
	s.mu.Lock()
	if s.state != Loading {
		s.mu.Unlock()
		return
	}
	s.lastSeen = s.now()
	name := s.fileName
	if err != nil {
		s.state = Failed
		s.errMsg = userMessage(err)
		s.mu.Unlock()
		s.logger.Error("failed to load file", slog.String("file", name), slog.Any("error", err))
		s.changed()
		return
	}

	s.state = Loaded
	s.ctrl.Load(store)
	s.mu.Unlock()

	s.logger.Info("file loaded",
		slog.String("file", store.Source()),
		slog.Int("rows", store.TotalRows()),
		slog.Int("columns", len(store.Columns())))
	s.changed()
}

// Decode runs the decode for a session put in Loading by Begin and settles
// it. It blocks until the decoder returns.
func (s *Session) Decode(ctx context.Context, name string, data []byte) error {
	store, err := decode.Load(ctx, s.decoder, name, data)
	s.Complete(store, err)
	return err
}

// Load runs a complete upload: Begin, Decode. The returned error is the one
// the user sees, if any.
func (s *Session) Load(ctx context.Context, name string, data []byte) error {
	if err := s.Begin(name); err != nil {
		return err
	}
	return s.Decode(ctx, name, data)
}

// Reset returns the session to Idle, clearing the loaded rows, the view
// configuration and any error.
func (s *Session) Reset() error {
	s.mu.Lock()
	if s.state == Loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = Idle
	s.fileName = ""
	s.errMsg = ""
	s.offset = 0
	s.ctrl.Reset()
	s.lastSeen = s.now()
	s.mu.Unlock()

	s.changed()
	return nil
}

// ReportError shows message in the error banner without changing state.
func (s *Session) ReportError(message string) {
	s.mu.Lock()
	s.errMsg = message
	s.mu.Unlock()

	s.changed()
}

// DismissError clears the error message. A Failed session becomes Idle.
func (s *Session) DismissError() {
	s.mu.Lock()
	s.errMsg = ""
	if s.state == Failed {
		s.state = Idle
		s.fileName = ""
	}
	s.lastSeen = s.now()
	s.mu.Unlock()

	s.changed()
}

// SetFilterColumn selects the column the filter applies to.
func (s *Session) SetFilterColumn(column string) error {
	return s.update(func() error {
		s.ctrl.SetFilterColumn(column)
		s.offset = 0
		return nil
	})
}

// SetFilterValue sets the filter pattern.
func (s *Session) SetFilterValue(value string) error {
	return s.update(func() error {
		s.ctrl.SetFilterValue(value)
		s.offset = 0
		return nil
	})
}

// SetFilter sets the filter column and pattern together.
func (s *Session) SetFilter(column, value string) error {
	return s.update(func() error {
		s.ctrl.SetFilter(column, value)
		s.offset = 0
		return nil
	})
}

// ToggleRegex flips between substring and regex matching.
func (s *Session) ToggleRegex() error {
	return s.update(func() error {
		s.ctrl.ToggleRegex()
		s.offset = 0
		return nil
	})
}

// SelectSort applies a header click on the column at index.
func (s *Session) SelectSort(index int) error {
	return s.update(func() error {
		if !s.ctrl.SelectSortIndex(index) {
			return fmt.Errorf("%w: %d", ErrNoSuchColumn, index)
		}
		s.offset = 0
		return nil
	})
}

// SetOffset moves the grid window. The offset is clamped when rendered.
func (s *Session) SetOffset(offset int) error {
	return s.update(func() error {
		s.offset = max(offset, 0)
		return nil
	})
}

func (s *Session) update(fn func() error) error {
	s.mu.Lock()
	if s.state != Loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	s.lastSeen = s.now()
	err := fn()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.changed()
	return nil
}

// Snapshot derives the current view and copies everything needed to render
// the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:       s.id,
		State:    s.state,
		FileName: s.fileName,
		Error:    s.errMsg,
		Filter:   s.ctrl.Filter(),
		Sort:     s.ctrl.Sort(),
	}
	if s.state != Loaded {
		return snap
	}

	snap.Columns = s.ctrl.Store().Columns()
	snap.Total = s.ctrl.Total()
	snap.Window = view.NewWindow(s.ctrl.View(), snap.Columns, s.offset, s.pageSize)
	s.offset = snap.Window.Offset
	return snap
}

// Total is the number of rows in the loaded file.
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Total()
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange(s.id)
	}
}

func userMessage(err error) string {
	var decErr *decode.Error
	if errors.As(err, &decErr) {
		return decErr.Error()
	}
	return (&decode.Error{Err: err}).Error()
}
