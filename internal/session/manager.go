package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/pqview/internal/decode"
)

// Defaults applied by NewManager for zero option values.
const (
	DefaultTTL      = 30 * time.Minute
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Options configures a Manager and the sessions it creates.
type Options struct {
	Decoder  decode.Decoder
	TTL      time.Duration
	PageSize int
	Locale   language.Tag
	Logger   *slog.Logger
	// OnChange is called with the session id after every state change.
	OnChange func(id string)
	Now      func() time.Time
}

// Manager owns the sessions of a server.
type Manager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager. Decoder is required.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	opts.PageSize = min(opts.PageSize, MaxPageSize)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new Idle session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.opts)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.opts.Logger.Debug("session created", slog.String("session", s.id))
	return s
}

// Get returns the session for id and marks it as used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

// GetOrCreate returns the session for id, or a new one when id is unknown
// or expired. created reports which.
func (m *Manager) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.Create(), true
}

// Remove drops the session for id.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. Sessions with a decode in flight are kept.
func (m *Manager) Sweep() int {
	cutoff := m.opts.Now().Add(-m.opts.TTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.State() == Loading || !s.LastSeen().Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	if removed > 0 {
		m.opts.Logger.Debug("evicted idle sessions",
			slog.Int("removed", removed),
			slog.Int("remaining", len(m.sessions)))
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	interval := max(m.opts.TTL/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}
