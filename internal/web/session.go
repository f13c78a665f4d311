package web

// session.go keeps one core.Table per open browser view.
//
// A session is created when a table page is opened and is addressed by a
// uuid in every later request. Sessions idle longer than the TTL are
// removed by Run, which ticks until its context is cancelled. Source loads
// for new sessions and reloads share one LoadLimiter.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/core"
)

// Session errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrTooManySessions = errors.New("too many open sessions, rate limit reached")
)

// Session is one open table view.
type Session struct {
	ID       string
	TableKey string
	Def      core.TableDefinition
	Table    *core.Table
	Journal  *core.Journal
	Created  time.Time

	loads    *LoadLimiter
	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns the time of the last request on this session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Reload re-seeds the table from its source. It reports whether the data
// changed; an unchanged revision keeps local edits.
func (s *Session) Reload(ctx context.Context) (bool, error) {
	var snap core.Snapshot
	err := s.loads.Do(ctx, func(ctx context.Context) error {
		s.Table.SetLoading(true)
		defer s.Table.SetLoading(false)
		var err error
		snap, err = s.Def.Load(ctx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("reload %s: %w", s.TableKey, err)
	}
	return s.Table.Load(snap.Rows, snap.Revision), nil
}

// SessionInfo is the JSON summary of a session.
type SessionInfo struct {
	ID       string    `json:"id"`
	TableKey string    `json:"table_key"`
	Rows     int       `json:"rows"`
	Revision string    `json:"revision"`
	Created  time.Time `json:"created"`
	LastSeen time.Time `json:"last_seen"`
}

// Info summarizes the session.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:       s.ID,
		TableKey: s.TableKey,
		Rows:     s.Table.Len(),
		Revision: s.Table.Revision(),
		Created:  s.Created,
		LastSeen: s.LastSeen(),
	}
}

// SessionStore holds the live sessions.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl   time.Duration
	max   int
	table config.TableConfig
	loads *LoadLimiter
	now   func() time.Time
}

// NewSessionStore creates a store using the session and table settings.
func NewSessionStore(sc config.SessionConfig, tc config.TableConfig) *SessionStore {
	ttl := sc.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      sc.MaxSessions,
		table:    tc,
		loads:    NewLoadLimiter(sc.MaxLoads, sc.LoadWait),
		now:      time.Now,
	}
}

// Create opens the registered table key in a new session.
func (st *SessionStore) Create(ctx context.Context, key string) (*Session, error) {
	def, ok := core.Get(key)
	if !ok {
		return nil, fmt.Errorf("table not found: %s", key)
	}

	st.mu.Lock()
	full := st.max > 0 && len(st.sessions) >= st.max
	st.mu.Unlock()
	if full {
		return nil, ErrTooManySessions
	}

	def.Columns = core.WithDefaultWidth(def.Columns, st.table.DefaultWidth)
	journal := core.NewJournal(core.DefaultJournalLimit)
	id := uuid.NewString()
	logger := slog.With("session_id", id, "table", key)

	var tbl *core.Table
	err := st.loads.Do(ctx, func(ctx context.Context) error {
		var err error
		tbl, err = def.NewTable(ctx, core.Config{
			PageSize:       st.table.PageSize,
			Page:           pageFor(st.table.PageSize),
			SearchDebounce: st.table.SearchDebounce,
			Listener:       journal,
			OnPageChange: func(page, size int) {
				logger.Debug("page changed", "page", page, "page_size", size)
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	now := st.now()
	sess := &Session{
		ID:       id,
		TableKey: key,
		Def:      def,
		Table:    tbl,
		Journal:  journal,
		Created:  now,
		loads:    st.loads,
		lastSeen: now,
	}

	// Other creates may have finished while this one was loading.
	st.mu.Lock()
	if st.max > 0 && len(st.sessions) >= st.max {
		st.mu.Unlock()
		tbl.Close()
		return nil, ErrTooManySessions
	}
	st.sessions[id] = sess
	st.mu.Unlock()

	logger.Debug("session created", "rows", tbl.Len(), "revision", tbl.Revision())
	return sess, nil
}

// Get returns a live session and marks it used.
func (st *SessionStore) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	st.mu.Lock()
	sess, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	now := st.now()
	if now.Sub(sess.LastSeen()) > st.ttl {
		st.Delete(id)
		return nil, fmt.Errorf("%w: %s", ErrSessionExpired, id)
	}
	sess.touch(now)
	return sess, nil
}

// Delete closes and removes a session. It reports whether it existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		sess.Table.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// List returns summaries of all sessions, oldest first.
func (st *SessionStore) List() []SessionInfo {
	st.mu.Lock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.mu.Unlock()

	out := make([]SessionInfo, len(sessions))
	for i, s := range sessions {
		out[i] = s.Info()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// Sweep removes sessions idle longer than the TTL and returns how many
// were removed.
func (st *SessionStore) Sweep() int {
	now := st.now()
	var expired []*Session

	st.mu.Lock()
	for id, s := range st.sessions {
		if now.Sub(s.LastSeen()) > st.ttl {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Table.Close()
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is cancelled, then
// closes all remaining sessions.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration) {
	slog.Info("session sweeper started", "ttl", st.ttl, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			st.CloseAll()
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				slog.Info("expired sessions removed", "count", n, "remaining", st.Len())
			}
		}
	}
}

// Loads returns the limiter shared by session loads.
func (st *SessionStore) Loads() *LoadLimiter {
	return st.loads
}

// CloseAll closes and removes every session.
func (st *SessionStore) CloseAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.Table.Close()
	}
}

func pageFor(pageSize int) int {
	if pageSize > 0 {
		return 1
	}
	return 0
}
