package filter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
)

const sessionIdleTTL = 30 * time.Minute

// Engine serves student pages from a Source, one session per UI list.
//
// Within a session only the latest query may produce a result: a newer
// query cancels the older one and the older caller gets *domain.ErrSuperseded.
// Queries whose search term changed wait for the debounce delay first, so a
// burst of keystrokes dispatches a single fetch.
type Engine struct {
	source   Source
	debounce time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics

	mu        sync.Mutex
	sessions  map[string]*session
	lastPrune time.Time
	now       func() time.Time
}

type session struct {
	gen      uint64
	last     Criteria
	hasLast  bool
	cancel   context.CancelFunc
	lastSeen time.Time
}

// NewEngine creates an engine. metrics may be nil.
func NewEngine(source Source, debounce time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		source:   source,
		debounce: debounce,
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Mode returns the data source mode.
func (e *Engine) Mode() string { return e.source.Mode() }

// List returns the page for c within session key.
//
// If any filter other than the page differs from the session's previous
// query, the page is reset to 1.
func (e *Engine) List(ctx context.Context, key string, c Criteria) (*domain.StudentPage, error) {
	c = c.Normalize()

	gen, fetchCtx, cancel, c, wait := e.begin(ctx, key, c)
	defer cancel()

	if wait {
		timer := time.NewTimer(e.debounce)
		select {
		case <-timer.C:
		case <-fetchCtx.Done():
			timer.Stop()
		}
		if !e.current(key, gen) {
			return nil, e.superseded(key)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	page, err := e.source.FetchPage(fetchCtx, c)

	if !e.current(key, gen) {
		return nil, e.superseded(key)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

// begin registers a new query in the session, cancelling the previous one.
func (e *Engine) begin(ctx context.Context, key string, c Criteria) (uint64, context.Context, context.CancelFunc, Criteria, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.pruneLocked(now)

	s, ok := e.sessions[key]
	if !ok {
		s = &session{}
		e.sessions[key] = s
	}

	if s.hasLast && !c.SameFilters(s.last) {
		c.Page = 1
	}
	searchChanged := (s.hasLast && s.last.SearchTerm != c.SearchTerm) || (!s.hasLast && c.SearchTerm != "")

	if s.cancel != nil {
		s.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)

	s.gen++
	s.last = c
	s.hasLast = true
	s.cancel = cancel
	s.lastSeen = now

	return s.gen, fetchCtx, cancel, c, searchChanged && e.debounce > 0
}

func (e *Engine) current(key string, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[key]
	return ok && s.gen == gen
}

func (e *Engine) superseded(key string) error {
	if e.metrics != nil {
		e.metrics.IncrSuperseded(e.source.Mode())
	}
	e.logger.Debug("student query superseded", zap.String("session", key))
	return &domain.ErrSuperseded{Session: key}
}

// Forget drops a session, e.g. when the user leaves the list view. An
// in-flight query of that session is cancelled and discarded.
func (e *Engine) Forget(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[key]; ok {
		if s.cancel != nil {
			s.cancel()
		}
		delete(e.sessions, key)
	}
}

func (e *Engine) pruneLocked(now time.Time) {
	if now.Sub(e.lastPrune) < time.Minute {
		return
	}
	e.lastPrune = now
	for k, s := range e.sessions {
		if now.Sub(s.lastSeen) > sessionIdleTTL {
			delete(e.sessions, k)
		}
	}
}
