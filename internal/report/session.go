package report

import (
	"context"
	"sync"
)

// Session serializes the queries of one dashboard client. Only the result
// of the most recently issued query is ever surfaced: an older query still
// in flight is cancelled and its result dropped with ErrStaleResult,
// whatever order the fetches complete in.
type Session struct {
	svc *Service

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	filter   Filter
	ready    *Result
	fetching bool
}

// NewSession returns an idle session backed by svc.
func NewSession(svc *Service) *Session {
	return &Session{svc: svc}
}

// Query fetches and derives q. A failed query clears the ready result so
// that stale views are never shown next to an error.
func (s *Session) Query(ctx context.Context, q Query) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.filter = q.Category
	s.fetching = true
	s.mu.Unlock()

	res, err := s.svc.Query(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return nil, ErrStaleResult
	}
	s.cancel = nil
	s.fetching = false
	if err != nil {
		s.ready = nil
		return nil, err
	}
	// a filter applied while fetching wins over the one the query started with
	if res.Filter != s.filter.String() {
		res = res.WithFilter(s.filter)
	}
	s.ready = res
	return res, nil
}

// Filter re-derives the ready result for f without fetching. While a query
// is in flight the filter is recorded and applied when it completes, and
// ErrNoResult is returned.
func (s *Session) Filter(f Filter) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	if s.fetching || s.ready == nil {
		return nil, ErrNoResult
	}
	s.ready = s.ready.WithFilter(f)
	return s.ready, nil
}

// Apply answers q from the ready result when it covers the same card and
// period, and runs a full query otherwise.
func (s *Session) Apply(ctx context.Context, q Query) (*Result, error) {
	s.mu.Lock()
	reuse := !s.fetching && s.ready != nil && s.ready.Query().SamePeriod(q)
	s.mu.Unlock()
	if reuse {
		if res, err := s.Filter(q.Category); err == nil {
			return res, nil
		}
	}
	return s.Query(ctx, q)
}

// Ready returns the last successful result, or nil.
func (s *Session) Ready() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}
