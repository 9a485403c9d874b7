package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Scope memoizes query results for the duration of one request. Repeated
// calls for the same key — sequential or concurrent — invoke the
// underlying fetch at most once; concurrent callers share the in-flight
// result. The scope is dropped with the request, so no state leaks
// across renders.
type Scope struct {
	group   singleflight.Group
	mu      sync.Mutex
	results map[string]scopeResult
}

type scopeResult struct {
	val any
	err error
}

// NewScope returns an empty request scope.
func NewScope() *Scope {
	return &Scope{results: make(map[string]scopeResult)}
}

// Do returns the memoized result for key, running fn exactly once per
// scope. Errors are memoized too: within one render the first outcome
// is the outcome.
func (s *Scope) Do(key string, fn func() (any, error)) (any, error) {
	s.mu.Lock()
	if r, ok := s.results[key]; ok {
		s.mu.Unlock()
		return r.val, r.err
	}
	s.mu.Unlock()

	// The memo is written inside the flight so that by the time Do
	// returns, later callers are guaranteed to see the result.
	val, err, _ := s.group.Do(key, func() (any, error) {
		v, e := fn()
		s.mu.Lock()
		s.results[key] = scopeResult{val: v, err: e}
		s.mu.Unlock()
		return v, e
	})
	return val, err
}

type scopeCtxKey struct{}

// WithScope attaches a fresh request scope to ctx.
func WithScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeCtxKey{}, NewScope())
}

// ScopeFrom returns the request scope attached to ctx, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeCtxKey{}).(*Scope)
	return s
}
