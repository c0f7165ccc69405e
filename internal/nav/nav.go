// Package nav routes logical paths to view handlers behind a session gate.
package nav

import (
	"log/slog"
	"sync"
)

// Logical routes.
const (
	RouteLogin   = "/"
	RouteBills   = "#employee/bills"
	RouteNewBill = "#employee/bill/new"
)

// Navigator performs a view transition. Calls are fire-and-forget.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// SessionChecker reports whether a user is signed in.
type SessionChecker interface {
	SignedIn() bool
}

// Handler renders the view for a route.
type Handler func(path string)

// Router dispatches paths to handlers. Routes other than RouteLogin require a
// session; without one the router falls back to RouteLogin.
type Router struct {
	mu       sync.Mutex
	session  SessionChecker
	handlers map[string]Handler
	history  []string
}

// NewRouter returns a router gated by session.
func NewRouter(session SessionChecker) *Router {
	return &Router{session: session, handlers: make(map[string]Handler)}
}

// Handle registers h for path, replacing any previous handler.
func (r *Router) Handle(path string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[path] = h
}

// Navigate resolves path and runs its handler outside the router lock so
// handlers may navigate again.
func (r *Router) Navigate(path string) {
	r.mu.Lock()
	if path != RouteLogin && (r.session == nil || !r.session.SignedIn()) {
		slog.Info("No session, redirecting to login", "requested", path)
		path = RouteLogin
	}
	h, ok := r.handlers[path]
	if !ok {
		r.mu.Unlock()
		slog.Warn("Unknown route", "path", path)
		return
	}
	r.history = append(r.history, path)
	r.mu.Unlock()

	h(path)
}

// History returns the routes that were dispatched, in order.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

var _ Navigator = (*Router)(nil)
