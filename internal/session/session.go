// Package session scopes guest state to one browser session.
//
// A gorilla/sessions cookie identifies the browser session. Values are kept by a
// Backend: in the cookie itself, in Redis, or in process memory.
package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
)

// ErrNoSession is returned by backends when the context carries no session
var ErrNoSession = errors.New("no session in context")

// Backend stores string values scoped to the caller's browser session
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type contextKey struct{}

type requestSession struct {
	id      string
	session *sessions.Session
	r       *http.Request
	w       http.ResponseWriter
}

// WithID returns a context bound to session id without a cookie.
// Used by background callers and tests of server-side backends.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, &requestSession{id: id})
}

// IDFromContext returns the session id carried by ctx
func IDFromContext(ctx context.Context) (string, bool) {
	rs, ok := ctx.Value(contextKey{}).(*requestSession)
	if !ok || rs.id == "" {
		return "", false
	}
	return rs.id, true
}

func fromContext(ctx context.Context) (*requestSession, error) {
	rs, ok := ctx.Value(contextKey{}).(*requestSession)
	if !ok {
		return nil, ErrNoSession
	}
	return rs, nil
}
