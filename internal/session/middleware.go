package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const idValueKey = "sid"

// Manager loads the browser session for each request
type Manager struct {
	store  sessions.Store
	name   string
	logger *zap.Logger
}

// NewManager creates a session manager using the named cookie
func NewManager(store sessions.Store, name string, logger *zap.Logger) *Manager {
	return &Manager{
		store:  store,
		name:   name,
		logger: logger,
	}
}

// NewCookieStore creates a cookie store whose cookies die with the browser session
func NewCookieStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Middleware attaches the session to the request context, issuing an id when missing
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			// Unreadable cookies (rotated secret, tampering) start a fresh session
			m.logger.Warn("discarding unreadable session cookie", zap.Error(err))
			sess = sessions.NewSession(m.store, m.name)
			if cs, ok := m.store.(*sessions.CookieStore); ok && cs.Options != nil {
				opts := *cs.Options
				sess.Options = &opts
			}
			sess.IsNew = true
		}

		id, _ := sess.Values[idValueKey].(string)
		if id == "" {
			id = uuid.NewString()
			sess.Values[idValueKey] = id
			if err := sess.Save(r, w); err != nil {
				m.logger.Error("failed to issue session cookie", zap.Error(err))
				http.Error(w, "Session error", http.StatusInternalServerError)
				return
			}
		}

		rs := &requestSession{id: id, session: sess, r: r, w: w}
		ctx := context.WithValue(r.Context(), contextKey{}, rs)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
