package http

import (
	"context"
	"net/http"

	"expenseadvisor/internal/core"
	applog "expenseadvisor/internal/log"
	"expenseadvisor/internal/services"
	"expenseadvisor/internal/sessions"
)

// SessionCookieName holds the session ID. It carries no other state.
const SessionCookieName = "expense_session"

// LedgerService is the part of the service layer the handlers use.
type LedgerService interface {
	Resolve(ctx context.Context, id string) (*sessions.Session, bool, error)
	AddExpense(ctx context.Context, sessionID string, e core.ExpenseEntry) (core.ExpenseEntry, error)
	UpdateBudget(ctx context.Context, sessionID string, b core.BudgetSettings) error
	Snapshot(ctx context.Context, sessionID string) (services.View, error)
	Ping(ctx context.Context) error
}

type sessionKey struct{}

// withSession resolves the caller's session from the cookie, starting a new
// one when the cookie is missing, malformed or points at an expired session.
// The resolved snapshot is available through sessionFrom.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var id string
		if c, err := r.Cookie(SessionCookieName); err == nil && sessions.ValidID(c.Value) {
			id = c.Value
		}

		sess, created, err := s.svc.Resolve(ctx, id)
		if err != nil {
			applog.NewStructuredLogger(applog.FromContext(ctx)).
				LogError(ctx, "Failed to resolve session", err, applog.ComponentSession, applog.OpRead, nil)
			InternalServerError("Could not start a session").Write(w)
			return
		}
		if created {
			http.SetCookie(w, sessionCookie(sess.ID, r.TLS != nil))
			if id != "" {
				applog.FromContext(ctx).InfoContext(ctx, "Session expired, started a new one",
					applog.FieldSessionID, sess.ID)
			}
		}

		ctx = context.WithValue(ctx, sessionKey{}, sess)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldSessionID, sess.ID))
		next(w, r.WithContext(ctx))
	}
}

// sessionCookie is a browser-session cookie; it disappears when the browser closes.
func sessionCookie(id string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionFrom returns the session snapshot taken when the request arrived.
func sessionFrom(ctx context.Context) (*sessions.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*sessions.Session)
	return sess, ok
}
