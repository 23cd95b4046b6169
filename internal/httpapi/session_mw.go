package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"tickdone.org/internal/auth"
	"tickdone.org/internal/session"
)

// withSession resolves the "sid" cookie into a session for every /api/*
// request, issuing a fresh anonymous session when the cookie is missing,
// unknown or expired. A session with a principal id additionally loads
// the principal into the context; a dangling principal id is treated as
// anonymous rather than an error.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		var sess *session.Session
		if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
			resolved, err := a.sessions.Resolve(ctx, c.Value)
			switch {
			case err == nil:
				sess = resolved
			case errors.Is(err, session.ErrNotFound):
				// stale cookie, fall through to a fresh session
			default:
				writeError(w, r, http.StatusInternalServerError, "internal error")
				return
			}
		}
		if sess == nil {
			fresh, err := a.sessions.Begin(ctx)
			if err != nil {
				writeError(w, r, http.StatusInternalServerError, "internal error")
				return
			}
			sess = fresh
			session.SetCookie(w, sess, a.secureCookies)
		}

		ctx = session.ContextWithSession(ctx, sess)
		if sess.PrincipalID != "" {
			p, err := a.users.Find(ctx, sess.PrincipalID)
			switch {
			case err == nil:
				ctx = auth.ContextWithPrincipal(ctx, p)
			case errors.Is(err, auth.ErrNotFound):
				// principal removed since login; keep the request anonymous
			default:
				writeError(w, r, http.StatusInternalServerError, "internal error")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePrincipal answers 401 and returns false when the request carries
// no authenticated principal.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return auth.Principal{}, false
	}
	return p, true
}

// requireCSRF enforces the double-submit check on mutating calls. The
// token travels in X-CSRF-Token; X-XSRF-TOKEN is accepted as an alias
// for clients that echo the cookie name.
func requireCSRF(w http.ResponseWriter, r *http.Request) bool {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusForbidden, "bad CSRF token")
		return false
	}
	submitted := r.Header.Get("X-CSRF-Token")
	if submitted == "" {
		submitted = r.Header.Get("X-XSRF-TOKEN")
	}
	if !session.VerifyCSRF(sess.CSRFSecret, submitted) {
		writeError(w, r, http.StatusForbidden, "bad CSRF token")
		return false
	}
	return true
}

// handleCSRF hands the per-session anti-forgery token to the client,
// both in the body and mirrored in a readable cookie.
func (a *API) handleCSRF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	session.SetCSRFCookie(w, sess.CSRFSecret, sess.ExpiresAt, a.secureCookies)
	writeJSON(w, http.StatusOK, map[string]any{"csrfToken": sess.CSRFSecret})
}
