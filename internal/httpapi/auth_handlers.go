package httpapi

import (
	"net/http"

	"tickdone.org/internal/audit"
	"tickdone.org/internal/auth"
	"tickdone.org/internal/session"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.users.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"principal_id": p.ID,
		"email":        p.Email,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"user": p})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}
	p, err := a.users.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	// Session regeneration on privilege change.
	old, _ := session.FromContext(r.Context())
	fresh, err := a.sessions.Attach(r.Context(), old, p.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	session.SetCookie(w, fresh, a.secureCookies)

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"principal_id": p.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"user": p})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireCSRF(w, r) {
		return
	}
	sess, _ := session.FromContext(r.Context())
	if sess != nil {
		if err := a.sessions.Destroy(r.Context(), sess.ID); err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
	}
	session.ClearCookie(w, a.secureCookies)
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
		"principal_id": p.ID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	// Bare principal, not the {user: ...} envelope of register/login.
	writeJSON(w, http.StatusOK, p)
}
