package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"oceanos.org/internal/audit"
	"oceanos.org/internal/auth"
	"oceanos.org/pkg/api"
)

func (a *API) handleAuth(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimPrefix(r.URL.Path, "/api/auth/") {
	case "login":
		a.login(w, r)
	case "register":
		a.register(w, r)
	case "refresh":
		a.refresh(w, r)
	case "logout":
		a.logout(w, r)
	case "me":
		a.me(w, r)
	default:
		writeError(w, r, http.StatusNotFound, api.CodeNotFound, "resource not found")
	}
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	sess, err := a.auth.Login(strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		// One answer for every failure mode, so callers cannot probe
		// which emails exist.
		writeError(w, r, http.StatusUnauthorized, api.CodeInvalidCredentials, "invalid credentials")
		return
	}

	ctx := auth.ContextWithAccount(r.Context(), sess.Account)
	_ = audit.LogEvent(ctx, "auth.login", map[string]any{"email": sess.Account.Email})

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
		"user":         sess.Account,
	})
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	sess, err := a.auth.Register(req.Email, req.Password, req.Name, req.Role, req.Organization)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	ctx := auth.ContextWithAccount(r.Context(), sess.Account)
	_ = audit.LogEvent(ctx, "auth.register", map[string]any{
		"email": sess.Account.Email,
		"role":  string(sess.Account.Role),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
		"user":         sess.Account,
	})
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req api.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	access, err := a.auth.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, api.CodeUnauthorized, "invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, api.RefreshResponse{AccessToken: access})
}

// logout always succeeds; revoking an unknown token is a no-op.
func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req api.LogoutRequest
	if err := decodeJSON(w, r, &req); err == nil {
		a.auth.Logout(req.RefreshToken)
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeJSON(w, http.StatusOK, api.LogoutResponse{Success: true})
}

// me verifies the token itself instead of relying on the middleware,
// so it can distinguish a bad token (401) from a valid token whose
// subject has since disappeared (404).
func (a *API) me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, api.CodeUnauthorized, err.Error())
		return
	}
	acc, err := a.auth.Me(token)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acc})
}

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrDuplicateAccount):
		writeError(w, r, http.StatusBadRequest, api.CodeDuplicateAccount, "account already exists")
	case errors.Is(err, auth.ErrInvalidRole):
		writeError(w, r, http.StatusBadRequest, api.CodeInvalidRole, err.Error())
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, api.CodeUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, api.CodeNotFound, "account not found")
	default:
		writeError(w, r, http.StatusInternalServerError, api.CodeInternal, "internal error")
	}
}
