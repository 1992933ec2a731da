package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"oceanos.org/internal/auth"
	"oceanos.org/pkg/api"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// The me endpoint is listed here because it verifies its own token:
// a valid token whose subject no longer exists must answer 404, which
// the blanket middleware would collapse to 401.
var publicPaths = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/refresh",
	"/api/auth/logout",
	"/api/auth/me",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, api.CodeUnauthorized, err.Error())
			return
		}

		acc, err := a.auth.Authenticate(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, api.CodeUnauthorized, "invalid token")
			return
		}

		ctx := auth.ContextWithAccount(r.Context(), acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAccount returns the authenticated account or writes a 401.
func requireAccount(w http.ResponseWriter, r *http.Request) (auth.Account, bool) {
	acc, ok := auth.AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, api.CodeUnauthorized, "authentication required")
		return auth.Account{}, false
	}
	return acc, true
}

// requireRole returns the authenticated account if it holds the role,
// writing 401/403 otherwise.
func requireRole(w http.ResponseWriter, r *http.Request, role auth.Role) (auth.Account, bool) {
	acc, ok := requireAccount(w, r)
	if !ok {
		return auth.Account{}, false
	}
	if acc.Role != role {
		writeError(w, r, http.StatusForbidden, api.CodeForbidden, "insufficient role")
		return auth.Account{}, false
	}
	return acc, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
