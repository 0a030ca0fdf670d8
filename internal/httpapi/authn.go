package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"planhub.org/internal/auth"
	"planhub.org/internal/pm"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth verifies the bearer token, resolves it to the current user
// record and attaches the actor to the request context. Handlers behind it
// never run unauthenticated.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			unauthorized(w, r, err.Error())
			return
		}
		actor, err := a.sessions.ResolveAccess(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, pm.ErrNotFound):
				unauthorized(w, r, "invalid token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(pm.ContextWithActor(r.Context(), actor)))
	})
}

// requireRole gates a route to the given roles. Declared per route, not
// inside handlers.
func requireRole(roles ...pm.Role) func(http.Handler) http.Handler {
	allowed := make(map[pm.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := pm.ActorFromContext(r.Context())
			if !ok {
				unauthorized(w, r, "authentication required")
				return
			}
			if _, ok := allowed[actor.Role]; !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, r, http.StatusForbidden, "role not permitted for this route")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, r, http.StatusUnauthorized, msg)
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

// mustActor returns the actor attached by withAuth. Routes reaching the
// handlers are always behind withAuth, so a miss is a wiring bug.
func mustActor(w http.ResponseWriter, r *http.Request) (pm.Actor, bool) {
	actor, ok := pm.ActorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return pm.Actor{}, false
	}
	return actor, true
}
