package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/service/auth"
)

type authContextKey string

const contextKeyIdentity authContextKey = "aqd-identity"

// requireAuth resolves the caller identity from the bearer token before
// invoking the handler. Missing, unverifiable and revoked tokens all
// terminate in the same 401; once attached, the identity is immutable for
// the rest of request handling.
func (r *Router) requireAuth(next apiHandler) apiHandler {
	return func(w http.ResponseWriter, req *http.Request) error {
		token, err := bearerToken(req.Header.Get("Authorization"))
		if err != nil {
			r.logger.Warn("authorization header invalid", "error", err, "path", req.URL.Path)
			return NewError(http.StatusUnauthorized, "authentication required")
		}
		identity, err := r.auth.Authorize(req.Context(), token)
		if err != nil {
			return err
		}
		ctx := context.WithValue(req.Context(), contextKeyIdentity, identity)
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		return next(w, req.WithContext(ctx))
	}
}

// identityFromContext extracts the resolved identity from context.
func identityFromContext(ctx context.Context) (auth.Identity, bool) {
	value := ctx.Value(contextKeyIdentity)
	if value == nil {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
