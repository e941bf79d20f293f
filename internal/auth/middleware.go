package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/gatehouse/internal/models"
	pkghttp "github.com/BradenHooton/gatehouse/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// PrincipalContextKey is the key for storing the authenticated principal in context
	PrincipalContextKey contextKey = "principal"
)

// Authorizer resolves a bearer token to a principal
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*models.Principal, error)
}

// AuthMiddleware requires a valid bearer token and injects the principal into
// the request context
func AuthMiddleware(authorizer Authorizer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := pkghttp.BearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "Not authenticated")
				return
			}

			principal, err := authorizer.Authorize(r.Context(), token)
			if err != nil {
				if errors.Is(err, models.ErrUnavailable) {
					pkghttp.WriteUnavailable(w, "Service temporarily unavailable")
					return
				}
				pkghttp.WriteUnauthorized(w, "Could not validate credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying principal
func WithPrincipal(ctx context.Context, principal *models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, principal)
}

// GetPrincipalFromContext extracts the principal from request context
func GetPrincipalFromContext(r *http.Request) *models.Principal {
	principal, ok := r.Context().Value(PrincipalContextKey).(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}
