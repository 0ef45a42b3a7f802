package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tiendix/tiendix/internal/app"
	"github.com/tiendix/tiendix/internal/domain"
	"github.com/tiendix/tiendix/internal/scope"
)

const (
	publicPrefix = "/api/v1/tiendas/"
	ownerPrefix  = "/api/v1/mi/"
)

// Authenticator extracts a bearer token and, when it verifies, attaches the
// identity to the request context. Requests without a valid token proceed
// unauthenticated; route handlers decide whether that is acceptable.
func Authenticator(verifier domain.IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token != "" {
				if identity, err := verifier.Verify(r.Context(), token); err == nil {
					r = r.WithContext(scope.WithIdentity(r.Context(), identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TenantScope resolves the request's tenant and installs it as a context
// value for the life of the request. The scope dies with the request
// context on every exit path, so a later request served by the same
// goroutine can never observe a stale tenant.
//
// Preflight requests bypass resolution entirely.
func TenantScope(resolver *app.TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			var identity *domain.Identity
			if id, ok := scope.Identity(ctx); ok {
				identity = &id
			}

			slug := slugFromPath(r.URL.Path)
			ownerScoped := strings.HasPrefix(r.URL.Path, ownerPrefix)

			tenant, ok, err := resolver.Resolve(ctx, slug, identity, ownerScoped)
			if err != nil {
				if errors.Is(err, domain.ErrTenantNotFound) {
					writeError(w, http.StatusNotFound, "tenant does not exist")
					return
				}
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if ok {
				ctx = scope.WithTenant(ctx, tenant)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// slugFromPath extracts the store slug from /api/v1/tiendas/{slug}/...
// paths. The bare collection path (store creation, listing) has no slug.
func slugFromPath(path string) string {
	if !strings.HasPrefix(path, publicPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(path, publicPrefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// writeError emits a minimal structured error body for failures that occur
// before the request reaches a huma handler.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"detail": message,
	})
}
