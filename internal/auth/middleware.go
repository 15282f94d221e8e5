package auth

import (
	"net/http"

	"github.com/sheikh-saqib/double-entry-balancer/internal/logger"
)

// Authenticate resolves HTTP basic credentials into a Principal. An empty
// registry grants every request admin permissions, for local use.
func Authenticate(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reg == nil || reg.Len() == 0 {
				p := Principal{ID: "anonymous", Role: RoleAdmin, Permissions: PermissionsFor(RoleAdmin)}
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
				return
			}

			id, key, ok := r.BasicAuth()
			if !ok {
				logger.Info("auth middleware missing credentials", logger.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				})
				w.Header().Set("WWW-Authenticate", `Basic realm="ledger"`)
				http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}

			p, err := reg.Authenticate(id, key)
			if err != nil {
				logger.Info("auth middleware unauthorized request", logger.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"operator":    id,
					"credentials": "invalid",
				})
				http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// Require rejects requests whose principal lacks perm.
func Require(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}
			if !p.Permissions.Allows(perm) {
				logger.Info("auth middleware forbidden request", logger.Fields{
					"path":       r.URL.Path,
					"operator":   p.ID,
					"permission": perm.String(),
				})
				http.Error(w, ErrForbidden.Error(), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
