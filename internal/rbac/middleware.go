package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/shared"
)

// Middleware wires role authorization for HTTP handlers.
type Middleware struct {
	Service RoleChecker
	Logger  *slog.Logger
}

// RequireRole ensures the current user holds the role. Missing session
// yields 401; a missing assignment or a lookup fault yields 403.
func (m Middleware) RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := m.currentUserID(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if role == "" {
				next.ServeHTTP(w, r)
				return
			}
			granted, err := m.Service.HasRole(r.Context(), userID, role)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac require role", slog.String("role", string(role)), slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if !granted {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole authorizes when the user holds at least one of the roles.
func (m Middleware) RequireAnyRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := m.currentUserID(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				granted, err := m.Service.HasRole(r.Context(), userID, role)
				if err != nil {
					if m.Logger != nil {
						m.Logger.Error("rbac require any role", slog.Any("error", err))
					}
					continue
				}
				if granted {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}
