package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"coursetrack/internal/model"
	"coursetrack/internal/session"
)

// Injected key type to avoid context collisions
type contextKey string

const sessionContextKey = contextKey("session")

// SessionFromContext returns the record a guard stored for this request.
func SessionFromContext(ctx context.Context) (*session.Record, bool) {
	rec, ok := ctx.Value(sessionContextKey).(*session.Record)
	return rec, ok
}

// RequireAuth rejects requests without a valid session and stores the record
// in the request context for downstream handlers.
func RequireAuth(mgr session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, err := mgr.Get(r)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is RequireAuth plus an admin role check.
func RequireAdmin(mgr session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, err := mgr.Get(r)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if rec.Role != model.RoleAdmin {
				writeJSONError(w, http.StatusForbidden, "admin access required")
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
