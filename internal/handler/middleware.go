package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/recova/admin-bfa-go/internal/infra/observability"
	"github.com/recova/admin-bfa-go/internal/session"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type contextKey string

const tokenKey contextKey = "bearerToken"

// BearerAuthMiddleware extracts the Bearer token and injects it into context.
// The token is not validated here; the core API is the authority and any 401
// it returns flows back through handleServiceError.
func BearerAuthMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "authentication token not provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, parts[1])
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromContext extracts the bearer token injected by BearerAuthMiddleware.
func TokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}

// DirectorOnlyMiddleware resolves the caller's profile and rejects non-
// directors. The core enforces the same rule; this gate just answers with a
// clean 403 instead of forwarding a doomed request.
func DirectorOnlyMiddleware(sessions *session.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromContext(r.Context())
			user, err := sessions.Current(r.Context(), token)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			if !user.IsDirector() {
				logger.Warn("director gate: denied",
					zap.Int("user_id", user.ID),
					zap.String("role", user.Role.Code),
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusForbidden, "director role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UnauthorizedEvictionMiddleware clears the cached session whenever a request
// answers 401, no matter which resource call surfaced the rejection. A revoked
// token must have the same effect as logout; without this a warm profile cache
// could restore a dead session until its TTL ran out.
func UnauthorizedEvictionMiddleware(sessions *session.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if ww.Status() == http.StatusUnauthorized {
				if token := TokenFromContext(r.Context()); token != "" {
					sessions.Clear(token)
					logger.Warn("session cleared after upstream rejection",
						zap.String("path", r.URL.Path),
					)
				}
			}
		})
	}
}

// MetricsMiddleware records request counts and durations per route pattern.
func MetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			operation := r.Method + " " + r.URL.Path
			metrics.RecordRequestDuration(operation, time.Since(start))
			if ww.Status() >= 500 {
				metrics.IncrRequest("error")
			} else {
				metrics.IncrRequest("success")
			}
		})
	}
}
