package handler

import (
	"encoding/json"
	"net/http"

	"github.com/recova/admin-bfa-go/internal/session"

	"go.uber.org/zap"
)

// ============================================================
// Authentication handlers for /v1/auth.
// ============================================================

func authLoginHandler(sessions *session.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		sess, err := sessions.Login(ctx, req.Username, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// authMeHandler restores a session from a persisted token. The front end
// calls it on startup; a 401 here means the stored token is dead and must be
// discarded.
func authMeHandler(sessions *session.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/auth/me")
		defer span.End()

		sess, err := sessions.Restore(ctx, TokenFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func authLogoutHandler(sessions *session.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		sessions.Clear(TokenFromContext(r.Context()))
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}
