package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"callfloor/appctx"
	"callfloor/services"
)

// SessionAuthMiddleware handles bearer token authentication against the
// sessions service. A token is only accepted while its session row is
// still open and the stored token matches, so force logout and session
// replacement invalidate it immediately.
type SessionAuthMiddleware struct {
	sessionsService services.SessionsService
}

// NewSessionAuthMiddleware creates a new authentication middleware instance
func NewSessionAuthMiddleware(sessionsService services.SessionsService) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{sessionsService: sessionsService}
}

// WithAuth wraps an HTTP handler with session token authentication
func (m *SessionAuthMiddleware) WithAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("🔐 Authentication middleware processing request from %s", r.RemoteAddr)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Printf("❌ Missing Authorization header")
			m.writeErrorResponse(w, "missing authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Printf("❌ Invalid Authorization header format")
			m.writeErrorResponse(w, "invalid authorization header format", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			log.Printf("❌ Empty bearer token")
			m.writeErrorResponse(w, "empty bearer token", http.StatusUnauthorized)
			return
		}

		maybeAgent, err := m.sessionsService.CheckToken(r.Context(), token)
		if err != nil {
			log.Printf("❌ Failed to validate session token: %v", err)
			m.writeErrorResponse(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if !maybeAgent.IsPresent() {
			log.Printf("❌ Session token rejected")
			m.writeErrorResponse(w, "invalid token", http.StatusUnauthorized)
			return
		}
		agent := maybeAgent.MustGet()

		log.Printf("✅ Agent authenticated successfully: %s", agent.ID)
		ctx := appctx.SetAgent(r.Context(), agent)
		r = r.WithContext(ctx)

		next(w, r)
	}
}

// writeErrorResponse writes a standardized error response
func (m *SessionAuthMiddleware) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("❌ Failed to encode error response: %v", err)
	}
}
