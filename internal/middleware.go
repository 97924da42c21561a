package internal

import (
	"database/sql"
	"net/http"

	"asset-tracker-api/internal/auth"
)

// withDBRole re-derives the caller's role from the users table on every
// request. The JWT role is only a hint: demotions, promotions, and
// deactivations take effect immediately instead of waiting for the token to
// expire.
func (s *Server) withDBRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserIDFromContext(r.Context())
		if userID <= 0 {
			auth.SendErrorResponse(w, "Authentication required", "AUTHENTICATION_REQUIRED", http.StatusUnauthorized)
			return
		}

		var role string
		var isActive bool
		err := s.DB.QueryRowContext(r.Context(),
			`SELECT role, is_active FROM users WHERE id = $1`, userID).Scan(&role, &isActive)
		if err == sql.ErrNoRows {
			auth.SendErrorResponse(w, "Account not found", "ACCOUNT_NOT_FOUND", http.StatusUnauthorized)
			return
		}
		if err != nil {
			http.Error(w, "database error", http.StatusInternalServerError)
			return
		}
		if !isActive {
			auth.SendErrorResponse(w, "Account is disabled", "ACCOUNT_DISABLED", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithRole(r.Context(), role)))
	})
}
