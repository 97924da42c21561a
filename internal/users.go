package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"asset-tracker-api/internal/auth"
	"asset-tracker-api/internal/models"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, email, password_hash, full_name, role, is_active, created_at, updated_at, last_login_at`

func scanUser(scan func(dest ...interface{}) error, extra ...interface{}) (models.User, error) {
	var u models.User
	dest := []interface{}{
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	}
	dest = append(dest, extra...)
	return u, scan(dest...)
}

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

// loginUser authenticates an account and issues a JWT. The response never
// reveals whether the email or the password was wrong.
func (s *Server) loginUser(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", 400)
		return
	}

	u, err := scanUser(s.DB.QueryRowContext(r.Context(),
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(req.Email)).Scan)
	if err == sql.ErrNoRows {
		auth.SendErrorResponse(w, "invalid credentials", "INVALID_CREDENTIALS", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		auth.SendErrorResponse(w, "invalid credentials", "INVALID_CREDENTIALS", http.StatusUnauthorized)
		return
	}
	if !u.IsActive {
		auth.SendErrorResponse(w, "account is disabled", "ACCOUNT_DISABLED", http.StatusForbidden)
		return
	}

	token, err := s.JWTManager.GenerateToken(u.ID, u.Role)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	// Best effort; a failed timestamp update must not block the login.
	_, _ = s.DB.ExecContext(r.Context(),
		`UPDATE users SET last_login_at = now() WHERE id = $1`, u.ID)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(models.LoginResponse{
		Token: token,
		User:  u.Redacted(),
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// createUser handles creating a new account (admin only)
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if !validEmail(req.Email) {
		http.Error(w, "a valid email is required", 400)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, "password must be at least 8 characters", 400)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if !models.IsValidRole(req.Role) {
		http.Error(w, "role must be admin or user", 400)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	q := dbFrom(r.Context(), s.DB)
	u, err := scanUser(q.QueryRowContext(r.Context(), `
		INSERT INTO users (email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		req.Email, string(hash), req.FullName, req.Role).Scan)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			http.Error(w, "email already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(u.Redacted()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// listUsers handles listing accounts with pagination and search (admin only)
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	sqlStr := `
		SELECT ` + userColumns + `,
		       COUNT(*) OVER() as total_count
		FROM users`
	args := []interface{}{}
	if params.q != "" {
		sqlStr += " WHERE email ILIKE $1 OR full_name ILIKE $1"
		args = append(args, "%"+params.q+"%")
	}

	allowedSort := map[string]string{
		"id":            "id",
		"email":         "email",
		"full_name":     "full_name",
		"role":          "role",
		"created_at":    "created_at",
		"last_login_at": "last_login_at",
	}
	if params.sort == "" {
		params.sort = "email"
	}
	sqlStr += buildOrderBy(params.sort, allowedSort)
	sqlStr += fmt.Sprintf(" LIMIT %d OFFSET %d", params.limit, params.offset)

	rows, err := dbFrom(r.Context(), s.DB).QueryContext(r.Context(), sqlStr, args...)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	users := []interface{}{}
	var totalCount int
	for rows.Next() {
		u, err := scanUser(rows.Scan, &totalCount)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		users = append(users, u.Redacted())
	}

	sendListResponse(w, users, totalCount, params)
}

// getUser handles getting a single account by ID (admin only)
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := scanUser(dbFrom(r.Context(), s.DB).QueryRowContext(r.Context(),
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id).Scan)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(u.Redacted()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// updateUser handles updating an account (admin only). Admins cannot demote
// or disable themselves; that would lock the last admin out.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	callerID := auth.UserIDFromContext(r.Context())

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if req.FullName == nil && req.Role == nil && req.IsActive == nil {
		http.Error(w, "no fields to update", 400)
		return
	}
	if req.Role != nil && !models.IsValidRole(*req.Role) {
		http.Error(w, "role must be admin or user", 400)
		return
	}

	if id == strconv.FormatInt(callerID, 10) {
		if req.Role != nil && *req.Role != models.RoleAdmin {
			http.Error(w, "cannot change own role", 400)
			return
		}
		if req.IsActive != nil && !*req.IsActive {
			http.Error(w, "cannot disable own account", 400)
			return
		}
	}

	u, err := scanUser(dbFrom(r.Context(), s.DB).QueryRowContext(r.Context(), `
		UPDATE users
		SET full_name = COALESCE($1, full_name),
		    role = COALESCE($2, role),
		    is_active = COALESCE($3, is_active),
		    updated_at = now()
		WHERE id = $4
		RETURNING `+userColumns,
		req.FullName, req.Role, req.IsActive, id).Scan)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(u.Redacted()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// deleteUser handles deleting an account (admin only)
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	callerID := auth.UserIDFromContext(r.Context())

	if id == strconv.FormatInt(callerID, 10) {
		http.Error(w, "cannot delete own account", 400)
		return
	}

	res, err := dbFrom(r.Context(), s.DB).ExecContext(r.Context(),
		`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getUserProfile returns the calling user's own account
func (s *Server) getUserProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	u, err := scanUser(dbFrom(r.Context(), s.DB).QueryRowContext(r.Context(),
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID).Scan)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(u.Redacted()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// updateUserProfile updates the calling user's own display name
func (s *Server) updateUserProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if req.FullName == nil {
		http.Error(w, "no fields to update", 400)
		return
	}

	u, err := scanUser(dbFrom(r.Context(), s.DB).QueryRowContext(r.Context(), `
		UPDATE users SET full_name = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns,
		nullIfEmpty(req.FullName), userID).Scan)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(u.Redacted()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// changePassword updates the calling user's password after verifying the
// current one
func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if len(req.NewPassword) < 8 {
		http.Error(w, "new password must be at least 8 characters", 400)
		return
	}

	var currentHash string
	q := dbFrom(r.Context(), s.DB)
	if err := q.QueryRowContext(r.Context(),
		`SELECT password_hash FROM users WHERE id = $1`, userID).
		Scan(&currentHash); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(req.CurrentPassword)); err != nil {
		auth.SendErrorResponse(w, "current password is incorrect", "INVALID_CREDENTIALS", http.StatusUnauthorized)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	if _, err := q.ExecContext(r.Context(),
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		string(hash), userID); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
