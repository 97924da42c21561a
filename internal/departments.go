package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"asset-tracker-api/internal/models"

	"github.com/go-chi/chi/v5"
)

// listDepartments handles listing departments with pagination and search
func (s *Server) listDepartments(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	sqlStr := `
		SELECT id, name, created_at, updated_at,
		       COUNT(*) OVER() as total_count
		FROM departments`
	args := []interface{}{}
	if params.q != "" {
		sqlStr += " WHERE name ILIKE $1"
		args = append(args, "%"+params.q+"%")
	}

	allowedSort := map[string]string{
		"id":         "id",
		"name":       "name",
		"created_at": "created_at",
	}
	if params.sort == "" {
		params.sort = "name"
	}
	sqlStr += buildOrderBy(params.sort, allowedSort)
	sqlStr += fmt.Sprintf(" LIMIT %d OFFSET %d", params.limit, params.offset)

	q := dbFrom(r.Context(), s.DB)
	rows, err := q.QueryContext(r.Context(), sqlStr, args...)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	departments := []interface{}{}
	var totalCount int
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt, &totalCount); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		departments = append(departments, d)
	}

	sendListResponse(w, departments, totalCount, params)
}

// getDepartment handles getting a single department by ID
func (s *Server) getDepartment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var d models.Department
	q := dbFrom(r.Context(), s.DB)
	err := q.QueryRowContext(r.Context(), `
		SELECT id, name, created_at, updated_at
		FROM departments WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// createDepartment handles creating a new department (admin only)
func (s *Server) createDepartment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", 400)
		return
	}

	var d models.Department
	q := dbFrom(r.Context(), s.DB)
	err := q.QueryRowContext(r.Context(), `
		INSERT INTO departments (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, strings.TrimSpace(req.Name)).
		Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			http.Error(w, "department name already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// updateDepartment handles renaming a department (admin only)
func (s *Server) updateDepartment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", 400)
		return
	}

	var d models.Department
	q := dbFrom(r.Context(), s.DB)
	err := q.QueryRowContext(r.Context(), `
		UPDATE departments
		SET name = $1, updated_at = now()
		WHERE id = $2
		RETURNING id, name, created_at, updated_at
	`, strings.TrimSpace(req.Name), id).
		Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			http.Error(w, "department name already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// deleteDepartment handles deleting a department (admin only)
func (s *Server) deleteDepartment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	q := dbFrom(r.Context(), s.DB)
	res, err := q.ExecContext(r.Context(), `DELETE FROM departments WHERE id = $1`, id)
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
