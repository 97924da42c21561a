package internal

import (
	"encoding/json"
	"net/http"

	"asset-tracker-api/internal/auth"
	"asset-tracker-api/internal/models"
)

// getDashboardStats summarizes the assets visible to the caller. Regular
// users get their own assets; admins get everything.
func (s *Server) getDashboardStats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	sqlStr := `
		SELECT COUNT(*), COALESCE(SUM(cost), 0), COALESCE(AVG(cost), 0)
		FROM assets`
	args := []interface{}{}
	if !auth.IsAdmin(r.Context()) {
		sqlStr += " WHERE created_by = $1"
		args = append(args, userID)
	}

	var stats models.DashboardStats
	q := dbFrom(r.Context(), s.DB)
	if err := q.QueryRowContext(r.Context(), sqlStr, args...).
		Scan(&stats.TotalAssets, &stats.TotalValue, &stats.AverageValue); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// getAdminStats summarizes the whole system, including per-category counts
// and the user total (admin only)
func (s *Server) getAdminStats(w http.ResponseWriter, r *http.Request) {
	var stats models.AdminStats
	q := dbFrom(r.Context(), s.DB)

	if err := q.QueryRowContext(r.Context(), `
		SELECT COUNT(*), COALESCE(SUM(cost), 0), COALESCE(AVG(cost), 0)
		FROM assets
	`).Scan(&stats.TotalAssets, &stats.TotalValue, &stats.AverageValue); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	if err := q.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	rows, err := q.QueryContext(r.Context(), `
		SELECT COALESCE(c.name, 'Uncategorized'), COUNT(a.id)
		FROM assets a
		LEFT JOIN categories c ON a.category_id = c.id
		GROUP BY c.name
		ORDER BY COUNT(a.id) DESC, c.name
	`)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	stats.ByCategory = []models.CategoryCount{}
	for rows.Next() {
		var cc models.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		stats.ByCategory = append(stats.ByCategory, cc)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
