package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"asset-tracker-api/internal/auth"
	"asset-tracker-api/internal/models"

	"github.com/go-chi/chi/v5"
)

const assetColumns = `a.id, a.name, a.category_id, a.department_id, a.cost, a.date_purchased,
	       a.serial_number, a.manufacturer, a.model_number, a.created_by, a.created_at, a.updated_at,
	       c.name, d.name, u.full_name`

const assetJoins = `
		FROM assets a
		LEFT JOIN categories c ON a.category_id = c.id
		LEFT JOIN departments d ON a.department_id = d.id
		LEFT JOIN users u ON a.created_by = u.id`

// scanAssetRow scans one joined asset row into an AssetWithRelations.
// extra receives trailing columns (e.g. the window total count).
func scanAssetRow(scan func(dest ...interface{}) error, extra ...interface{}) (models.AssetWithRelations, error) {
	var out models.AssetWithRelations
	var datePurchased time.Time
	var catName, deptName, creatorName sql.NullString

	dest := []interface{}{
		&out.ID, &out.Name, &out.CategoryID, &out.DepartmentID, &out.Cost, &datePurchased,
		&out.SerialNumber, &out.Manufacturer, &out.ModelNumber, &out.CreatedBy, &out.CreatedAt, &out.UpdatedAt,
		&catName, &deptName, &creatorName,
	}
	dest = append(dest, extra...)

	if err := scan(dest...); err != nil {
		return out, err
	}

	out.DatePurchased = datePurchased.Format("2006-01-02")
	if catName.Valid {
		out.Categories = &models.NameOnly{Name: catName.String}
	}
	if deptName.Valid {
		out.Departments = &models.NameOnly{Name: deptName.String}
	}
	if creatorName.Valid {
		out.Profiles = &models.CreatorProfile{FullName: creatorName.String}
	}
	return out, nil
}

// listAssets handles asset listing with filters and pagination. Regular
// users see only the assets they created; admins see everything.
func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	userID := auth.UserIDFromContext(r.Context())

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if !auth.IsAdmin(r.Context()) {
		clauses = append(clauses, fmt.Sprintf("a.created_by = $%d", arg))
		args = append(args, userID)
		arg++
	}

	// optional category filter
	if catIDStr := strings.TrimSpace(r.URL.Query().Get("category_id")); catIDStr != "" {
		if catID, err := strconv.ParseInt(catIDStr, 10, 64); err == nil {
			clauses = append(clauses, fmt.Sprintf("a.category_id = $%d", arg))
			args = append(args, catID)
			arg++
		}
	}

	// optional department filter
	if deptIDStr := strings.TrimSpace(r.URL.Query().Get("department_id")); deptIDStr != "" {
		if deptID, err := strconv.ParseInt(deptIDStr, 10, 64); err == nil {
			clauses = append(clauses, fmt.Sprintf("a.department_id = $%d", arg))
			args = append(args, deptID)
			arg++
		}
	}

	// optional text search across asset, category, and department names
	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("(a.name ILIKE $%d OR c.name ILIKE $%d OR d.name ILIKE $%d)", arg, arg, arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	// Build the main query with COUNT(*) OVER() to get total count
	sqlStr := fmt.Sprintf(`
		SELECT %s,
		       COUNT(*) OVER() as total_count%s%s`, assetColumns, assetJoins, whereClause)

	allowedSort := map[string]string{
		"id":             "a.id",
		"name":           "a.name",
		"cost":           "a.cost",
		"date_purchased": "a.date_purchased",
		"category":       "c.name",
		"department":     "d.name",
		"created_at":     "a.created_at",
		"updated_at":     "a.updated_at",
	}
	if params.sort == "" {
		params.sort = "-created_at"
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

	assets := []interface{}{}
	var totalCount int
	for rows.Next() {
		a, err := scanAssetRow(rows.Scan, &totalCount)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		assets = append(assets, a)
	}

	sendListResponse(w, assets, totalCount, params)
}

// fetchAsset loads one joined asset row, scoped to the caller unless they
// are an admin.
func (s *Server) fetchAsset(r *http.Request, id string) (models.AssetWithRelations, error) {
	userID := auth.UserIDFromContext(r.Context())

	sqlStr := fmt.Sprintf("SELECT %s%s WHERE a.id = $1", assetColumns, assetJoins)
	args := []interface{}{id}
	if !auth.IsAdmin(r.Context()) {
		sqlStr += " AND a.created_by = $2"
		args = append(args, userID)
	}

	q := dbFrom(r.Context(), s.DB)
	row := q.QueryRowContext(r.Context(), sqlStr, args...)
	return scanAssetRow(row.Scan)
}

// getAsset handles getting a single asset by ID
func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := s.fetchAsset(r, id)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// createAsset handles creating a new asset
func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	if strings.TrimSpace(req.Name) == "" || req.DatePurchased == "" {
		http.Error(w, "name and date_purchased are required", 400)
		return
	}
	if req.Cost < 0 {
		http.Error(w, "cost must not be negative", 400)
		return
	}
	datePurchased, err := time.Parse("2006-01-02", req.DatePurchased)
	if err != nil {
		http.Error(w, "date_purchased must be YYYY-MM-DD", 400)
		return
	}

	userID := auth.UserIDFromContext(r.Context())

	q := dbFrom(r.Context(), s.DB)
	var assetID int64
	err = q.QueryRowContext(r.Context(), `
		INSERT INTO assets (name, category_id, department_id, cost, date_purchased, serial_number, manufacturer, model_number, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, strings.TrimSpace(req.Name), req.CategoryID, req.DepartmentID, req.Cost, datePurchased,
		nullIfEmpty(req.SerialNumber), nullIfEmpty(req.Manufacturer), nullIfEmpty(req.ModelNumber), userID).
		Scan(&assetID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			http.Error(w, "category or department does not exist", 400)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}

	a, err := s.fetchAsset(r, strconv.FormatInt(assetID, 10))
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// updateAsset handles updating an existing asset
func (s *Server) updateAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := auth.UserIDFromContext(r.Context())

	var req models.UpdateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	type set struct {
		sql string
		val interface{}
	}
	sets := make([]set, 0, 8)
	arg := 1

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			http.Error(w, "name must not be empty", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("name = $%d", arg), strings.TrimSpace(*req.Name)})
		arg++
	}
	if req.CategoryID != nil {
		sets = append(sets, set{fmt.Sprintf("category_id = $%d", arg), *req.CategoryID})
		arg++
	}
	if req.DepartmentID != nil {
		sets = append(sets, set{fmt.Sprintf("department_id = $%d", arg), *req.DepartmentID})
		arg++
	}
	if req.Cost != nil {
		if *req.Cost < 0 {
			http.Error(w, "cost must not be negative", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("cost = $%d", arg), *req.Cost})
		arg++
	}
	if req.DatePurchased != nil {
		datePurchased, err := time.Parse("2006-01-02", *req.DatePurchased)
		if err != nil {
			http.Error(w, "date_purchased must be YYYY-MM-DD", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("date_purchased = $%d", arg), datePurchased})
		arg++
	}
	if req.SerialNumber != nil {
		sets = append(sets, set{fmt.Sprintf("serial_number = $%d", arg), nullIfEmpty(req.SerialNumber)})
		arg++
	}
	if req.Manufacturer != nil {
		sets = append(sets, set{fmt.Sprintf("manufacturer = $%d", arg), nullIfEmpty(req.Manufacturer)})
		arg++
	}
	if req.ModelNumber != nil {
		sets = append(sets, set{fmt.Sprintf("model_number = $%d", arg), nullIfEmpty(req.ModelNumber)})
		arg++
	}

	if len(sets) == 0 {
		http.Error(w, "no fields to update", 400)
		return
	}

	args := make([]interface{}, 0, len(sets)+2)
	sqlStr := "UPDATE assets SET updated_at = now()"
	for _, sset := range sets {
		sqlStr += ", " + sset.sql
		args = append(args, sset.val)
	}
	sqlStr += fmt.Sprintf(" WHERE id = $%d", len(args)+1)
	args = append(args, id)
	if !auth.IsAdmin(r.Context()) {
		sqlStr += fmt.Sprintf(" AND created_by = $%d", len(args)+1)
		args = append(args, userID)
	}
	sqlStr += " RETURNING id"

	q := dbFrom(r.Context(), s.DB)
	var updatedID int64
	if err := q.QueryRowContext(r.Context(), sqlStr, args...).Scan(&updatedID); err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			http.Error(w, "category or department does not exist", 400)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}

	a, err := s.fetchAsset(r, id)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// deleteAsset handles deleting an asset
func (s *Server) deleteAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := auth.UserIDFromContext(r.Context())

	sqlStr := `DELETE FROM assets WHERE id = $1`
	args := []interface{}{id}
	if !auth.IsAdmin(r.Context()) {
		sqlStr += " AND created_by = $2"
		args = append(args, userID)
	}

	q := dbFrom(r.Context(), s.DB)
	res, err := q.ExecContext(r.Context(), sqlStr, args...)
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
