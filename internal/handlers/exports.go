// Package handlers holds HTTP handlers that carry their own dependencies
// instead of hanging off the server.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"asset-tracker-api/internal/auth"
	"asset-tracker-api/pkg/exporter"
)

// ExportsHandler handles asset export downloads
type ExportsHandler struct {
	DB *pgxpool.Pool
}

// NewExportsHandler creates a new exports handler
func NewExportsHandler(db *pgxpool.Pool) *ExportsHandler {
	return &ExportsHandler{DB: db}
}

// ExportAssets streams the caller's assets as CSV or XLSX. ?format picks the
// encoding (csv by default); ?all=true exports every asset and is admin only.
func (h *ExportsHandler) ExportAssets(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		http.Error(w, "format must be csv or xlsx", http.StatusBadRequest)
		return
	}

	all := r.URL.Query().Get("all") == "true"
	if all && !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":   "FORBIDDEN",
			"message": "only administrators may export all assets",
		})
		return
	}

	rows, err := exporter.FetchRows(r.Context(), h.DB, exporter.ExportOptions{
		UserID: auth.UserIDFromContext(r.Context()),
		All:    all,
		SortBy: r.URL.Query().Get("sort"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	filename := exporter.Filename(format, time.Now())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		err = exporter.WriteCSV(w, rows)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = exporter.WriteXLSX(w, rows)
	}
	if err != nil {
		// Headers are already gone; all we can do is log via the error path.
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
