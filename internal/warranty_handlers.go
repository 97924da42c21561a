package internal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"asset-tracker-api/internal/auth"
	"asset-tracker-api/internal/models"
	"asset-tracker-api/internal/warranty"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
)

// warrantyAsset maps a joined asset row to the shape the warranty client
// normalizes.
func warrantyAsset(a models.AssetWithRelations) warranty.Asset {
	wa := warranty.Asset{
		ID:            warranty.ID(a.ID),
		Name:          a.Name,
		Cost:          warranty.CostOf(a.Cost),
		DatePurchased: a.DatePurchased,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
		SerialNumber:  a.SerialNumber,
		Manufacturer:  a.Manufacturer,
		ModelNumber:   a.ModelNumber,
	}
	if a.Categories != nil {
		wa.Categories = warranty.Name(a.Categories.Name)
	}
	if a.Departments != nil {
		wa.Departments = warranty.Name(a.Departments.Name)
	}
	if a.Profiles != nil {
		wa.Profiles = &warranty.Profile{FullName: a.Profiles.FullName}
	}
	return wa
}

// actingUser loads the caller's account for the registered_by fields.
func (s *Server) actingUser(r *http.Request) (warranty.ActingUser, error) {
	userID := auth.UserIDFromContext(r.Context())

	var fullName sql.NullString
	var email string
	q := dbFrom(r.Context(), s.DB)
	err := q.QueryRowContext(r.Context(),
		`SELECT full_name, email FROM users WHERE id = $1`, userID).
		Scan(&fullName, &email)
	if err != nil {
		return warranty.ActingUser{}, err
	}

	u := warranty.ActingUser{ID: warranty.ID(userID)}
	if fullName.Valid {
		u.FullName = fullName.String
	} else {
		u.Name = email
	}
	return u, nil
}

type warrantyRegisterResponse struct {
	warranty.RegistrationResult
	AlreadyRegistered bool             `json:"already_registered,omitempty"`
	Warranty          *warranty.Status `json:"warranty,omitempty"`
}

// registerWarranty submits one asset to the remote warranty service. The
// remote reports failure in the body, so the outcome is classified from the
// decoded result, not the upstream status code.
func (s *Server) registerWarranty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// The body is optional; an absent one means the default duration.
	var req models.RegisterWarrantyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid JSON", 400)
		return
	}

	a, err := s.fetchAsset(r, id)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	user, err := s.actingUser(r)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	result := s.Warranty.Register(r.Context(), warrantyAsset(a), user, warranty.RegisterOptions{
		WarrantyDurationMonths: req.WarrantyDurationMonths,
	})

	resp := warrantyRegisterResponse{RegistrationResult: result}
	code := http.StatusOK

	switch {
	case result.Success:
		s.Metrics.ObserveWarrantyRegistration(WarrantyOutcomeSuccess)
	case result.AlreadyRegistered():
		// An existing warranty is a recoverable outcome, not an error.
		s.Metrics.ObserveWarrantyRegistration(WarrantyOutcomeDuplicate)
		resp.AlreadyRegistered = true
	case result.Message == warranty.RegistrationFailureMessage:
		s.Metrics.ObserveWarrantyRegistration(WarrantyOutcomeTransport)
		code = http.StatusBadGateway
	default:
		s.Metrics.ObserveWarrantyRegistration(WarrantyOutcomeRejected)
		code = http.StatusUnprocessableEntity
	}

	if code == http.StatusOK {
		// Refresh the cached status so badges flip without waiting for the
		// next list reload.
		status := s.Warranty.CheckStatus(r.Context(), warranty.ID(a.ID))
		s.Statuses.Patch(warranty.ID(a.ID), status)
		resp.Warranty = &status
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type warrantyStatusResponse struct {
	AssetID  int64           `json:"asset_id"`
	Warranty warranty.Status `json:"warranty"`
	Badge    warranty.Badge  `json:"badge"`
}

// getWarrantyStatus returns one asset's warranty status with its badge.
// Cached statuses are served unless ?refresh=true forces a remote check.
func (s *Server) getWarrantyStatus(w http.ResponseWriter, r *http.Request) {
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

	flexID := warranty.ID(a.ID)
	status, cached := s.Statuses.Get(flexID)
	if !cached || r.URL.Query().Get("refresh") == "true" {
		status = s.Warranty.CheckStatus(r.Context(), flexID)
		s.Statuses.Patch(flexID, status)
		if status.Error {
			s.Metrics.ObserveWarrantyCheck("error")
		} else {
			s.Metrics.ObserveWarrantyCheck("ok")
		}
	}

	resp := warrantyStatusResponse{
		AssetID:  a.ID,
		Warranty: status,
		Badge:    warranty.Classify(status, false),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type batchWarrantyRequest struct {
	AssetIDs []int64 `json:"asset_ids"`
}

type batchWarrantyEntry struct {
	Warranty warranty.Status `json:"warranty"`
	Badge    warranty.Badge  `json:"badge"`
}

// batchWarrantyStatus checks warranty status for a set of assets. IDs the
// caller cannot see are dropped, not errored, so a stale client list cannot
// fail the whole batch. The refreshed results replace the server's cache.
func (s *Server) batchWarrantyStatus(w http.ResponseWriter, r *http.Request) {
	var req batchWarrantyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if len(req.AssetIDs) == 0 {
		http.Error(w, "asset_ids is required", 400)
		return
	}
	if len(req.AssetIDs) > 500 {
		http.Error(w, "too many asset_ids", 400)
		return
	}

	visible, err := s.visibleAssetIDs(r, req.AssetIDs)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	ids := make([]warranty.FlexID, 0, len(visible))
	for _, id := range visible {
		ids = append(ids, warranty.ID(id))
	}

	statuses := s.Warranty.BatchCheckStatus(r.Context(), ids)
	s.Statuses.Replace(statuses)

	results := make(map[string]batchWarrantyEntry, len(statuses))
	for key, status := range statuses {
		if status.Error {
			s.Metrics.ObserveWarrantyCheck("error")
		} else {
			s.Metrics.ObserveWarrantyCheck("ok")
		}
		results[key] = batchWarrantyEntry{
			Warranty: status,
			Badge:    warranty.Classify(status, false),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"results": results,
		"count":   len(results),
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// visibleAssetIDs filters the requested IDs down to assets the caller may
// see. Admins see everything that exists.
func (s *Server) visibleAssetIDs(r *http.Request, assetIDs []int64) ([]int64, error) {
	userID := auth.UserIDFromContext(r.Context())

	sqlStr := `SELECT id FROM assets WHERE id = ANY($1)`
	args := []interface{}{pq.Array(assetIDs)}
	if !auth.IsAdmin(r.Context()) {
		sqlStr += " AND created_by = $2"
		args = append(args, userID)
	}

	q := dbFrom(r.Context(), s.DB)
	rows, err := q.QueryContext(r.Context(), sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]int64, 0, len(assetIDs))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
