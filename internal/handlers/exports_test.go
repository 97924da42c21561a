package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"asset-tracker-api/internal/auth"

	"github.com/stretchr/testify/assert"
)

func TestExportsHandler_ExportAssets(t *testing.T) {
	// No database needed; these paths fail before the query runs.
	handler := NewExportsHandler(nil)

	t.Run("Rejects unknown format", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/exports/assets?format=pdf", nil)
		req = req.WithContext(auth.WithRole(req.Context(), "user"))

		w := httptest.NewRecorder()
		handler.ExportAssets(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "format must be csv or xlsx")
	})

	t.Run("Rejects all=true for non-admin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/exports/assets?all=true", nil)
		ctx := auth.WithRole(req.Context(), "user")
		ctx = context.WithValue(ctx, auth.UserIDKey, int64(2))
		req = req.WithContext(ctx)

		w := httptest.NewRecorder()
		handler.ExportAssets(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "FORBIDDEN")
	})
}
