package internal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware())
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	// Make a request to generate some metrics
	testReq := httptest.NewRequest("GET", "/ping", nil)
	testW := httptest.NewRecorder()
	router.ServeHTTP(testW, testReq)

	if testW.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", testW.Code)
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	expectedMetrics := []string{"http_requests_total", "http_request_duration_seconds"}
	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metric '%s' not found in response", metric)
		}
	}

	if !strings.Contains(body, `path="/ping"`) {
		t.Error("Expected metrics to contain path label for /ping endpoint")
	}
}

func TestWarrantyMetrics(t *testing.T) {
	metrics := NewMetrics()

	metrics.ObserveWarrantyRegistration(WarrantyOutcomeSuccess)
	metrics.ObserveWarrantyRegistration(WarrantyOutcomeDuplicate)
	metrics.ObserveWarrantyCheck("ok")
	metrics.ObserveWarrantyCheck("error")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, req)

	body := w.Body.String()
	for _, want := range []string{
		`warranty_registrations_total{outcome="success"} 1`,
		`warranty_registrations_total{outcome="duplicate"} 1`,
		`warranty_status_checks_total{result="ok"} 1`,
		`warranty_status_checks_total{result="error"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in metrics output", want)
		}
	}
}

func TestMetricsRegistryIsolation(t *testing.T) {
	// Two instances must not clash on registration; each carries its own
	// registry.
	a := NewMetrics()
	b := NewMetrics()

	a.ObserveWarrantyRegistration(WarrantyOutcomeSuccess)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	b.Handler().ServeHTTP(w, req)

	if strings.Contains(w.Body.String(), `warranty_registrations_total{outcome="success"} 1`) {
		t.Error("Metrics leaked between registries")
	}
}
