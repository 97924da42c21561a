package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-that-is-long-enough-for-testing"

func newTestManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(testSecret, "test-issuer", "test-audience", expiry)
}

func TestJWTManager_ValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		issuer   string
		audience string
		expiry   time.Duration
		wantErr  bool
	}{
		{"valid config", testSecret, "iss", "aud", time.Hour, false},
		{"empty secret", "", "iss", "aud", time.Hour, true},
		{"short secret", "short", "iss", "aud", time.Hour, true},
		{"empty issuer", testSecret, "", "aud", time.Hour, true},
		{"empty audience", testSecret, "iss", "", time.Hour, true},
		{"zero expiry", testSecret, "iss", "aud", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewJWTManager(tt.secret, tt.issuer, tt.audience, tt.expiry)
			err := m.ValidateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.GenerateToken(42, "admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("Expected user ID 42, got %d", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Errorf("Expected role admin, got %s", claims.Role)
	}
	if !claims.IsAdmin() {
		t.Error("Expected IsAdmin to be true")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	m := newTestManager(-time.Minute)

	token, err := m.GenerateToken(1, "user")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("Expected error for expired token")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	m := newTestManager(time.Hour)
	other := NewJWTManager("another-secret-that-is-long-enough", "test-issuer", "test-audience", time.Hour)

	token, err := m.GenerateToken(1, "user")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("Expected error for token signed with a different secret")
	}
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	m := newTestManager(time.Hour)

	// alg=none token must be rejected.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 1, Role: "user"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	if _, err := m.ValidateToken(signed); err == nil {
		t.Error("Expected error for none-algorithm token")
	}
}

func TestAuthMiddleware(t *testing.T) {
	m := newTestManager(time.Hour)
	token, err := m.GenerateToken(7, "user")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	foreign, err := NewJWTManager("another-secret-that-is-long-enough", "test-issuer", "test-audience", time.Hour).GenerateToken(7, "user")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	handler := AuthMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := UserIDFromContext(r.Context()); got != 7 {
			t.Errorf("Expected user ID 7 in context, got %d", got)
		}
		if got := RoleFromContext(r.Context()); got != "user" {
			t.Errorf("Expected role user in context, got %s", got)
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantCode   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "MISSING_AUTH_HEADER"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "INVALID_AUTH_FORMAT"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"garbage token", "Bearer not.a.token.at.all", http.StatusUnauthorized, "INVALID_TOKEN_FORMAT"},
		{"foreign signature", "Bearer " + foreign, http.StatusUnauthorized, "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/assets", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantCode != "" {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode error response: %v", err)
				}
				if resp.Code != tt.wantCode {
					t.Errorf("Expected error code %s, got %s", tt.wantCode, resp.Code)
				}
			}
		})
	}
}

func TestAuthMiddleware_PublicPath(t *testing.T) {
	m := newTestManager(time.Hour)
	handler := AuthMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected public path to pass without auth, got %d", w.Code)
	}
}

func TestMustRole(t *testing.T) {
	handler := MustRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"admin allowed", "admin", http.StatusOK},
		{"user forbidden", "user", http.StatusForbidden},
		{"no role", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("DELETE", "/assets/1", nil)
			if tt.role != "" {
				req = req.WithContext(WithRole(context.Background(), tt.role))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestValidateTokenFormat(t *testing.T) {
	if err := validateTokenFormat("a.b.c"); err != nil {
		t.Errorf("Expected a.b.c to pass format validation, got %v", err)
	}
	if err := validateTokenFormat(""); err == nil {
		t.Error("Expected empty token to fail format validation")
	}
	if err := validateTokenFormat("a.b"); err == nil {
		t.Error("Expected two-part token to fail format validation")
	}
	if err := validateTokenFormat(strings.Repeat("x", 9000)); err == nil {
		t.Error("Expected oversized token to fail format validation")
	}
}
