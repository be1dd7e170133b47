package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("admin", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	userID, err := ValidateToken(token, "test-secret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != "admin" {
		t.Errorf("userID = %q, want admin", userID)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("admin", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Error("token validated with wrong secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("admin", "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken(token, "test-secret"); err == nil {
		t.Error("expired token validated")
	}
}

func TestVerifyAdminPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	cfg := Config{AdminPassword: "plain", AdminPasswordHash: hash}
	if !cfg.VerifyAdminPassword("s3cret") {
		t.Error("hash verification failed")
	}
	if cfg.VerifyAdminPassword("plain") {
		t.Error("plaintext accepted despite configured hash")
	}

	cfg = Config{AdminPassword: "plain"}
	if !cfg.VerifyAdminPassword("plain") {
		t.Error("plaintext verification failed")
	}
}

func TestMiddleware(t *testing.T) {
	cfg := Config{JWTSecret: "test-secret", TokenDuration: time.Hour}

	protected := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok || userID != "admin" {
			t.Errorf("context userID = %q, ok = %v", userID, ok)
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/predictions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
		})
	}

	token, err := GenerateToken("admin", cfg.JWTSecret, cfg.TokenDuration)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/predictions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}
