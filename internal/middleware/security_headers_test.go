package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(SecurityHeadersConfig{Env: "development"})

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	handler(testHandler).ServeHTTP(w, req)

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	}

	for _, tt := range tests {
		if got := w.Header().Get(tt.header); got != tt.expected {
			t.Errorf("Header %s: got %q, want %q", tt.header, got, tt.expected)
		}
	}

	// No HSTS outside production
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Strict-Transport-Security should be absent in development, got %q", got)
	}
}

func TestSecurityHeaders_ProductionHSTS(t *testing.T) {
	handler := SecurityHeaders(SecurityHeadersConfig{Env: "production"})

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("forwarded https gets HSTS", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		w := httptest.NewRecorder()

		handler(testHandler).ServeHTTP(w, req)

		if got := w.Header().Get("Strict-Transport-Security"); got == "" {
			t.Error("Strict-Transport-Security missing for HTTPS request in production")
		}
	})

	t.Run("plain http does not", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()

		handler(testHandler).ServeHTTP(w, req)

		if got := w.Header().Get("Strict-Transport-Security"); got != "" {
			t.Errorf("Strict-Transport-Security should not be set over plain HTTP, got %q", got)
		}
	})
}
