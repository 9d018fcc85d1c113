package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/trahn-ladder/internal/logging"
)

func TestAuthMiddleware_NoKeyConfigured(t *testing.T) {
	s := &Server{apiKey: ""}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := s.authMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/presets", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 when no API key configured, got %d", rr.Code)
	}
}

func TestAuthMiddleware_HealthBypass(t *testing.T) {
	s := &Server{apiKey: "secret123"}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := s.authMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for /health without auth, got %d", rr.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	s := &Server{apiKey: "secret123"}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := s.authMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/price/latest", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuthMiddleware_WrongKey(t *testing.T) {
	s := &Server{apiKey: "secret123"}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := s.authMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/price/latest", nil)
	req.Header.Set("Authorization", "Bearer wrong_key")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuthMiddleware_CorrectKey(t *testing.T) {
	s := &Server{apiKey: "secret123"}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := s.authMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/price/latest", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestAuthMiddleware_MalformedBearer(t *testing.T) {
	s := &Server{apiKey: "secret123"}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := s.authMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/price/latest", nil)
	req.Header.Set("Authorization", "Basic secret123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-Bearer auth, got %d", rr.Code)
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		query    string
		deflt    int
		expected int
	}{
		{"", 100, 100},
		{"?limit=50", 100, 50},
		{"?limit=0", 100, 100},
		{"?limit=-5", 100, 100},
		{"?limit=abc", 100, 100},
		{"?limit=2000", 100, maxQueryLimit},
		{"?limit=1000", 100, 1000},
		{"?limit=1", 50, 1},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/test"+tc.query, nil)
		got := parseLimit(req, tc.deflt)
		if got != tc.expected {
			t.Fatalf("parseLimit(%q, %d) = %d, want %d", tc.query, tc.deflt, got, tc.expected)
		}
	}
}

func TestCorsMiddleware_Headers(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := corsMiddleware(inner, "https://myapp.example.com")

	req := httptest.NewRequest(http.MethodGet, "/v1/price/latest", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	origin := rr.Header().Get("Access-Control-Allow-Origin")
	if origin != "https://myapp.example.com" {
		t.Fatalf("expected custom origin, got %q", origin)
	}

	allow := rr.Header().Get("Access-Control-Allow-Headers")
	if allow == "" {
		t.Fatal("expected Allow-Headers to include Authorization")
	}
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called for OPTIONS")
	})
	handler := corsMiddleware(inner, "*")

	req := httptest.NewRequest(http.MethodOptions, "/v1/price/latest", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rr.Code)
	}
}

func TestRequestLogger_AssignsID(t *testing.T) {
	s := &Server{log: logging.Discard()}
	var seen logrus.FieldLogger
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = s.logFor(r)
		w.WriteHeader(http.StatusTeapot)
	})
	handler := s.requestLogger(inner)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/presets", nil))

	if rr.Code != http.StatusTeapot {
		t.Fatalf("status not passed through, got %d", rr.Code)
	}
	if _, err := uuid.Parse(rr.Header().Get("X-Request-ID")); err != nil {
		t.Fatalf("expected generated uuid request id, got %q", rr.Header().Get("X-Request-ID"))
	}
	if seen == nil || seen == logrus.FieldLogger(s.log) {
		t.Fatal("handler should get a request-scoped logger")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/presets", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("incoming request id should be kept, got %q", got)
	}
}

func TestParsePriceOverride(t *testing.T) {
	cases := []struct {
		query string
		price float64
		ok    bool
		err   bool
	}{
		{"", 0, false, false},
		{"?price=2.5", 2.5, true, false},
		{"?price=0", 0, false, true},
		{"?price=-1", 0, false, true},
		{"?price=abc", 0, false, true},
		{"?price=NaN", 0, false, true},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/ladder/default"+tc.query, nil)
		price, ok, err := parsePriceOverride(req)
		if price != tc.price || ok != tc.ok || (err != nil) != tc.err {
			t.Fatalf("parsePriceOverride(%q) = %v, %v, %v", tc.query, price, ok, err)
		}
	}
}
