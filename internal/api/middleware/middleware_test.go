package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/store"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/messages/private/42", "/messages/private/:id"},
		{"/messages/group/10", "/messages/group/:id"},
		{"/messages/private/", "/messages/private/"},
		{"/health", "/health"},
		{"/ws", "/ws"},
	}
	for _, c := range cases {
		if got := normalizePath(c.in); got != c.want {
			t.Fatalf("normalizePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRequireAuth(t *testing.T) {
	sessions := store.NewMemorySessionStore()
	identity := models.Entity{ID: 1, Type: models.EntityUser}
	token, err := sessions.CreateSession(context.Background(), identity, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	auth := NewAuthMiddleware(sessions)
	var seen models.Entity
	handler := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No token
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/messages/private/2", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Bearer token
	req := httptest.NewRequest("GET", "/messages/private/2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if seen != identity {
		t.Fatalf("expected identity in context, got %v", seen)
	}

	// Session cookie
	req = httptest.NewRequest("GET", "/messages/private/2", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with cookie, got %d", rec.Code)
	}
}

func TestLoggerRecordsIdentity(t *testing.T) {
	sessions := store.NewMemorySessionStore()
	identity := models.Entity{ID: 7, Type: models.EntityUser}
	token, err := sessions.CreateSession(context.Background(), identity, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	auth := NewAuthMiddleware(sessions)

	handler := Logger(logger)(auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest("GET", "/messages/private/2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	if !strings.Contains(line, `"identity":"user:7"`) {
		t.Fatalf("expected identity in log line, got %s", line)
	}
	if !strings.Contains(line, `"status":200`) {
		t.Fatalf("expected status in log line, got %s", line)
	}
}

func TestLoggerWithoutIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	line := buf.String()
	if strings.Contains(line, `"identity"`) {
		t.Fatalf("unauthenticated request must not carry an identity field, got %s", line)
	}
	if !strings.Contains(line, `"path":"/health"`) {
		t.Fatalf("expected path in log line, got %s", line)
	}
}

func TestIdentityOrIPKeyAfterAuth(t *testing.T) {
	sessions := store.NewMemorySessionStore()
	identity := models.Entity{ID: 1, Type: models.EntityUser}
	token, err := sessions.CreateSession(context.Background(), identity, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	auth := NewAuthMiddleware(sessions)
	var key string
	handler := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The limiter runs after auth in the authenticated group, so it sees
		// the same context this handler does.
		key = IdentityOrIPKey(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/messages/private/2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if key != "ratelimit:entity:user:1" {
		t.Fatalf("expected identity-keyed limit, got %q", key)
	}

	// Outside the auth chain it degrades to the client IP.
	if got := IdentityOrIPKey(httptest.NewRequest("GET", "/ws", nil)); !strings.HasPrefix(got, "ratelimit:ip:") {
		t.Fatalf("expected IP fallback, got %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("missing frame options header")
	}
}

func TestMaxBodySize(t *testing.T) {
	handler := MaxBodySize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/messages/private/2/read", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestValidateRequestContentType(t *testing.T) {
	handler := ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/messages/private/2/read", strings.NewReader("<xml/>"))
	req.Header.Set("Content-Type", "text/xml")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}

	// Empty body needs no content type.
	req = httptest.NewRequest("POST", "/messages/private/2/read", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty body, got %d", rec.Code)
	}
}
