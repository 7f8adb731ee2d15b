package proxy

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/p-kaiser/logingate/internal/userdb"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForwardInjectsTemplateUserHeaders(t *testing.T) {
	var seen http.Header
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.WriteHeader(http.StatusTeapot)
	}))
	defer backend.Close()

	p, err := New(testLogger(), backend.URL, userdb.Defaults(), "sabine", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/some/page?q=1", nil)
	p.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected backend status to pass through, got %d", rec.Code)
	}

	got, err := base64.StdEncoding.DecodeString(seen.Get("x-tobira-username"))
	if err != nil || string(got) != "sabine" {
		t.Errorf("username header: %q (%v)", got, err)
	}
	got, err = base64.StdEncoding.DecodeString(seen.Get("x-tobira-user-display-name"))
	if err != nil || string(got) != "Sabine Rudolfs" {
		t.Errorf("display name header: %q (%v)", got, err)
	}
}

func TestForwardInjectsExtraHeaders(t *testing.T) {
	var seen http.Header
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
	}))
	defer backend.Close()

	p, err := New(testLogger(), backend.URL, userdb.Defaults(), "", []string{"x-tobira-username: cGV0ZXI="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen.Get("x-tobira-username") != "cGV0ZXI=" {
		t.Errorf("extra header not forwarded: %q", seen.Get("x-tobira-username"))
	}
}

func TestUnknownTemplateUser(t *testing.T) {
	if _, err := New(testLogger(), "localhost:3080", userdb.Defaults(), "peter", nil); err == nil {
		t.Error("expected error for unknown template user")
	}
}

func TestTargetUnreachable(t *testing.T) {
	// Port reserved by a closed listener, nothing accepts connections.
	dead := httptest.NewServer(http.NotFoundHandler())
	target := dead.URL
	dead.Close()

	p, err := New(testLogger(), target, userdb.Defaults(), "admin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "could not reach proxy target") {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"localhost:3080", "http://localhost:3080", false},
		{"127.0.0.1:8080", "http://127.0.0.1:8080", false},
		{"http://example.com", "http://example.com", false},
		{"https://example.com:8443", "https://example.com:8443", false},
		{"example.com:80", "", true},
		{"http://example.com/path", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		u, err := parseTarget(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseTarget(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTarget(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if u.String() != tt.want {
			t.Errorf("parseTarget(%q) = %q, want %q", tt.in, u.String(), tt.want)
		}
	}
}
