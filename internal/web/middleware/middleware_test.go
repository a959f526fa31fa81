package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/prospect-crm/internal/config"
)

func echoRemoteAddr() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.RemoteAddr))
	})
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "no trusted proxies ignores headers",
			remote:  "10.0.0.5:4000",
			headers: map[string]string{"X-Real-IP": "203.0.113.7"},
			want:    "10.0.0.5:4000",
		},
		{
			name:    "trusted cidr uses X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.0.0.5:4000",
			headers: map[string]string{"X-Real-IP": "203.0.113.7"},
			want:    "203.0.113.7",
		},
		{
			name:    "trusted single address uses first forwarded hop",
			trusted: []string{"192.168.1.1"},
			remote:  "192.168.1.1:5000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"},
			want:    "198.51.100.2",
		},
		{
			name:    "untrusted source keeps remote address",
			trusted: []string{"10.0.0.0/8"},
			remote:  "172.16.0.9:4000",
			headers: map[string]string{"X-Real-IP": "203.0.113.7"},
			want:    "172.16.0.9:4000",
		},
		{
			name:    "garbage header is ignored",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.0.0.5:4000",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "10.0.0.5:4000",
		},
		{
			name:    "invalid trusted entry is skipped",
			trusted: []string{"bogus", "10.0.0.0/8"},
			remote:  "10.1.2.3:80",
			headers: map[string]string{"X-Real-IP": "203.0.113.8"},
			want:    "203.0.113.8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := TrustedRealIP(tt.trusted)(echoRemoteAddr())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		cfg    config.SecurityConfig
		header string
		value  string
		want   int
	}{
		{name: "disabled passes", cfg: config.SecurityConfig{}, want: http.StatusNoContent},
		{name: "missing key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, want: http.StatusUnauthorized},
		{name: "wrong key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, header: "X-API-Key", value: "nope", want: http.StatusForbidden},
		{name: "valid header key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, header: "X-API-Key", value: "k2", want: http.StatusNoContent},
		{name: "valid bearer token", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, header: "Authorization", value: "Bearer k1", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKeyAuth(&tt.cfg)(ok)
			req := httptest.NewRequest(http.MethodGet, "/api/fields", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prospects", nil))

	line := buf.String()
	for _, want := range []string{"level=WARN", "path=/api/prospects", "status=404", "bytes=4"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}
