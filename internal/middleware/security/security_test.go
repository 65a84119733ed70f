package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersMiddleware(t *testing.T) {
	handler := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/categories/", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", rr.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/categories/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name       string
		method     string
		target     string
		userAgent  string
		suspicious bool
	}{
		{"plain api call", http.MethodGet, "/expenses/?min_value=10", "curl/8.0", false},
		{"path traversal", http.MethodGet, "/../../etc/passwd", "", true},
		{"sql in query", http.MethodGet, "/expenses/?q=1%20union%20select%201", "", true},
		{"scanner agent", http.MethodGet, "/", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/", "", true},
		{"long url", http.MethodGet, "/" + strings.Repeat("a", 2100), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.userAgent)
			assert.Equal(t, tt.suspicious, d.DetectSuspiciousRequest(r))
		})
	}
	assert.EqualValues(t, 5, d.SuspiciousRequests())
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct", "198.51.100.4:5555", "", "", "198.51.100.4"},
		{"untrusted proxy ignored", "198.51.100.4:5555", "203.0.113.9", "", "198.51.100.4"},
		{"trusted proxy forwarded for", "10.0.0.2:80", "203.0.113.9, 10.0.0.1", "", "203.0.113.9"},
		{"trusted proxy real ip", "127.0.0.1:80", "", "203.0.113.10", "203.0.113.10"},
		{"trusted proxy bad header", "127.0.0.1:80", "garbage", "", "127.0.0.1"},
		{"no port", "198.51.100.4", "", "", "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, d.ExtractClientIP(r))
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector(nil)
	require.Error(t, d.AddTrustedProxy("not-a-cidr"))
	require.NoError(t, d.AddTrustedProxy("198.51.100.0/24"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.4:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", d.ExtractClientIP(r))
}
