package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"expenses/internal/log"
)

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	suspiciousAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan",
	}
	unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

const maxURLLength = 2048

// Detector flags requests that look like probes and resolves client
// addresses behind trusted proxies.
type Detector struct {
	suspicious     atomic.Int64
	trustedProxies []*net.IPNet
	logger         *log.Logger
}

// NewDetector creates a new security detector
func NewDetector(logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.Discard()
	}
	return &Detector{
		logger: logger.WithComponent(log.ComponentHTTP),
		trustedProxies: []*net.IPNet{
			parseCIDR("127.0.0.0/8"),
			parseCIDR("10.0.0.0/8"),
			parseCIDR("172.16.0.0/12"),
			parseCIDR("192.168.0.0/16"),
		},
	}
}

func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// Middleware logs suspicious requests. It never rejects them; routing and
// authentication decide the outcome.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.DetectSuspiciousRequest(r) {
			d.logger.WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, d.ExtractClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

// DetectSuspiciousRequest analyzes request patterns for potential threats
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	query, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		query = r.URL.RawQuery
	}
	suspicious := containsAny(strings.ToLower(r.URL.Path), suspiciousPatterns) ||
		containsAny(strings.ToLower(query), suspiciousPatterns) ||
		containsAny(strings.ToLower(r.Header.Get("User-Agent")), suspiciousAgents) ||
		len(r.URL.String()) > maxURLLength

	for _, method := range unusualMethods {
		if r.Method == method {
			suspicious = true
			break
		}
	}

	// More than 5 proxy hops
	if xff := r.Header.Get("X-Forwarded-For"); strings.Count(xff, ",") > 5 {
		suspicious = true
	}

	if suspicious {
		d.suspicious.Add(1)
	}
	return suspicious
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// ExtractClientIP extracts the real client IP, validating forwarded headers
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil {
		return directIP
	}

	if d.isTrustedProxy(parsedDirectIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// SuspiciousRequests returns how many requests have been flagged.
func (d *Detector) SuspiciousRequests() int64 {
	return d.suspicious.Load()
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}
