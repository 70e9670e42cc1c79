package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct public peer ignores headers", "203.0.113.7:5000", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy uses first forwarded", "10.0.0.2:80", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy falls back to real ip", "127.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"garbage forwarded keeps peer", "192.168.1.1:80", "not-an-ip", "", "192.168.1.1"},
		{"unparseable remote addr", "weird", "", "", "weird"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				r.Header.Set("X-Real-IP", tc.xri)
			}
			if got := d.ExtractClientIP(r); got != tc.want {
				t.Fatalf("ExtractClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	cases := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"report request", http.MethodGet, "/api/cards/latam/years/2025/months/3/report?categoria=todas", "curl/8.0", false},
		{"path traversal", http.MethodGet, "/api/../../etc/passwd", "", true},
		{"query traversal", http.MethodGet, "/api/years?file=../secret", "", true},
		{"scanner agent", http.MethodGet, "/api/years", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(tc.method, tc.target, nil)
			if tc.agent != "" {
				r.Header.Set("User-Agent", tc.agent)
			}
			if got := d.DetectSuspiciousRequest(r); got != tc.want {
				t.Fatalf("DetectSuspiciousRequest = %v, want %v", got, tc.want)
			}
			wantCount := int64(0)
			if tc.want {
				wantCount = 1
			}
			if got := d.GetMetrics().SuspiciousRequests; got != wantCount {
				t.Fatalf("SuspiciousRequests = %d, want %d", got, wantCount)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("nope"); err == nil {
		t.Fatalf("expected error for invalid CIDR")
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := d.ExtractClientIP(r); got != "198.51.100.1" {
		t.Fatalf("ExtractClientIP = %q", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/years", nil))
	for key, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rr.Header().Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Errorf("HSTS set on plain HTTP")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/years", nil)
	req.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}
