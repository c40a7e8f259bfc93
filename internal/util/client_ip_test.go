package util

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10", "fd00::/8"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}

	tests := []struct {
		name      string
		peer      string
		forwarded string
		xff       string
		realIP    string
		trusted   *TrustedProxies
		want      string
	}{
		{name: "untrusted peer ignores headers", peer: "198.51.100.10:1234", xff: "203.0.113.5", realIP: "203.0.113.6", want: "198.51.100.10"},
		{name: "trusted peer uses x-forwarded-for", peer: "10.0.0.20:1234", xff: "203.0.113.5", trusted: trusted, want: "203.0.113.5"},
		{name: "skips trusted hops from the right", peer: "10.0.0.20:1234", xff: "203.0.113.5, 10.0.0.10", trusted: trusted, want: "203.0.113.5"},
		{name: "forwarded header wins", peer: "10.0.0.20:1234", forwarded: `for=198.51.100.7;proto=https, for=10.0.0.3`, xff: "203.0.113.5", trusted: trusted, want: "198.51.100.7"},
		{name: "forwarded ipv6 with port", peer: "[fd00::1]:443", forwarded: `for="[2001:db8::17]:4711"`, trusted: trusted, want: "2001:db8::17"},
		{name: "x-real-ip when chain unusable", peer: "10.0.0.20:1234", xff: "invalid", realIP: "203.0.113.7", trusted: trusted, want: "203.0.113.7"},
		{name: "all hops trusted returns leftmost", peer: "10.0.0.20:1234", xff: "10.0.0.5, 10.0.0.10", trusted: trusted, want: "10.0.0.5"},
		{name: "bare peer without port", peer: "192.168.1.10", xff: "203.0.113.9", trusted: trusted, want: "203.0.113.9"},
		{name: "unparseable peer returned as is", peer: "pipe", want: "pipe"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "http://example.com/chain", nil)
			req.RemoteAddr = tc.peer
			if tc.forwarded != "" {
				req.Header.Set("Forwarded", tc.forwarded)
			}
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(req, tc.trusted); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewTrustedProxies(t *testing.T) {
	tests := []struct {
		entries []string
		wantNil bool
		wantErr bool
	}{
		{entries: []string{"10.0.0.0/8", "192.168.1.1", "::1"}},
		{entries: []string{" ", ""}, wantNil: true},
		{entries: nil, wantNil: true},
		{entries: []string{"bad-cidr"}, wantErr: true},
		{entries: []string{"10.0.0.0/99"}, wantErr: true},
	}
	for _, tc := range tests {
		got, err := NewTrustedProxies(tc.entries)
		if (err != nil) != tc.wantErr {
			t.Fatalf("NewTrustedProxies(%v) err = %v, wantErr %t", tc.entries, err, tc.wantErr)
		}
		if !tc.wantErr && (got == nil) != tc.wantNil {
			t.Fatalf("NewTrustedProxies(%v) = %v, wantNil %t", tc.entries, got, tc.wantNil)
		}
	}
}
