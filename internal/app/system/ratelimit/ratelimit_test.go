package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_BurstThenDeny(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := New(60, 3)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d denied within burst", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("attempt beyond burst should be denied")
	}
	if !l.Allow("other") {
		t.Error("other keys have their own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("k") {
		t.Error("one token should refill after a second at 60/min")
	}
}

func TestLimiter_ResetAndSweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	if l.Allow("a") {
		t.Fatal("expected deny")
	}
	l.Reset("a")
	if !l.Allow("a") {
		t.Error("Reset should restore the burst")
	}

	now = now.Add(10 * time.Minute)
	l.Allow("b")
	if n := l.Sweep(5 * time.Minute); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.2:1234", "198.51.100.7"},
		{"remote addr", nil, "192.0.2.4:5555", "192.0.2.4"},
		{"remote without port", nil, "192.0.2.4", "192.0.2.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignInLimiter(t *testing.T) {
	s := NewSignInLimiter(10)
	r := httptest.NewRequest("POST", "/auth/signin", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := s.Check(r, "Zara@Example.com"); !ok {
			t.Fatalf("attempt %d denied", i+1)
		}
	}
	ok, reason := s.Check(r, " zara@example.com ")
	if ok || reason == "" {
		t.Errorf("third attempt for the same email should be denied, got ok=%v", ok)
	}

	s.ResetEmail("ZARA@example.com")
	if ok, _ := s.Check(r, "zara@example.com"); !ok {
		t.Error("ResetEmail should allow the account again")
	}
}
