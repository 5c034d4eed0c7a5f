package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHashPassword(t *testing.T) {
	password := "testPassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == password {
		t.Errorf("HashPassword() returned %q", hash)
	}

	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == hash2 {
		t.Error("HashPassword() should produce different hashes due to salt")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "secret"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{name: "correct password", password: password, hash: hash, want: true},
		{name: "incorrect password", password: "wrong", hash: hash, want: false},
		{name: "empty password", password: "", hash: hash, want: false},
		{name: "no hash", password: password, hash: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCSRFToken(t *testing.T) {
	g := NewCSRFGenerator("secret")

	token, err := g.GenerateToken("player-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if !g.ValidateToken("player-1", token) {
		t.Error("token should validate for its own player")
	}
	if g.ValidateToken("player-2", token) {
		t.Error("token should not validate for another player")
	}
	if NewCSRFGenerator("other").ValidateToken("player-1", token) {
		t.Error("token should not validate with another secret")
	}
	if _, err := g.GenerateToken(""); err == nil {
		t.Error("GenerateToken(\"\") should fail")
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own bucket")
	}
}

func TestRateLimiterLimit(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/players", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler(rec, req)
		codes[i] = rec.Code
	}

	if codes[0] != http.StatusCreated || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [201 429]", codes)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "10.0.0.1:1234", want: "10.0.0.1"},
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, remote: "10.0.0.1:1", want: "1.1.1.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "3.3.3.3"}, remote: "10.0.0.1:1", want: "3.3.3.3"},
		{name: "remote without port", remote: "10.0.0.9", want: "10.0.0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: PlayerCookieName, Value: "from-cookie"})

	token, fromCookie := TokenFromRequest(req)
	if token != "from-cookie" || !fromCookie {
		t.Errorf("TokenFromRequest() = %q, %v", token, fromCookie)
	}

	req.Header.Set("Authorization", "Bearer from-header")
	token, fromCookie = TokenFromRequest(req)
	if token != "from-header" || fromCookie {
		t.Errorf("bearer token should win, got %q, %v", token, fromCookie)
	}

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	if token, _ := TokenFromRequest(empty); token != "" {
		t.Errorf("TokenFromRequest() = %q, want empty", token)
	}
}

func TestSessionCookieSecureFlag(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	cookie := CreateSessionCookie(req, "tok", time.Now().Add(time.Hour))
	if !cookie.Secure || !cookie.HttpOnly || cookie.Name != PlayerCookieName {
		t.Errorf("unexpected cookie %+v", cookie)
	}
	if del := CreateDeleteCookie(req); del.MaxAge != -1 {
		t.Errorf("delete cookie MaxAge = %d", del.MaxAge)
	}
}
