package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func postToken(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/callback/token", strings.NewReader(body))
	h.ServeHTTP(rec, req)
	return rec
}

func receive(t *testing.T, h *OAuthHandler) OAuthResult {
	t.Helper()
	select {
	case result := <-h.Result():
		return result
	case <-time.After(time.Second):
		t.Fatal("no OAuth result received")
		return OAuthResult{}
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		routes := NewOAuthHandler("s", nil, true).Routes()
		if len(routes) != 2 || routes[0] != "GET /callback" || routes[1] != "POST /callback/token" {
			t.Errorf("unexpected routes %v", routes)
		}
	})

	t.Run("callback page reads the fragment", func(t *testing.T) {
		h := NewOAuthHandler("s", nil, true)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))

		body := rec.Body.String()
		if rec.Code != http.StatusOK || !strings.Contains(body, "window.location.hash") {
			t.Errorf("unexpected page %d: %s", rec.Code, body)
		}
		if !strings.Contains(body, "return to the terminal") {
			t.Error("single-use page should send the user back to the terminal")
		}
	})

	t.Run("reusable page redirects home", func(t *testing.T) {
		h := NewOAuthHandler("s", nil, false)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))
		if !strings.Contains(rec.Body.String(), `window.location.replace("/")`) {
			t.Error("expected redirect to dashboard")
		}
	})

	t.Run("rejects mismatched state", func(t *testing.T) {
		sess := newTestSession(t, "")
		h := NewOAuthHandler("expected", sess, true)

		rec := postToken(h, `{"access_token":"tok","expires_in":"3600","state":"forged"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected state mismatch to be rejected, got %d", rec.Code)
		}
		if result := receive(t, h); result.Error() == nil {
			t.Error("expected state error to be reported")
		}
		if sess.Authenticated() {
			t.Error("mismatched state must not authenticate")
		}
	})

	t.Run("stores token", func(t *testing.T) {
		sess := newTestSession(t, "")
		h := NewOAuthHandler("expected", sess, true)

		rec := postToken(h, `{"access_token":"tok","expires_in":"3600","state":"expected"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		result := receive(t, h)
		if result.Error() != nil || result.Token == nil || result.Token.AccessToken != "tok" {
			t.Fatalf("unexpected result %+v", result)
		}
		if result.Token.Expiry.IsZero() {
			t.Error("expected expiry from expires_in")
		}
		if !sess.Authenticated() {
			t.Error("expected session to be authenticated")
		}

		if rec := postToken(h, `{"access_token":"again","state":"expected"}`); rec.Code != http.StatusBadRequest {
			t.Errorf("expected second callback to be rejected, got %d", rec.Code)
		}
	})

	t.Run("reusable handler accepts repeated logins", func(t *testing.T) {
		sess := newTestSession(t, "")
		h := NewOAuthHandler("expected", sess, false)

		for _, token := range []string{"first", "second"} {
			if rec := postToken(h, `{"access_token":"`+token+`","state":"expected"}`); rec.Code != http.StatusOK {
				t.Fatalf("expected 200 for %s, got %d", token, rec.Code)
			}
		}

		got, err := sess.Token()
		if err != nil || got.AccessToken != "second" {
			t.Errorf("expected latest token, got %v (%v)", got, err)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		h := NewOAuthHandler("expected", nil, true)
		if rec := postToken(h, `{"access_token":"","state":"expected"}`); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("authorization denied", func(t *testing.T) {
		h := NewOAuthHandler("expected", nil, true)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&state=expected", nil))

		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "access_denied") {
			t.Errorf("unexpected response %d: %s", rec.Code, rec.Body.String())
		}
		if result := receive(t, h); result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected denial to be reported, got %v", result.Error())
		}
	})
}

func TestParseExpiresIn(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"3600", time.Hour},
		{"", 0},
		{"-5", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := parseExpiresIn(tt.in); got != tt.want {
			t.Errorf("parseExpiresIn(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
