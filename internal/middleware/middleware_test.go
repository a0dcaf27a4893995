package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"revenue-dashboard/internal/session"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSession_Unauthenticated(t *testing.T) {
	guard := session.NewGuard("secret", 60*time.Minute, slog.Default())

	var called bool
	h := RequireSession(guard, slog.Default())(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/api/revenue", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if called {
		t.Error("handler must not run without a session")
	}
	if !strings.Contains(w.Body.String(), "UNAUTHORIZED") {
		t.Errorf("expected UNAUTHORIZED envelope, got: %s", w.Body.String())
	}
}

func TestRequireSession_ValidToken(t *testing.T) {
	guard := session.NewGuard("secret", 60*time.Minute, slog.Default())
	token, err := guard.Login("secret")
	if err != nil {
		t.Fatal(err)
	}

	var called bool
	h := RequireSession(guard, slog.Default())(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/api/revenue", nil)
	req.AddCookie(&http.Cookie{Name: "rd_session", Value: token})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !called {
		t.Error("handler should run with a valid session")
	}
}

func TestRequireSession_ExpiredClearsCookie(t *testing.T) {
	guard := session.NewGuard("secret", 60*time.Minute, slog.Default())

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	guard.SetClock(func() time.Time { return now })
	token, _ := guard.Login("secret")

	now = now.Add(61 * time.Minute)

	var called bool
	h := RequireSession(guard, slog.Default())(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/api/revenue", nil)
	req.AddCookie(&http.Cookie{Name: "rd_session", Value: token})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if called {
		t.Error("handler must not run on an expired session")
	}
	if !strings.Contains(w.Body.String(), "expired") {
		t.Errorf("expected expiry message, got: %s", w.Body.String())
	}

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "rd_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expired session should clear the cookie")
	}
}

func TestRequireSession_MissingSecret(t *testing.T) {
	guard := session.NewGuard("", 60*time.Minute, slog.Default())

	var called bool
	h := RequireSession(guard, slog.Default())(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/api/revenue", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when no secret is configured", w.Code)
	}
	if !strings.Contains(w.Body.String(), "MISCONFIGURED") {
		t.Errorf("expected MISCONFIGURED envelope, got: %s", w.Body.String())
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mw("first"), mw("second"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"first", "second", "handler"}
	for i, name := range want {
		if i >= len(order) || order[i] != name {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request ID should be generated when absent")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given-id")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "given-id" {
		t.Errorf("request ID = %q, want the caller's value", got)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 after panic", w.Code)
	}
}
