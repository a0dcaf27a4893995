package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const cookieName = "rd_session"

// ErrUnauthenticated is returned when a token is missing, unknown, or was
// invalidated by logout.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrExpired is returned when a session exceeded the idle timeout. The
// session is removed before the error is returned.
var ErrExpired = errors.New("session expired due to inactivity")

// ErrInvalidPassword is returned on a login attempt with the wrong password.
// There is deliberately no lockout or backoff.
var ErrInvalidPassword = errors.New("invalid password")

// ErrNoSecret is returned when the expected password was never configured.
// This is a fatal misconfiguration, not a retryable condition.
var ErrNoSecret = errors.New("authentication secret is not configured")

type state struct {
	lastActivity time.Time
}

// Guard tracks authenticated sessions keyed by opaque tokens. State is
// per-token: one operator logging in never authenticates another. A token is
// authenticated iff it is present in the map; logout and idle expiry delete
// it.
type Guard struct {
	mu          sync.RWMutex
	sessions    map[string]*state
	secret      string
	idleTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

func NewGuard(secret string, idleTimeout time.Duration, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		sessions:    make(map[string]*state),
		secret:      secret,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

// SetClock overrides the time source. Test hook.
func (g *Guard) SetClock(now func() time.Time) {
	g.mu.Lock()
	g.now = now
	g.mu.Unlock()
}

// Login validates the submitted password and, on success, creates a fresh
// authenticated session and returns its token.
func (g *Guard) Login(password string) (string, error) {
	if g.secret == "" {
		return "", ErrNoSecret
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(g.secret)) != 1 {
		return "", ErrInvalidPassword
	}

	token := generateToken()

	g.mu.Lock()
	g.sessions[token] = &state{lastActivity: g.now()}
	g.mu.Unlock()

	g.logger.Info("session authenticated")
	return token, nil
}

// Check gates a guarded access. Idle expiry is evaluated before access is
// granted; a successful check refreshes the activity timestamp.
func (g *Guard) Check(token string) error {
	if g.secret == "" {
		return ErrNoSecret
	}
	if token == "" {
		return ErrUnauthenticated
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[token]
	if !ok {
		return ErrUnauthenticated
	}

	now := g.now()
	if now.Sub(s.lastActivity) > g.idleTimeout {
		delete(g.sessions, token)
		g.logger.Info("session expired", "idle_timeout", g.idleTimeout)
		return ErrExpired
	}

	s.lastActivity = now
	return nil
}

// Logout invalidates the token. Idempotent: unknown tokens are a no-op.
func (g *Guard) Logout(token string) {
	g.mu.Lock()
	_, existed := g.sessions[token]
	delete(g.sessions, token)
	g.mu.Unlock()

	if existed {
		g.logger.Info("session logged out")
	}
}

// IdleTimeout reports the configured inactivity window, shown as the
// auto-logout caption on the dashboard.
func (g *Guard) IdleTimeout() time.Duration {
	return g.idleTimeout
}

// ActiveSessions reports how many tokens are currently authenticated.
// Expired-but-unaccessed sessions still count; expiry is evaluated on
// access, not by a background timer.
func (g *Guard) ActiveSessions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

func generateToken() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// TokenFromRequest extracts the session token from the request cookie, or ""
// when absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// WriteCookie attaches the session token to the response.
func WriteCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie on logout.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
