package ttrss

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

type State int

const (
	LoggedOut State = iota
	LoggingIn
	LoggedIn
	LoggingOut
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged-out"
	case LoggingIn:
		return "logging-in"
	case LoggedIn:
		return "logged-in"
	case LoggingOut:
		return "logging-out"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

const logoutTimeout = 5 * time.Second

// Session owns the server session token. Authorized calls hold the read side
// of mu for their whole exchange, so login, logout and invalidation never
// interleave with a request that is still using the old token.
type Session struct {
	transport Transport
	creds     Credentials
	logger    *slog.Logger

	mu       sync.RWMutex
	state    State
	token    string
	apiLevel int
	// expired is set when the server rejected the token, so the next call
	// logs in again instead of failing with ErrNotAuthenticated.
	expired bool
}

func NewSession(transport Transport, creds Credentials, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		transport: transport,
		creds:     creds,
		logger:    logger,
		apiLevel:  -1,
	}
}

type loginContent struct {
	SessionID string          `json:"session_id"`
	APILevel  json.RawMessage `json:"api_level"`
}

// Login opens a session. It is a no-op while already logged in. A rejected
// login returns *AuthError and leaves the session logged out.
func (s *Session) Login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == LoggedIn {
		return nil
	}
	s.state = LoggingIn

	env := NewEnvelope("login", map[string]any{
		"user":     s.creds.User,
		"password": s.creds.Password,
	})
	resp, err := s.transport.Execute(ctx, env)
	if err != nil {
		s.resetLocked()
		return err
	}
	if !resp.OK() {
		s.resetLocked()
		return &AuthError{Op: "login", Message: resp.ErrorCode()}
	}

	var content loginContent
	if err := json.Unmarshal(resp.Content, &content); err != nil {
		s.resetLocked()
		return &TransportError{Op: "login", Err: fmt.Errorf("decode content: %w", err)}
	}
	if content.SessionID == "" {
		s.resetLocked()
		return &AuthError{Op: "login", Message: "no session id in response"}
	}

	s.token = content.SessionID
	s.apiLevel = -1
	if n, err := decodeFlexInt(content.APILevel); err == nil {
		s.apiLevel = n
	}
	s.state = LoggedIn
	s.expired = false
	s.logger.Debug("logged in", "endpoint", s.creds.Endpoint, "user", s.creds.User, "api_level", s.apiLevel)
	return nil
}

// Logout closes the session best-effort. Failures are logged, never returned:
// the session is closed locally either way.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != LoggedIn {
		return
	}
	s.state = LoggingOut
	env := NewEnvelope("logout", nil).WithSID(s.token)
	resp, err := s.transport.Execute(ctx, env)
	switch {
	case err != nil:
		s.logger.Warn("logout failed", "err", err)
	case !resp.OK():
		s.logger.Warn("logout rejected", "error", resp.ErrorCode())
	default:
		s.logger.Debug("logged out")
	}
	s.resetLocked()
	s.expired = false
}

// Authorize stamps the current token onto env.
func (s *Session) Authorize(env Envelope) (Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authorizeLocked(env)
}

func (s *Session) authorizeLocked(env Envelope) (Envelope, error) {
	if s.state != LoggedIn {
		return env, ErrNotAuthenticated
	}
	return env.WithSID(s.token), nil
}

// Call authorizes env and executes it. The returned token is the one the
// request carried, for use with Invalidate.
func (s *Session) Call(ctx context.Context, env Envelope) (Response, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stamped, err := s.authorizeLocked(env)
	if err != nil {
		return Response{}, "", fmt.Errorf("%s: %w", env.Op, err)
	}
	resp, err := s.transport.Execute(ctx, stamped)
	return resp, stamped.SID, err
}

// Invalidate drops the session if token is still the current one. A token
// that was already replaced by a concurrent re-login is left alone.
func (s *Session) Invalidate(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != LoggedIn || s.token != token {
		return false
	}
	s.logger.Info("session invalidated by server")
	s.resetLocked()
	s.expired = true
	return true
}

func (s *Session) resetLocked() {
	s.state = LoggedOut
	s.token = ""
	s.apiLevel = -1
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == LoggedIn
}

// Expired reports whether the last session was dropped by the server rather
// than closed by Logout.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// APILevel is the level reported at login, or -1 when unknown.
func (s *Session) APILevel() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiLevel
}

// WithSession logs in, runs fn, and attempts logout on every exit path,
// including cancellation of ctx and a panic inside fn.
func WithSession(ctx context.Context, transport Transport, creds Credentials, logger *slog.Logger, fn func(ctx context.Context, c *Client) error) error {
	sess := NewSession(transport, creds, logger)
	if err := sess.Login(ctx); err != nil {
		return err
	}
	defer func() {
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
		defer cancel()
		sess.Logout(logoutCtx)
	}()
	return fn(ctx, NewClient(sess))
}

// decodeFlexInt accepts both 5 and "5"; the server is not consistent.
func decodeFlexInt(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("empty value")
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not an integer: %s", string(raw))
	}
	return strconv.Atoi(s)
}
