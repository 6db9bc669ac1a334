package session

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	gsessions "github.com/gorilla/sessions"

	"github.com/remotedom/remotedom/pkg/logger"
)

// DefaultCookieName names the session cookie.
const DefaultCookieName = "remotedom_session"

// csrfKey is the session value holding the CSRF token.
const csrfKey = "csrf_token"

// ErrTokenMismatch is returned when a submitted CSRF token does not match
// the one held in the session.
var ErrTokenMismatch = errors.New("csrf token mismatch")

// Manager issues CSRF tokens and loads handler session state from an
// underlying store. The zero value is not usable; build one with
// NewManager.
type Manager struct {
	store gsessions.Store
	name  string
	lggr  logger.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.name = name
		}
	}
}

// WithLogger sets the logger used for session save failures.
func WithLogger(lggr logger.Logger) ManagerOption {
	return func(m *Manager) { m.lggr = lggr }
}

// NewManager returns a Manager over store.
func NewManager(store gsessions.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store: store,
		name:  DefaultCookieName,
		lggr:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// CookieName returns the session cookie name in use.
func (m *Manager) CookieName() string { return m.name }

// CSRF returns the request's CSRF token, minting and saving a fresh one
// when the session does not hold one yet. The token is what page markup
// embeds in forms and meta tags.
func (m *Manager) CSRF(w http.ResponseWriter, r *http.Request) (string, error) {
	// A stale or tampered cookie decodes with an error but still yields a
	// usable fresh session.
	sess, err := m.store.Get(r, m.name)
	if sess == nil {
		return "", fmt.Errorf("load session: %w", err)
	}

	if tok, ok := sess.Values[csrfKey].(string); ok && tok != "" {
		return tok, nil
	}

	tok := newToken()
	sess.Values[csrfKey] = tok
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save csrf token: %w", err)
	}

	return tok, nil
}

// ValidateCSRF checks a submitted token against the session's token.
func (m *Manager) ValidateCSRF(r *http.Request, token string) error {
	sess, _ := m.store.Get(r, m.name)
	if sess == nil {
		return ErrTokenMismatch
	}

	want, _ := sess.Values[csrfKey].(string)
	if want == "" || token == "" {
		return ErrTokenMismatch
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(token)) != 1 {
		return ErrTokenMismatch
	}

	return nil
}

// Load returns the request's session for handler state. Writes are staged
// in memory until Save.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	sess, err := m.store.Get(r, m.name)
	if sess == nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	return &Session{s: sess, w: w, r: r, lggr: m.lggr}, nil
}

// Session is a request's session state with typed access and an explicit
// Save. Keys are strings; values must survive the store's encoding, which
// for the bundled stores means JSON-safe values.
type Session struct {
	s    *gsessions.Session
	w    http.ResponseWriter
	r    *http.Request
	lggr logger.Logger
}

// ID returns the store-assigned session id, empty before the first Save.
func (s *Session) ID() string { return s.s.ID }

// IsNew reports whether the session was created by this request.
func (s *Session) IsNew() bool { return s.s.IsNew }

// Get returns a stored value and whether it exists.
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.s.Values[key]

	return v, ok
}

// GetString returns a stored string value, empty when absent or not a
// string.
func (s *Session) GetString(key string) string {
	v, _ := s.s.Values[key].(string)

	return v
}

// Set stages a value under key.
func (s *Session) Set(key string, value any) {
	s.s.Values[key] = value
}

// Delete removes the value under key.
func (s *Session) Delete(key string) {
	delete(s.s.Values, key)
}

// Save writes staged values through the store. Call it before the response
// body is written; stores set cookies on the way out.
func (s *Session) Save() error {
	if err := s.s.Save(s.r, s.w); err != nil {
		s.lggr.Errorw("session save failed", "err", err)

		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

// Destroy drops the session and expires its cookie.
func (s *Session) Destroy() error {
	s.s.Options.MaxAge = -1
	for k := range s.s.Values {
		delete(s.s.Values, k)
	}

	return s.Save()
}
