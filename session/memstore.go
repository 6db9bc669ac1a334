package session

import (
	"net/http"
	"sync"
	"time"

	gsessions "github.com/gorilla/sessions"
)

var _ gsessions.Store = &MemoryStore{}

type memorySession struct {
	values  map[any]any
	expires time.Time
}

// MemoryStore keeps sessions in process memory, with the plain session id
// as the cookie value. For tests and single-process development servers;
// nothing survives a restart and the cookie carries no signature.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession

	Options *gsessions.Options
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]memorySession{},
		Options: &gsessions.Options{
			Path:     "/",
			MaxAge:   defaultMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns the request's cached session, loading it on first use.
func (s *MemoryStore) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie, or returns a fresh one.
func (s *MemoryStore) New(r *http.Request, name string) (*gsessions.Session, error) {
	sess := gsessions.NewSession(s, name)
	opts := *s.Options
	sess.Options = &opts
	sess.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[c.Value]
	if !ok {
		return sess, nil
	}
	if time.Now().After(entry.expires) {
		delete(s.sessions, c.Value)

		return sess, nil
	}

	sess.ID = c.Value
	sess.IsNew = false
	for k, v := range entry.values {
		sess.Values[k] = v
	}

	return sess, nil
}

// Save stages the session in memory and sets the id cookie.
func (s *MemoryStore) Save(r *http.Request, w http.ResponseWriter, sess *gsessions.Session) error {
	if sess.Options.MaxAge < 0 {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
		http.SetCookie(w, gsessions.NewCookie(sess.Name(), "", sess.Options))

		return nil
	}

	if sess.ID == "" {
		sess.ID = newSessionID()
	}

	maxAge := sess.Options.MaxAge
	if maxAge == 0 {
		maxAge = defaultMaxAge
	}

	values := make(map[any]any, len(sess.Values))
	for k, v := range sess.Values {
		values[k] = v
	}

	s.mu.Lock()
	s.sessions[sess.ID] = memorySession{
		values:  values,
		expires: time.Now().Add(time.Duration(maxAge) * time.Second),
	}
	s.mu.Unlock()

	http.SetCookie(w, gsessions.NewCookie(sess.Name(), sess.ID, sess.Options))

	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
