package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	_ "github.com/lib/pq"

	"github.com/remotedom/remotedom/pkg/logger"
)

// sqlSchema creates the session table. Timestamps are unix seconds so the
// same statements run against postgres in production and ramsql in tests.
const sqlSchema = `
	CREATE TABLE IF NOT EXISTS remotedom_sessions (
		id         VARCHAR(64) NOT NULL,
		data       TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		expires_at BIGINT NOT NULL,

		PRIMARY KEY(id)
	);`

// defaultMaxAge ages out sessions whose cookie is browser-scoped.
const defaultMaxAge = 86400 * 30

var _ gsessions.Store = &SQLStore{}

// SQLStore keeps session values in a SQL table, with only a signed session
// id in the cookie. Values are stored as JSON, so everything placed in a
// session must be JSON-safe.
type SQLStore struct {
	db      *sql.DB
	codecs  []securecookie.Codec
	Options *gsessions.Options
}

// NewSQLStore returns a store writing to db, which must already be open.
// Key pairs sign the session id cookie, securecookie style.
func NewSQLStore(db *sql.DB, keyPairs ...[]byte) *SQLStore {
	return &SQLStore{
		db:     db,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &gsessions.Options{
			Path:     "/",
			MaxAge:   defaultMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// CreateSchema creates the session table when it does not exist.
func (s *SQLStore) CreateSchema() error {
	if _, err := s.db.Exec(sqlSchema); err != nil {
		return fmt.Errorf("create session schema: %w", err)
	}

	return nil
}

// Get returns the request's cached session, loading it on first use.
func (s *SQLStore) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie, or returns a fresh one
// when there is no cookie, the cookie does not verify, or the row is gone.
func (s *SQLStore) New(r *http.Request, name string) (*gsessions.Session, error) {
	sess := gsessions.NewSession(s, name)
	opts := *s.Options
	sess.Options = &opts
	sess.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return sess, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return sess, nil
	}

	found, err := s.load(r.Context(), id, sess)
	if err != nil {
		return sess, fmt.Errorf("load session %q: %w", id, err)
	}
	if found {
		sess.ID = id
		sess.IsNew = false
	}

	return sess, nil
}

// Save writes the session row and sets the id cookie. A session whose
// MaxAge went negative is deleted and its cookie expired.
func (s *SQLStore) Save(r *http.Request, w http.ResponseWriter, sess *gsessions.Session) error {
	if sess.Options.MaxAge < 0 {
		if sess.ID != "" {
			if err := s.destroy(r.Context(), sess.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, gsessions.NewCookie(sess.Name(), "", sess.Options))

		return nil
	}

	if sess.ID == "" {
		sess.ID = newSessionID()
	}
	if err := s.save(r.Context(), sess); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(sess.Name(), sess.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, gsessions.NewCookie(sess.Name(), encoded, sess.Options))

	return nil
}

// Cleanup deletes expired rows and returns how many went away.
func (s *SQLStore) Cleanup() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM remotedom_sessions WHERE expires_at <= $1`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}

	return res.RowsAffected()
}

func (s *SQLStore) load(ctx context.Context, id string, sess *gsessions.Session) (bool, error) {
	var (
		data    string
		expires int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM remotedom_sessions WHERE id = $1`, id,
	).Scan(&data, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// Expired rows read as absent; Cleanup prunes them later.
	if expires <= time.Now().Unix() {
		return false, nil
	}

	values, err := decodeValues(data)
	if err != nil {
		return false, err
	}
	for k, v := range values {
		sess.Values[k] = v
	}

	return true, nil
}

func (s *SQLStore) save(ctx context.Context, sess *gsessions.Session) error {
	data, err := encodeValues(sess.Values)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	maxAge := sess.Options.MaxAge
	if maxAge == 0 {
		maxAge = defaultMaxAge
	}
	expires := now + int64(maxAge)

	res, err := s.db.ExecContext(ctx,
		`UPDATE remotedom_sessions SET data = $1, updated_at = $2, expires_at = $3 WHERE id = $4`,
		data, now, expires, sess.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO remotedom_sessions (id, data, created_at, updated_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, data, now, now, expires)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (s *SQLStore) destroy(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM remotedom_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

func encodeValues(values map[any]any) (string, error) {
	out := make(map[string]any, len(values))
	for k, v := range values {
		key, ok := k.(string)
		if !ok {
			return "", fmt.Errorf("session keys must be strings, got %T", k)
		}
		out[key] = v
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode session data: %w", err)
	}

	return string(b), nil
}

func decodeValues(data string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("decode session data: %w", err)
	}

	return out, nil
}

// Open connects to the session database and verifies it is reachable,
// retrying the ping a few times so a server booting alongside its database
// does not give up first.
func Open(dsn string, lggr logger.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	retryCount := 0
	err = retry.Do(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err2 := db.PingContext(ctx); err2 != nil {
			lggr.Warnf("session database ping failed - retryable error: %v", err2)

			return err2
		}

		return nil
	}, retry.Attempts(5), retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) { retryCount++ }))
	if err != nil {
		_ = db.Close()

		return nil, errors.Join(err, errors.New("session database unreachable after retries"))
	}
	if retryCount > 0 {
		lggr.Infof("session database reachable after %d retries", retryCount)
	}

	return db, nil
}
