package session

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/proullon/ramsql/driver"
)

// openTestDB opens an in-memory SQL engine. Each test name is its own
// database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("ramsql", t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	return db
}

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()

	store := NewSQLStore(openTestDB(t), []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, store.CreateSchema())

	return store
}

func Test_SQLStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	store := newTestSQLStore(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := store.Get(r, DefaultCookieName)
	require.NoError(t, err)
	assert.True(t, sess.IsNew)

	sess.Values["user"] = "ann"
	require.NoError(t, sess.Save(r, w))
	require.NotEmpty(t, sess.ID)

	// The cookie carries a signed id, not the id itself.
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, sess.ID, cookies[0].Value)

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	passCookies(t, w, r2)

	sess2, err := store.Get(r2, DefaultCookieName)
	require.NoError(t, err)
	assert.False(t, sess2.IsNew)
	assert.Equal(t, sess.ID, sess2.ID)
	assert.Equal(t, "ann", sess2.Values["user"])
}

func Test_SQLStore_UpdateExisting(t *testing.T) {
	t.Parallel()

	store := newTestSQLStore(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := store.Get(r, DefaultCookieName)
	require.NoError(t, err)
	sess.Values["step"] = "one"
	require.NoError(t, sess.Save(r, w))

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	passCookies(t, w, r2)
	w2 := httptest.NewRecorder()

	sess2, err := store.Get(r2, DefaultCookieName)
	require.NoError(t, err)
	sess2.Values["step"] = "two"
	require.NoError(t, sess2.Save(r2, w2))

	r3 := httptest.NewRequest(http.MethodGet, "/", nil)
	passCookies(t, w2, r3)

	sess3, err := store.Get(r3, DefaultCookieName)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, sess3.ID)
	assert.Equal(t, "two", sess3.Values["step"])
}

func Test_SQLStore_TamperedCookie(t *testing.T) {
	t.Parallel()

	store := newTestSQLStore(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "not-a-signed-id"})

	sess, err := store.Get(r, DefaultCookieName)
	require.NoError(t, err)
	assert.True(t, sess.IsNew)
}

func Test_SQLStore_Destroy(t *testing.T) {
	t.Parallel()

	store := newTestSQLStore(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := store.Get(r, DefaultCookieName)
	require.NoError(t, err)
	sess.Values["user"] = "ann"
	require.NoError(t, sess.Save(r, w))

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	passCookies(t, w, r2)
	w2 := httptest.NewRecorder()

	sess2, err := store.Get(r2, DefaultCookieName)
	require.NoError(t, err)
	sess2.Options.MaxAge = -1
	require.NoError(t, sess2.Save(r2, w2))

	// The old cookie no longer resolves to a session.
	r3 := httptest.NewRequest(http.MethodGet, "/", nil)
	passCookies(t, w, r3)

	sess3, err := store.Get(r3, DefaultCookieName)
	require.NoError(t, err)
	assert.True(t, sess3.IsNew)
}

func Test_SQLStore_Cleanup(t *testing.T) {
	t.Parallel()

	store := newTestSQLStore(t)

	// One live row, one long expired.
	now := time.Now().Unix()
	_, err := store.db.Exec(
		`INSERT INTO remotedom_sessions (id, data, created_at, updated_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		"sess_live", `{"user":"ann"}`, now, now, now+3600)
	require.NoError(t, err)
	_, err = store.db.Exec(
		`INSERT INTO remotedom_sessions (id, data, created_at, updated_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		"sess_stale", `{}`, now-7200, now-7200, now-3600)
	require.NoError(t, err)

	n, err := store.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM remotedom_sessions`).Scan(&count))
	assert.Equal(t, 1, count)
}

func Test_SQLStore_ExpiredRowReadsAsAbsent(t *testing.T) {
	t.Parallel()

	store := newTestSQLStore(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := store.Get(r, DefaultCookieName)
	require.NoError(t, err)
	sess.Values["user"] = "ann"
	require.NoError(t, sess.Save(r, w))

	// Force the row into the past.
	_, err = store.db.Exec(
		`UPDATE remotedom_sessions SET expires_at = $1 WHERE id = $2`,
		time.Now().Unix()-10, sess.ID)
	require.NoError(t, err)

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	passCookies(t, w, r2)

	sess2, err := store.Get(r2, DefaultCookieName)
	require.NoError(t, err)
	assert.True(t, sess2.IsNew)
}
