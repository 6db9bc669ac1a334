package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MemoryStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := store.Get(r, DefaultCookieName)
	require.NoError(t, err)
	assert.True(t, sess.IsNew)

	sess.Values["user"] = "ann"
	require.NoError(t, sess.Save(r, w))
	require.Equal(t, 1, store.Len())

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	passCookies(t, w, r2)

	sess2, err := store.Get(r2, DefaultCookieName)
	require.NoError(t, err)
	assert.False(t, sess2.IsNew)
	assert.Equal(t, sess.ID, sess2.ID)
	assert.Equal(t, "ann", sess2.Values["user"])
}

func Test_MemoryStore_UnknownCookie(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "sess_unknown"})

	sess, err := store.Get(r, DefaultCookieName)
	require.NoError(t, err)
	assert.True(t, sess.IsNew)
}

func Test_MemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := store.Get(r, DefaultCookieName)
	require.NoError(t, err)
	sess.Values["user"] = "ann"
	require.NoError(t, sess.Save(r, w))

	// Backdate the entry past its lifetime.
	store.mu.Lock()
	entry := store.sessions[sess.ID]
	entry.expires = time.Now().Add(-time.Second)
	store.sessions[sess.ID] = entry
	store.mu.Unlock()

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	passCookies(t, w, r2)

	sess2, err := store.Get(r2, DefaultCookieName)
	require.NoError(t, err)
	assert.True(t, sess2.IsNew)
	assert.Equal(t, 0, store.Len())
}

func Test_MemoryStore_CopiesValues(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := store.Get(r, DefaultCookieName)
	require.NoError(t, err)
	sess.Values["user"] = "ann"
	require.NoError(t, sess.Save(r, w))

	// Mutating the live session after save must not reach the store.
	sess.Values["user"] = "overwritten"

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	passCookies(t, w, r2)

	sess2, err := store.Get(r2, DefaultCookieName)
	require.NoError(t, err)
	assert.Equal(t, "ann", sess2.Values["user"])
}
