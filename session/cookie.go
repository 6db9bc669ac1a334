package session

import (
	"net/http"

	gsessions "github.com/gorilla/sessions"
)

// NewCookieStore returns a cookie-backed store tuned for remote calls:
// HttpOnly, SameSite Lax so same-site XHR posts carry the cookie, and a
// thirty day lifetime. Key pairs follow securecookie conventions, a hash
// key and an optional encryption key per pair.
func NewCookieStore(keyPairs ...[]byte) *gsessions.CookieStore {
	store := gsessions.NewCookieStore(keyPairs...)
	store.Options = &gsessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return store
}
