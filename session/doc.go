// Package session holds the server-side state behind remote calls: CSRF
// tokens and per-visitor handler state, backed by pluggable
// gorilla/sessions stores.
//
// Three stores ship with the package. NewCookieStore keeps everything in a
// signed cookie, NewSQLStore keeps values in a SQL table with only a signed
// id in the cookie, and NewMemoryStore keeps values in process memory for
// tests and development. A Manager in front of any of them issues and
// validates the CSRF tokens that page markup embeds in forms and meta tags.
package session
