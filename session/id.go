package session

import "github.com/segmentio/ksuid"

// newToken generates a new CSRF token.
func newToken() string {
	return newID("tok")
}

// newSessionID generates a new server-side session ID.
func newSessionID() string {
	return newID("sess")
}

// newID generates a new ID with a given prefix. ksuid IDs sort by creation
// time, which keeps the session table naturally ordered and makes the
// prefix the only thing needed to tell token kinds apart in logs.
func newID(prefix string) string {
	return prefix + "_" + ksuid.New().String()
}
