package dispatch

// Config controls dispatcher behavior. DefaultConfig is the starting point;
// zero values mean off.
type Config struct {
	// CSRF requires a valid session token on every call. Needs a session
	// manager wired with WithSessions.
	CSRF bool
	// ErrorReporting sends failure detail to the client inside exception
	// commands. Off, clients get a generic message and the detail stays in
	// the server log.
	ErrorReporting bool
	// AutoTypecast converts numeric-looking argument strings to numbers on
	// the way in.
	AutoTypecast bool
	// Compress gzips reply bodies when the client accepts it.
	Compress bool
	// AllowGet additionally accepts GET remote calls. POST is always
	// accepted.
	AllowGet bool
	// Encoding is the charset advertised in the reply content type.
	Encoding string
}

// DefaultConfig returns the dispatcher defaults: POST-only, no CSRF, no
// compression, typecasting on, utf-8 replies.
func DefaultConfig() Config {
	return Config{
		AutoTypecast: true,
		Encoding:     "utf-8",
	}
}
