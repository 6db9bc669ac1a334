package dispatch

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/remotedom/remotedom/response"
)

// Reserved form fields carrying call metadata. Everything else in the form
// becomes handler arguments.
const (
	fieldCall   = "remote[call]"
	fieldView   = "remote[view]"
	fieldCSRF   = "remote[csrf]"
	fieldSubmit = "remote[submit]"
)

const (
	headerRequestedWith = "X-Requested-With"
	xmlHTTPRequest      = "XMLHttpRequest"
)

// Request is the parsed remote-call envelope.
type Request struct {
	// Name is the handler to call, from remote[call].
	Name string
	// View is the view container key, from remote[view]. A request naming a
	// view routes to the container's view handler instead of Name.
	View string
	// CSRF is the submitted token, checked when the dispatcher has CSRF on.
	CSRF string
	// Submit is the id of the element that submitted the call, when the
	// client sent one.
	Submit string
	// Args are the remaining form fields, bracket keys expanded.
	Args Args
	// HTTP is the underlying request.
	HTTP *http.Request
}

// IsRemote reports whether r looks like a remote call: an XMLHttpRequest
// naming a call or a view. Method policy is the dispatcher's business, not
// part of this test.
func IsRemote(r *http.Request) bool {
	if r.Header.Get(headerRequestedWith) != xmlHTTPRequest {
		return false
	}

	return r.FormValue(fieldCall) != "" || r.FormValue(fieldView) != ""
}

// parseRequest decodes the envelope. Bracket keys expand the way form
// encoders nest them: user[name] builds a map, tags[] appends to a list.
// With coerce set, numeric-looking values arrive as numbers.
func parseRequest(r *http.Request, coerce bool) (*Request, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	req := &Request{Args: Args{}, HTTP: r}
	for key, vals := range r.Form {
		if len(vals) == 0 {
			continue
		}
		switch key {
		case fieldCall:
			req.Name = vals[0]
		case fieldView:
			req.View = vals[0]
		case fieldCSRF:
			req.CSRF = vals[0]
		case fieldSubmit:
			req.Submit = vals[0]
		default:
			for _, v := range vals {
				var value any = v
				if coerce {
					value = response.CoerceNumeric(v)
				}
				assignBracketValue(req.Args, key, value)
			}
		}
	}

	return req, nil
}

// assignBracketValue stores value under a possibly bracketed key. Malformed
// bracket syntax falls back to the literal key, matching how lenient form
// decoders behave.
func assignBracketValue(args Args, key string, value any) {
	parts := parseBracketKey(key)
	if len(parts) == 1 {
		args[parts[0]] = value

		return
	}
	// A push segment is only meaningful at the end: tags[] appends, but
	// a[][b] has no addressable slot.
	for _, p := range parts[:len(parts)-1] {
		if p == "" {
			args[key] = value

			return
		}
	}

	assignPath(args, parts, value)
}

func assignPath(m map[string]any, parts []string, value any) {
	head, rest := parts[0], parts[1:]
	if len(rest) == 0 {
		m[head] = value

		return
	}
	if len(rest) == 1 && rest[0] == "" {
		list, _ := m[head].([]any)
		m[head] = append(list, value)

		return
	}

	child, ok := m[head].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[head] = child
	}
	assignPath(child, rest, value)
}

// parseBracketKey splits "user[address][city]" into its segments, with an
// empty final segment for push syntax "tags[]". Anything that does not scan
// cleanly stays a single literal key.
func parseBracketKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}
	}

	parts := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
	}

	return parts
}
