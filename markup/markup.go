// Package markup builds the HTML snippets that wire page elements to
// remote calls: links, form shells and selects carrying data-remote
// attributes for the client runtime, plus the csrf meta tag. Helpers
// return template.HTML with attribute values escaped, safe to splice
// into html/template output.
package markup

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"
)

var (
	// ErrEmptyRemote is returned when the remote call name is missing.
	ErrEmptyRemote = errors.New("empty remote name")
	// ErrEmptyTitle is returned when a link has no title.
	ErrEmptyTitle = errors.New("empty link title")
	// ErrEmptyAction is returned when a form has no action.
	ErrEmptyAction = errors.New("empty form action")
)

// Item is one select option, rendered in slice order.
type Item struct {
	Value string
	Label string
}

// Option adjusts a generated snippet.
type Option func(*settings)

type settings struct {
	tag      string
	href     string
	method   string
	confirm  string
	args     map[string]any
	all      bool
	csrf     string
	encoding string
	selected string
	open     bool
	extra    map[string]string
}

func newSettings(opts []Option) *settings {
	s := &settings{extra: map[string]string{}}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithConfirm asks the client to show prompt before the call fires.
func WithConfirm(prompt string) Option {
	return func(s *settings) { s.confirm = prompt }
}

// WithHref sets the link target used as the non-script fallback.
func WithHref(url string) Option {
	return func(s *settings) { s.href = url }
}

// WithArgs attaches extra call arguments, JSON-encoded on the element.
func WithArgs(args map[string]any) Option {
	return func(s *settings) { s.args = args }
}

// WithMethod sets the HTTP method: the form method for FormFor, a call
// hint for LinkTo.
func WithMethod(method string) Option {
	return func(s *settings) { s.method = method }
}

// WithTag overrides the element tag of LinkTo.
func WithTag(tag string) Option {
	return func(s *settings) { s.tag = tag }
}

// WithAttr passes an attribute through to the element, value escaped.
func WithAttr(name, value string) Option {
	return func(s *settings) {
		if name != "" {
			s.extra[name] = value
		}
	}
}

// WithoutClose emits the opening tag only, leaving content and closing
// tag to the caller.
func WithoutClose() Option {
	return func(s *settings) { s.open = true }
}

// WithCSRF appends a hidden token input to FormFor output.
func WithCSRF(token string) Option {
	return func(s *settings) { s.csrf = token }
}

// WithAll marks a form to submit disabled fields too.
func WithAll() Option {
	return func(s *settings) { s.all = true }
}

// WithEncoding sets the form accept-charset. Defaults to utf-8.
func WithEncoding(charset string) Option {
	return func(s *settings) { s.encoding = charset }
}

// WithSelected preselects the option holding value.
func WithSelected(value string) Option {
	return func(s *settings) { s.selected = value }
}

// LinkTo returns an element that fires the named remote call when
// activated. The default shape is an anchor with a "#" href; WithTag
// substitutes any element.
func LinkTo(title, remote string, opts ...Option) (template.HTML, error) {
	if title == "" {
		return "", ErrEmptyTitle
	}
	if remote == "" {
		return "", ErrEmptyRemote
	}

	s := newSettings(opts)
	tag := s.tag
	if tag == "" {
		tag = "a"
	}

	var b strings.Builder
	b.WriteString("<" + tag)
	if href := s.linkHref(tag); href != "" {
		writeAttr(&b, "href", href)
	}
	writeAttr(&b, "data-remote", remote)
	if s.confirm != "" {
		writeAttr(&b, "data-remote-confirm", s.confirm)
	}
	if s.method != "" {
		writeAttr(&b, "data-remote-method", s.method)
	}
	if err := writeArgs(&b, s.args); err != nil {
		return "", err
	}
	writeExtras(&b, s.extra)
	b.WriteString(">")
	if !s.open {
		b.WriteString(escape(title))
		b.WriteString("</" + tag + ">")
	}

	return template.HTML(b.String()), nil
}

// FormFor returns a form opening tag posting to the named remote call.
// Callers write their fields and the closing tag themselves. WithCSRF
// appends the hidden token input the dispatcher checks.
func FormFor(action, remote string, opts ...Option) (template.HTML, error) {
	if action == "" {
		return "", ErrEmptyAction
	}
	if remote == "" {
		return "", ErrEmptyRemote
	}

	s := newSettings(opts)
	method := s.method
	if method == "" {
		method = "post"
	}
	charset := s.encoding
	if charset == "" {
		charset = "utf-8"
	}

	var b strings.Builder
	b.WriteString("<form")
	writeAttr(&b, "action", action)
	writeAttr(&b, "method", method)
	writeAttr(&b, "accept-charset", charset)
	writeAttr(&b, "data-remote", remote)
	if s.all {
		writeAttr(&b, "data-remote-all", "true")
	}
	if s.confirm != "" {
		writeAttr(&b, "data-remote-confirm", s.confirm)
	}
	if err := writeArgs(&b, s.args); err != nil {
		return "", err
	}
	writeExtras(&b, s.extra)
	b.WriteString(">")
	if s.csrf != "" {
		b.WriteString(`<input type="hidden" name="remote[csrf]" value="`)
		b.WriteString(escape(s.csrf))
		b.WriteString(`">`)
	}

	return template.HTML(b.String()), nil
}

// SelectFor returns a select whose change event fires the named remote
// call with the chosen value.
func SelectFor(remote string, items []Item, opts ...Option) (template.HTML, error) {
	if remote == "" {
		return "", ErrEmptyRemote
	}

	s := newSettings(opts)

	var b strings.Builder
	b.WriteString("<select")
	writeAttr(&b, "data-remote", remote)
	if s.confirm != "" {
		writeAttr(&b, "data-remote-confirm", s.confirm)
	}
	if err := writeArgs(&b, s.args); err != nil {
		return "", err
	}
	writeExtras(&b, s.extra)
	b.WriteString(">")
	for _, item := range items {
		b.WriteString("<option")
		writeAttr(&b, "value", item.Value)
		if s.selected != "" && item.Value == s.selected {
			b.WriteString(` selected="selected"`)
		}
		b.WriteString(">")
		b.WriteString(escape(item.Label))
		b.WriteString("</option>")
	}
	b.WriteString("</select>")

	return template.HTML(b.String()), nil
}

// CSRFMeta returns the page meta tag the client reads the token from.
func CSRFMeta(token string) template.HTML {
	var b strings.Builder
	b.WriteString(`<meta name="csrf-token"`)
	writeAttr(&b, "content", token)
	b.WriteString(">")

	return template.HTML(b.String())
}

// linkHref picks the href for LinkTo output. Anchors always get one so
// the element stays focusable; other tags only when asked.
func (s *settings) linkHref(tag string) string {
	if s.href != "" {
		return s.href
	}
	if tag == "a" {
		return "#"
	}

	return ""
}

func escape(s string) string {
	return template.HTMLEscapeString(s)
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(escape(value))
	b.WriteString(`"`)
}

func writeArgs(b *strings.Builder, args map[string]any) error {
	if args == nil {
		return nil
	}

	enc, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode remote args: %w", err)
	}
	writeAttr(b, "data-remote-args", string(enc))

	return nil
}

// writeExtras emits passthrough attributes in name order, keeping output
// stable for a given option set.
func writeExtras(b *strings.Builder, extra map[string]string) {
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		writeAttr(b, name, extra[name])
	}
}
