package response

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SelfSelector targets the element that triggered the remote call.
const SelfSelector = "~"

type (
	cmdMap   = orderedmap.OrderedMap[string, []*Command]
	mergeMap = orderedmap.OrderedMap[string, *cmdMap]
)

// Response accumulates client commands keyed by target. Per-target order is
// emission order and cross-target order is first-use order, both preserved
// on the wire. Page-level commands are recorded under internal numeric keys
// so they interleave with element operations in emission order.
//
// A Response is request scoped and not safe for concurrent use. Every
// command method returns the receiver for chaining.
type Response struct {
	name     string
	target   string
	counter  int
	commands *cmdMap
	merged   *mergeMap
	bag      map[string]any
	coerce   bool
	registry *Registry
}

// Option configures a Response at construction.
type Option func(*Response)

// WithName assigns an explicit identity name instead of a generated one.
func WithName(name string) Option {
	return func(r *Response) {
		if name != "" {
			r.name = name
		}
	}
}

// WithNumericCoercion controls whether numeric-looking string arguments are
// converted to numbers on their way in. On by default.
func WithNumericCoercion(enabled bool) Option {
	return func(r *Response) { r.coerce = enabled }
}

// New returns an empty Response with a generated identity name.
func New(opts ...Option) *Response {
	r := &Response{
		name:     uuid.New().String(),
		commands: orderedmap.New[string, []*Command](),
		merged:   orderedmap.New[string, *cmdMap](),
		bag:      map[string]any{},
		coerce:   true,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Factory returns a Response with selector already selected. Props are
// applied in order as immediate element operations, the usual shape when
// selector describes a new element such as "<div>".
func Factory(selector string, props ...Prop) *Response {
	r := New()
	r.Select(selector)
	for _, p := range props {
		r.Command(p.Name, p.Args...)
	}

	return r
}

// Name returns the identity name of the response.
func (r *Response) Name() string { return r.name }

// SetName renames the response. When the response is tracked the registry
// entry moves to the new name; a name held by a different tracked response
// is an error.
func (r *Response) SetName(name string) error {
	if name == "" {
		return errors.New("empty response name")
	}
	if r.registry != nil {
		return r.registry.rename(r, name)
	}
	r.name = name

	return nil
}

// SetVar stores an arbitrary server-side property on the response. Vars ride
// along in the persisted form but never reach the client.
func (r *Response) SetVar(name string, value any) *Response {
	r.bag[name] = value

	return r
}

// Var returns a stored property and whether it exists.
func (r *Response) Var(name string) (any, bool) {
	v, ok := r.bag[name]

	return v, ok
}

// UnsetVar removes a stored property.
func (r *Response) UnsetVar(name string) *Response {
	delete(r.bag, name)

	return r
}

// Vars returns a copy of the stored properties.
func (r *Response) Vars() map[string]any {
	out := make(map[string]any, len(r.bag))
	for k, v := range r.bag {
		out[k] = v
	}

	return out
}

// Select makes selector the current target for element operations. A bare
// word is treated as an element id and gains a "#" prefix; selectors that
// already carry a css marker, describe a new element ("<div>"), or name the
// reserved window/document/self targets pass through unchanged. An empty
// selector clears the selection.
func (r *Response) Select(selector string) *Response {
	r.target = normalizeSelector(selector)

	return r
}

// This targets the element that triggered the remote call.
func (r *Response) This() *Response {
	r.target = SelfSelector

	return r
}

// Window targets the window object.
func (r *Response) Window() *Response {
	r.target = "window"

	return r
}

// Document targets the document object.
func (r *Response) Document() *Response {
	r.target = "document"

	return r
}

// Target returns the current selection, empty when none.
func (r *Response) Target() string { return r.target }

func normalizeSelector(s string) string {
	if s == "" {
		return ""
	}
	if s == "window" || s == "document" || s == SelfSelector {
		return s
	}
	switch s[0] {
	case '#', '.', '<', '~', '[', ':', '*', '>', '+', ',', ' ':
		return s
	}

	return "#" + s
}

// add records cmd under key, falling back to the current selection when key
// is empty. With neither, the command is dropped. Arguments are normalized
// on the way in.
func (r *Response) add(key string, cmd *Command) *Response {
	if key == "" {
		key = r.target
	}
	if key == "" {
		return r
	}
	cmd.Args = r.typecastArgs(cmd.Args)
	list, _ := r.commands.Get(key)
	r.commands.Set(key, append(list, cmd))

	return r
}

// global records a page-level command under the next internal numeric key
// and drops the current selection.
func (r *Response) global(cmd *Command) *Response {
	r.target = ""

	return r.add(r.nextKey(), cmd)
}

func (r *Response) nextKey() string {
	k := strconv.Itoa(r.counter)
	r.counter++

	return k
}

func (r *Response) typecastArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = Typecast(a, r.coerce, true)
	}

	return out
}

// Command records a named element operation against the current target.
// With no target selected it records nothing.
func (r *Response) Command(name string, args ...any) *Response {
	if name == "" {
		return r
	}

	return r.add("", &Command{Name: name, Args: args})
}

// CommandAt records a named operation under an explicit target key, recorded
// verbatim with none of Select's id normalization.
func (r *Response) CommandAt(target, name string, args ...any) *Response {
	if target == "" || name == "" {
		return r
	}

	return r.add(target, &Command{Name: name, Args: args})
}

// Alert shows a modal alert dialog.
func (r *Response) Alert(message string) *Response {
	return r.global(&Command{Code: OpAlert, Args: []any{message}})
}

// CallFunc calls a named client function with the given arguments.
func (r *Response) CallFunc(fn string, args ...any) *Response {
	return r.global(&Command{Code: OpCallFunc, Args: append([]any{fn}, args...)})
}

// Script evaluates raw script text on the client, one statement per line.
func (r *Response) Script(lines ...string) *Response {
	args := make([]any, len(lines))
	for i, l := range lines {
		args[i] = l
	}

	return r.global(&Command{Code: OpScript, Args: args})
}

// JSON delivers v to the client's JSON callback as encoded text.
func (r *Response) JSON(v any) *Response {
	b, err := json.Marshal(Typecast(v, r.coerce, true))
	if err != nil {
		b = []byte("null")
	}

	return r.global(&Command{Code: OpJSON, Args: []any{string(b)}})
}

// RenderView renders html into the active view container, passing data to
// the container's render callback.
func (r *Response) RenderView(html string, data any) *Response {
	return r.global(&Command{Code: OpRenderView, Args: []any{html, data}})
}

// Log writes the arguments to the client console.
func (r *Response) Log(args ...any) *Response {
	return r.global(&Command{Code: OpLog, Args: args})
}

// Dump writes pretty-printed renderings of the arguments to the client
// console.
func (r *Response) Dump(args ...any) *Response {
	out := make([]any, len(args))
	for i, a := range args {
		b, err := json.MarshalIndent(Typecast(a, r.coerce, true), "", "  ")
		if err != nil {
			out[i] = "null"
			continue
		}
		out[i] = string(b)
	}

	return r.global(&Command{Code: OpLog, Args: out})
}

// Exception raises an exception event on the client.
func (r *Response) Exception(message string, args ...any) *Response {
	return r.global(&Command{Code: OpException, Args: append([]any{message}, args...)})
}

// Redirect navigates the client to url.
func (r *Response) Redirect(url string) *Response {
	return r.global(&Command{Code: OpRedirect, Args: []any{url}})
}

// RedirectToView loads url through the named view container instead of a
// full page navigation.
func (r *Response) RedirectToView(url, container string) *Response {
	return r.global(&Command{Code: OpRedirect, Args: []any{url, container}})
}

// SetGlobal sets a client global variable.
func (r *Response) SetGlobal(name string, value any) *Response {
	return r.global(&Command{Code: OpGlobal, Args: []any{name, value}})
}

// UnsetGlobal removes a client global variable.
func (r *Response) UnsetGlobal(name string) *Response {
	return r.global(&Command{Code: OpGlobal, Args: []any{name}})
}

// Remote triggers another remote call from the client.
func (r *Response) Remote(name string, args map[string]any) *Response {
	cmdArgs := []any{name}
	if args != nil {
		cmdArgs = append(cmdArgs, args)
	}

	return r.global(&Command{Code: OpRemote, Args: cmdArgs})
}

// Attr sets an attribute on the current target.
func (r *Response) Attr(name, value string) *Response {
	return r.Command("attr", name, value)
}

// CSS sets a style property on the current target.
func (r *Response) CSS(prop, value string) *Response {
	return r.Command("css", prop, value)
}

// HTML replaces the inner html of the current target.
func (r *Response) HTML(html string) *Response {
	return r.Command("html", html)
}

// Text replaces the text content of the current target.
func (r *Response) Text(text string) *Response {
	return r.Command("text", text)
}

// Append appends html inside the current target.
func (r *Response) Append(html string) *Response {
	return r.Command("append", html)
}

// Prepend prepends html inside the current target.
func (r *Response) Prepend(html string) *Response {
	return r.Command("prepend", html)
}

// Remove removes the current target from the page.
func (r *Response) Remove() *Response {
	return r.Command("remove")
}

// Capability invokes a named capability on the current target. With no
// target selected it records nothing.
func (r *Response) Capability(name string, args ...any) *Response {
	if r.target == "" || name == "" {
		return r
	}

	return r.add("", &Command{Code: OpCapability, Args: append([]any{name}, args...)})
}

// RemoveTarget drops every command recorded under key.
func (r *Response) RemoveTarget(key string) *Response {
	r.commands.Delete(key)

	return r
}

// Targets returns every command key in first-use order.
func (r *Response) Targets() []string {
	out := make([]string, 0, r.commands.Len())
	for p := r.commands.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}

	return out
}

// CommandsFor returns a copy of the command list recorded under key.
func (r *Response) CommandsFor(key string) []*Command {
	list, ok := r.commands.Get(key)
	if !ok {
		return nil
	}

	return append([]*Command(nil), list...)
}

// Empty reports whether the response carries no commands and no merges.
func (r *Response) Empty() bool {
	return r.commands.Len() == 0 && r.merged.Len() == 0
}

// Reset clears commands, merges, the current selection, and the internal
// key counter. The identity name, stored vars, and registry entry survive.
func (r *Response) Reset() *Response {
	r.commands = orderedmap.New[string, []*Command]()
	r.merged = orderedmap.New[string, *cmdMap]()
	r.target = ""
	r.counter = 0

	return r
}
