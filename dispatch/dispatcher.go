package dispatch

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/remotedom/remotedom/pkg/logger"
	"github.com/remotedom/remotedom/response"
	"github.com/remotedom/remotedom/session"
)

var (
	// ErrNotRemote is returned for requests that are not remote calls.
	ErrNotRemote = errors.New("not a remote call")
	// ErrUnknownRemote is returned when no handler or view matches.
	ErrUnknownRemote = errors.New("unknown remote call")
	// ErrCSRF is returned when token validation rejects a call.
	ErrCSRF = errors.New("csrf validation failed")
	// ErrAborted is returned when a hook cancels a call.
	ErrAborted = errors.New("dispatch aborted by hook")
	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("nil handler")
	// ErrDuplicateHandler is returned when registering a taken name.
	ErrDuplicateHandler = errors.New("handler already registered")
)

// Handler serves one named remote call. The returned response is rendered
// to the client; a nil response renders as an empty command map. A returned
// error becomes a client exception command, appended to the returned
// response when there is one.
type Handler func(ctx *Context, args Args) (*response.Response, error)

// ViewHandler serves a view container request, usually answering with
// RenderView into its container.
type ViewHandler func(ctx *Context, view View) (*response.Response, error)

// View identifies the container a view request addresses.
type View struct {
	Container string
	Args      Args
}

// Dispatcher routes remote calls to registered handlers and writes their
// command responses. Registration and serving are safe to interleave.
type Dispatcher struct {
	cfg      Config
	lggr     logger.Logger
	sessions *session.Manager
	handlers *registry[Handler]
	views    *registry[ViewHandler]

	hookMu sync.RWMutex
	before []BeforeFunc
	after  []AfterFunc
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(lggr logger.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.lggr = lggr }
}

// WithSessions wires a session manager, enabling ctx.Session in handlers
// and CSRF checking when the config asks for it.
func WithSessions(m *session.Manager) DispatcherOption {
	return func(d *Dispatcher) { d.sessions = m }
}

// WithConfig replaces the default config.
func WithConfig(cfg Config) DispatcherOption {
	return func(d *Dispatcher) { d.cfg = cfg }
}

// New returns a Dispatcher with no handlers registered.
func New(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		cfg:      DefaultConfig(),
		lggr:     logger.Nop(),
		handlers: newRegistry[Handler](),
		views:    newRegistry[ViewHandler](),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.lggr = d.lggr.Named("dispatch")

	return d
}

// Config returns the active configuration.
func (d *Dispatcher) Config() Config { return d.cfg }

// Set registers h under name. Registering a taken name or a nil handler is
// a usage error.
func (d *Dispatcher) Set(name string, h Handler) error {
	if name == "" {
		return errors.New("empty handler name")
	}
	if h == nil {
		return fmt.Errorf("register %q: %w", name, ErrNilHandler)
	}
	if !d.handlers.set(name, h) {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateHandler)
	}

	return nil
}

// MustSet is Set, panicking on error. For registration at program start.
func (d *Dispatcher) MustSet(name string, h Handler) {
	if err := d.Set(name, h); err != nil {
		panic(err)
	}
}

// Replace registers h under name, displacing any existing handler.
func (d *Dispatcher) Replace(name string, h Handler) error {
	if name == "" {
		return errors.New("empty handler name")
	}
	if h == nil {
		return fmt.Errorf("register %q: %w", name, ErrNilHandler)
	}
	d.handlers.replace(name, h)

	return nil
}

// Unset removes the handler under name and reports whether one existed.
func (d *Dispatcher) Unset(name string) bool {
	return d.handlers.unset(name)
}

// Has reports whether a handler is registered under name.
func (d *Dispatcher) Has(name string) bool {
	return d.handlers.has(name)
}

// Names returns the registered handler names, sorted.
func (d *Dispatcher) Names() []string {
	return d.handlers.names()
}

// SetView registers h for a view container.
func (d *Dispatcher) SetView(container string, h ViewHandler) error {
	if container == "" {
		return errors.New("empty view container")
	}
	if h == nil {
		return fmt.Errorf("register view %q: %w", container, ErrNilHandler)
	}
	if !d.views.set(container, h) {
		return fmt.Errorf("register view %q: %w", container, ErrDuplicateHandler)
	}

	return nil
}

// MustSetView is SetView, panicking on error.
func (d *Dispatcher) MustSetView(container string, h ViewHandler) {
	if err := d.SetView(container, h); err != nil {
		panic(err)
	}
}

// UnsetView removes the view handler for container.
func (d *Dispatcher) UnsetView(container string) bool {
	return d.views.unset(container)
}

// Views returns the registered view containers, sorted.
func (d *Dispatcher) Views() []string {
	return d.views.names()
}

// Process serves one remote call. By the time it returns, the reply has
// been written: command output on success, an exception command reply on
// handler failure, a bare status on envelope problems. The error return
// reports what happened for logging and tests; writing it again is the one
// thing a caller must not do.
func (d *Dispatcher) Process(w http.ResponseWriter, r *http.Request) error {
	if !d.methodAllowed(r) || !IsRemote(r) {
		w.WriteHeader(http.StatusBadRequest)

		return ErrNotRemote
	}

	req, err := parseRequest(r, d.cfg.AutoTypecast)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)

		return err
	}

	ctx := d.newContext(w, r, req)
	ctx.Logger.Debugw("remote call received", "args", len(req.Args))

	if d.cfg.CSRF {
		if err := d.checkCSRF(r, req); err != nil {
			ctx.Logger.Warnw("csrf rejected", "err", err)
			d.writeErrorBody(w, r, http.StatusForbidden, "invalid csrf token")

			return err
		}
	}

	if !d.runBefore(ctx, req) {
		w.WriteHeader(http.StatusNoContent)

		return ErrAborted
	}

	resp, herr := d.route(ctx, req)
	if errors.Is(herr, ErrUnknownRemote) {
		ctx.Logger.Warnw("unroutable remote call", "err", herr)
		d.writeErrorBody(w, r, http.StatusNotFound, "unknown remote call")

		return herr
	}
	if resp == nil {
		resp = response.New()
	}

	// Globals flush before any failure conversion; the exception command
	// must stay the terminal command in the stream.
	ctx.Globals.flush(resp)

	if herr != nil {
		ctx.Logger.Errorw("handler failed", "err", herr)
		resp = d.exceptionResponse(resp, herr)
	}

	if !d.runAfter(ctx, req, resp) {
		w.WriteHeader(http.StatusNoContent)

		return ErrAborted
	}

	if ctx.Session != nil {
		if err := ctx.Session.Save(); err != nil {
			ctx.Logger.Warnw("session save failed", "err", err)
		}
	}

	if err := d.writeBody(w, r, resp, http.StatusOK); err != nil {
		return err
	}

	return herr
}

// Handler adapts the dispatcher to http.Handler.
func (d *Dispatcher) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = d.Process(w, r)
	})
}

func (d *Dispatcher) methodAllowed(r *http.Request) bool {
	if r.Method == http.MethodPost {
		return true
	}

	return d.cfg.AllowGet && r.Method == http.MethodGet
}

func (d *Dispatcher) newContext(w http.ResponseWriter, r *http.Request, req *Request) *Context {
	lggr := d.lggr.With("remote", req.Name)
	if req.View != "" {
		lggr = d.lggr.With("view", req.View)
	}

	ctx := &Context{
		Logger:    lggr,
		Responses: response.NewRegistry(),
		Globals:   NewGlobals(),
		Request:   req,
	}
	if d.sessions != nil {
		sess, err := d.sessions.Load(w, r)
		if err != nil {
			lggr.Warnw("session load failed", "err", err)
		} else {
			ctx.Session = sess
		}
	}

	return ctx
}

func (d *Dispatcher) checkCSRF(r *http.Request, req *Request) error {
	if d.sessions == nil {
		return fmt.Errorf("%w: csrf enabled without a session manager", ErrCSRF)
	}
	if err := d.sessions.ValidateCSRF(r, req.CSRF); err != nil {
		return fmt.Errorf("%w: %w", ErrCSRF, err)
	}

	return nil
}

// route finds and runs the handler. Panics surface as errors carrying the
// panic value, with the stack in the server log only.
func (d *Dispatcher) route(ctx *Context, req *Request) (resp *response.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ctx.Logger.Errorw("handler panic", "panic", rec, "stack", string(debug.Stack()))
			resp = nil
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()

	if req.View != "" {
		h, ok := d.views.get(req.View)
		if !ok {
			return nil, fmt.Errorf("view %q: %w", req.View, ErrUnknownRemote)
		}

		return h(ctx, View{Container: req.View, Args: req.Args})
	}

	h, ok := d.handlers.get(req.Name)
	if !ok {
		return nil, fmt.Errorf("call %q: %w", req.Name, ErrUnknownRemote)
	}

	return h(ctx, req.Args)
}

// exceptionResponse turns a handler failure into client output: whatever
// the handler managed to build, terminated by an exception command. Detail
// reaches the client only with ErrorReporting on.
func (d *Dispatcher) exceptionResponse(base *response.Response, err error) *response.Response {
	resp := base
	if resp == nil {
		resp = response.New()
	}

	msg := "internal error"
	if d.cfg.ErrorReporting {
		msg = err.Error()
	}
	resp.Exception(msg)

	return resp
}
