package dispatch

import (
	"context"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/remotedom/remotedom/pkg/logger"
	"github.com/remotedom/remotedom/response"
	"github.com/remotedom/remotedom/session"
)

// Context carries everything a handler works with for one request. A fresh
// Context is built per call; nothing in it is shared across requests.
type Context struct {
	// Logger is scoped to the call, with the remote name attached.
	Logger logger.Logger
	// Responses tracks named responses so cooperating handlers and hooks
	// can merge each other's output.
	Responses *response.Registry
	// Globals stages client global variables, flushed as set-global
	// commands after the handler returns.
	Globals *Globals
	// Session is the visitor's session state, nil when the dispatcher runs
	// without sessions.
	Session *session.Session
	// Request is the parsed call envelope.
	Request *Request
}

// Context returns the request context for blocking work inside handlers.
func (c *Context) Context() context.Context {
	if c.Request != nil && c.Request.HTTP != nil {
		return c.Request.HTTP.Context()
	}

	return context.Background()
}

type globalEntry struct {
	value any
	unset bool
}

// Globals is a staged table of client global variables. Entries keep their
// first-assignment order; reassigning a name updates it in place. The
// dispatcher appends one set-global command per entry once the handler is
// done, so handlers can adjust globals freely without caring about command
// order mid-flight.
type Globals struct {
	mu      sync.Mutex
	entries *orderedmap.OrderedMap[string, globalEntry]
}

// NewGlobals returns an empty staged table.
func NewGlobals() *Globals {
	return &Globals{entries: orderedmap.New[string, globalEntry]()}
}

// Set stages a client global assignment.
func (g *Globals) Set(name string, value any) {
	if name == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries.Set(name, globalEntry{value: value})
}

// Unset stages a client global removal.
func (g *Globals) Unset(name string) {
	if name == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries.Set(name, globalEntry{unset: true})
}

// Len returns the number of staged entries.
func (g *Globals) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.entries.Len()
}

// flush appends the staged entries to resp in order and clears the table.
func (g *Globals) flush(resp *response.Response) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for p := g.entries.Oldest(); p != nil; p = p.Next() {
		if p.Value.unset {
			resp.UnsetGlobal(p.Key)
			continue
		}
		resp.SetGlobal(p.Key, p.Value.value)
	}
	g.entries = orderedmap.New[string, globalEntry]()
}
