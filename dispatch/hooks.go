package dispatch

import "github.com/remotedom/remotedom/response"

// BeforeFunc runs ahead of routing. It may mutate the request, typically
// the Args. Returning false aborts the call: nothing is routed and the
// client gets an empty 204 reply.
type BeforeFunc func(ctx *Context, req *Request) bool

// AfterFunc runs once a response exists, before it is written. It may
// mutate the response. Returning false aborts the call the same way a
// before hook does.
type AfterFunc func(ctx *Context, req *Request, resp *response.Response) bool

// Before appends a hook run ahead of every call, in registration order.
func (d *Dispatcher) Before(fn BeforeFunc) {
	if fn == nil {
		return
	}

	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.before = append(d.before, fn)
}

// After appends a hook run after every handled call, in registration order.
func (d *Dispatcher) After(fn AfterFunc) {
	if fn == nil {
		return
	}

	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.after = append(d.after, fn)
}

func (d *Dispatcher) runBefore(ctx *Context, req *Request) bool {
	d.hookMu.RLock()
	hooks := d.before
	d.hookMu.RUnlock()

	for _, fn := range hooks {
		if !fn(ctx, req) {
			return false
		}
	}

	return true
}

func (d *Dispatcher) runAfter(ctx *Context, req *Request, resp *response.Response) bool {
	d.hookMu.RLock()
	hooks := d.after
	d.hookMu.RUnlock()

	for _, fn := range hooks {
		if !fn(ctx, req, resp) {
			return false
		}
	}

	return true
}
