// Package dispatch routes remote calls from browser clients to named
// handlers and writes their command responses.
//
// A remote call arrives as a form-encoded POST carrying the envelope
// fields remote[call] (or remote[view]), remote[csrf] and remote[submit]
// plus the handler's own arguments. Bracketed argument names such as
// user[name] or tags[] expand into nested maps and slices before the
// handler sees them. Handlers receive a per-call Context with a logger,
// a response registry, shared globals and the caller's session, and
// return a *response.Response that is rendered into the reply body.
//
//	d := dispatch.New(dispatch.WithLogger(lggr))
//	d.MustSet("greet", func(ctx *dispatch.Context, args dispatch.Args) (*response.Response, error) {
//		resp := response.New()
//		resp.Select("#out").Text("hi " + args.String("name"))
//		return resp, nil
//	})
//	http.Handle("/remote", d.Handler())
package dispatch
