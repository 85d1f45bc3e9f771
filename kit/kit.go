// Package kit carries the transport-agnostic plumbing the ops surface
// is built on: an Endpoint function shape, middleware chaining, and
// adapters that expose an Endpoint over MCP. The HTTP adapter lives in
// the service package because it needs the envelope shape.
package kit

import "context"

// Endpoint is one op: typed request in, typed response out. Both HTTP
// handlers and MCP tools decode into the same Endpoint.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first argument is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
