// Package server hosts the bridge's tool surface over JSON-RPC transports
// (stdio, SSE, streamable HTTP) and a plain REST binding. One Handler is
// created per connection; all bindings dispatch into the same Service.
package server
