package server

import (
	"context"
	"errors"
	"io"

	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"

	"github.com/tessai/mcp-bridge/internal/collection"
)

// Service is the per-connection tool surface the protocol and REST bindings
// dispatch into. Implementations that also implement io.Closer are closed when
// the connection context ends.
type Service interface {
	ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error)
	CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error)
}

// NewService creates a Service bound to one connection; notifier delivers
// push notifications to that connection and logger emits client-visible
// logging/message notifications gated by the client's logging/setLevel.
type NewService func(ctx context.Context, notifier transport.Notifier, logger *Logger) (Service, error)

// Server hosts the tool service over stdio, SSE, streamable HTTP and REST.
type Server struct {
	capabilities schema.ServerCapabilities
	info         schema.Implementation
	newService   NewService

	instructions    *string
	protocolVersion string
	loggerName      string

	httpServer
}

// NewHandler creates a handler for one connection.
func (s *Server) NewHandler(ctx context.Context, transport transport.Transport) transport.Handler {
	return s.newHandler(ctx, transport)
}

func (s *Server) newHandler(ctx context.Context, transport transport.Transport) *Handler {
	ret := &Handler{
		Server:         s,
		Notifier:       transport,
		activeContexts: collection.NewSyncMap[int, *activeContext](),
	}
	// warnings and above until the client opts into more via logging/setLevel
	ret.loggingLevel = schema.Warning
	ret.Logger = NewLogger(s.loggerName, &ret.loggingLevel, transport)
	ret.service, ret.err = s.newService(ctx, transport, ret.Logger)
	if closer, ok := ret.service.(io.Closer); ok && closer != nil {
		go func() {
			<-ctx.Done()
			_ = closer.Close()
		}()
	}
	return ret
}

// New creates a Server instance.
func New(options ...Option) (*Server, error) {
	s := &Server{
		capabilities: schema.ServerCapabilities{Tools: &schema.ServerCapabilitiesTools{}},
		info: schema.Implementation{
			Name:    "tess-bridge",
			Version: "0.1",
		},
		loggerName:      "server",
		protocolVersion: schema.LatestProtocolVersion,
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if s.newService == nil {
		return nil, errors.New("no service specified")
	}
	return s, nil
}
