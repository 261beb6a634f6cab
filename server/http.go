package server

import (
	"context"
	"net/http"

	"github.com/viant/jsonrpc/transport/server/http/sse"
	"github.com/viant/jsonrpc/transport/server/http/streamable"
	"github.com/viant/mcp-protocol/schema"
)

type httpServer struct {
	sseHandler         *sse.Handler
	streamingHandler   *streamable.Handler
	addr               string
	customHTTPHandlers map[string]http.HandlerFunc
	corsHandler        Middleware
	corsConfig         *Cors
	sseURI             string
	sseMessageURI      string
	streamableURI      string
}

// HTTP creates and returns an HTTP server hosting the SSE and streamable
// JSON-RPC transports alongside the plain REST binding.
func (s *Server) HTTP(ctx context.Context, addr string) (*http.Server, error) {
	if addr == "" {
		addr = s.addr
	}
	if addr == "" {
		// Default bind only to localhost to reduce DNS rebinding risk
		addr = "127.0.0.1:5000"
	}
	if s.sseURI == "" {
		s.sseURI = "/sse"
	}
	if s.sseMessageURI == "" {
		s.sseMessageURI = "/message"
	}
	if s.streamableURI == "" {
		s.streamableURI = "/mcp"
	}

	s.sseHandler = sse.New(s.NewHandler,
		sse.WithURI(s.sseURI),
		sse.WithMessageURI(s.sseMessageURI),
	)
	s.streamingHandler = streamable.New(s.NewHandler,
		streamable.WithURI(s.streamableURI),
	)

	// The REST binding shares the dispatch path with the protocol transports;
	// it has no connection to push to, hence the discarding notifier.
	var restLevel schema.LoggingLevel
	restService, err := s.newService(ctx, &nopNotifier{}, NewLogger(s.loggerName, &restLevel, &nopNotifier{}))
	if err != nil {
		return nil, err
	}
	rest := newRestHandler(restService, s.info.Version)

	mux := http.NewServeMux()
	for path, handler := range s.customHTTPHandlers {
		mux.Handle(path, handler)
	}
	mux.HandleFunc("/tools/list", rest.listTools)
	mux.HandleFunc("/tools/call", rest.callTool)
	mux.HandleFunc("/health", rest.health)

	var middlewareHandlers []Middleware
	// Validate MCP-Protocol-Version and set response header
	middlewareHandlers = append(middlewareHandlers, protocolVersionMiddleware())
	if s.corsHandler != nil {
		middlewareHandlers = append(middlewareHandlers, s.corsHandler)
	}
	// Validate Origin on all requests (uses configured CORS allowlist)
	if s.corsConfig != nil {
		middlewareHandlers = append(middlewareHandlers, originValidationMiddleware(s.corsConfig.AllowOrigins))
	}
	sseChain := ChainMiddlewareHandlers(s.sseHandler, middlewareHandlers...)
	streamChain := ChainMiddlewareHandlers(s.streamingHandler, middlewareHandlers...)

	mux.Handle(s.sseURI, sseChain)
	mux.Handle(s.sseMessageURI, sseChain)
	mux.Handle(s.streamableURI, streamChain)

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}, nil
}
