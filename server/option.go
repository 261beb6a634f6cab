package server

import (
	"net/http"

	"github.com/viant/mcp-protocol/schema"
)

// Option is a function that configures the server.
type Option func(s *Server) error

// WithNewService sets the per-connection service constructor.
func WithNewService(newService NewService) Option {
	return func(s *Server) error {
		s.newService = newService
		return nil
	}
}

// WithImplementation sets the server implementation info.
func WithImplementation(implementation schema.Implementation) Option {
	return func(s *Server) error {
		s.info = implementation
		return nil
	}
}

// WithInstructions sets the instructions returned from initialize.
func WithInstructions(instructions string) Option {
	return func(s *Server) error {
		s.instructions = &instructions
		return nil
	}
}

// WithCORS adds a CORS handler to the server.
func WithCORS(cors *Cors) Option {
	return func(s *Server) error {
		handler := &corsHandler{Cors: cors}
		s.corsConfig = cors
		s.corsHandler = handler.Middleware
		return nil
	}
}

// WithHTTPHandler mounts a custom handler at path on the HTTP server.
func WithHTTPHandler(path string, handler http.HandlerFunc) Option {
	return func(s *Server) error {
		if s.customHTTPHandlers == nil {
			s.customHTTPHandlers = map[string]http.HandlerFunc{}
		}
		s.customHTTPHandlers[path] = handler
		return nil
	}
}

// WithLoggerName sets the notification logger name.
func WithLoggerName(name string) Option {
	return func(s *Server) error {
		s.loggerName = name
		return nil
	}
}
