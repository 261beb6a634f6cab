package bridge

import (
	"context"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/tessai/mcp-bridge/server"
)

// Run parses CLI flags, loads the environment configuration and serves the
// bridge over HTTP (default) or stdio.
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	logger := newLogger(options)
	ctx := context.Background()

	config, err := LoadConfig(ctx)
	if err != nil {
		return err
	}
	aBridge, err := New(ctx, config, WithLogger(logger))
	if err != nil {
		return err
	}
	srv, err := server.New(
		server.WithNewService(aBridge.NewService),
		server.WithLoggerName("tess-bridge"),
		server.WithCORS(server.DefaultCors()),
	)
	if err != nil {
		return err
	}
	if options.Stdio {
		logger.Info().Msg("serving over stdio")
		return srv.Stdio(ctx).ListenAndServe()
	}
	addr := options.Addr
	if addr == "" {
		addr = config.Addr()
	}
	httpServer, err := srv.HTTP(ctx, addr)
	if err != nil {
		return err
	}
	logger.Info().Str("addr", addr).Msg("serving over http")
	return httpServer.ListenAndServe()
}

// newLogger builds the process logger; logs go to stderr so stdio transport
// framing stays clean.
func newLogger(options *Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if options.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
