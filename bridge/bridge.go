package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"

	"github.com/tessai/mcp-bridge/monitor"
	"github.com/tessai/mcp-bridge/registry"
	"github.com/tessai/mcp-bridge/server"
	"github.com/tessai/mcp-bridge/session"
	"github.com/tessai/mcp-bridge/tess"
)

// Bridge owns the components every connection shares: the upstream client,
// the sealed tool registry, the execution monitor and the session table.
type Bridge struct {
	config   *Config
	client   *tess.Client
	registry *registry.Registry
	monitor  *monitor.Monitor
	sessions *session.Manager
	logger   zerolog.Logger
}

// Option customizes a bridge.
type Option func(b *Bridge)

// WithLogger sets the process logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithClient overrides the upstream client.
func WithClient(client *tess.Client) Option {
	return func(b *Bridge) {
		b.client = client
	}
}

// New assembles a bridge from config.
func New(ctx context.Context, config *Config, options ...Option) (*Bridge, error) {
	ret := &Bridge{
		config: config,
		logger: zerolog.Nop(),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.client == nil {
		client, err := tess.New(&tess.Config{
			APIKey:  config.APIKey,
			BaseURL: config.APIURL,
			Timeout: config.HTTPTimeout,
		}, tess.WithLogger(ret.logger))
		if err != nil {
			return nil, err
		}
		ret.client = client
	}
	ret.monitor = monitor.New(ret.client.GetExecution,
		monitor.WithInterval(config.PollInterval),
		monitor.WithMaxAttempts(config.PollMaxAttempts),
		monitor.WithLogger(ret.logger))
	ret.sessions = session.New(
		session.WithLogger(ret.logger),
		session.WithOnIdle(ret.monitor.Cancel))
	ret.registry = registry.New()
	if err := ret.registerTools(); err != nil {
		return nil, err
	}
	ret.registry.Seal()
	return ret, nil
}

// NewService creates the per-connection service; it plugs into
// server.WithNewService.
func (b *Bridge) NewService(ctx context.Context, notifier transport.Notifier, logger *server.Logger) (server.Service, error) {
	return &connService{
		bridge:    b,
		session:   b.sessions.Open(),
		notifier:  notifier,
		clientLog: logger,
		ctx:       ctx,
	}, nil
}

// connService binds the shared bridge to one connection.
type connService struct {
	bridge   *Bridge
	session  *session.Session
	notifier transport.Notifier
	// client-visible logging/message sink, gated by the client's setLevel
	clientLog *server.Logger
	// connection lifetime; watch loops started for this connection run under it
	ctx context.Context
}

// ListTools returns the tool descriptors in registration order.
func (s *connService) ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	return &schema.ListToolsResult{Tools: s.bridge.registry.List()}, nil
}

// CallTool dispatches to the registered handler. Tool failures come back as
// error envelopes, never as protocol errors, so every transport reports them
// the same way.
func (s *connService) CallTool(ctx context.Context, params *schema.CallToolRequestParams) (result *schema.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.bridge.logger.Error().Str("tool", params.Name).Interface("panic", r).Msg("tool handler panicked")
			result, err = errorResult(fmt.Sprintf("internal error: %v", r)), nil
		}
	}()
	if params.Name == "" {
		return errorResult("missing tool name"), nil
	}
	handler, ok := s.bridge.registry.Resolve(params.Name)
	if !ok {
		return errorResult(fmt.Sprintf("unknown tool: %q", params.Name)), nil
	}
	_ = s.clientLog.Debug(ctx, map[string]interface{}{"tool": params.Name})
	ctx = context.WithValue(ctx, connKey{}, s)
	result, err = handler(ctx, params.Arguments)
	if err != nil {
		s.bridge.logger.Warn().Str("tool", params.Name).Err(err).Msg("tool call failed")
		_ = s.clientLog.Warning(ctx, map[string]interface{}{"tool": params.Name, "error": describeError(err)})
		return errorResult(describeError(err)), nil
	}
	return result, nil
}

// Close tears the session down; executions only this connection watched get
// their watch loops cancelled via the session manager's idle callback.
func (s *connService) Close() error {
	s.bridge.sessions.Close(s.session)
	return nil
}

// notify pushes one execution event to the connection.
func (s *connService) notify(event *monitor.Event) {
	params := newExecutionEvent(event)
	data, err := json.Marshal(params)
	if err != nil {
		return
	}
	notification := &jsonrpc.Notification{
		Jsonrpc: jsonrpc.Version,
		Method:  string(event.Type),
		Params:  data,
	}
	if err := s.notifier.Notify(s.ctx, notification); err != nil {
		s.bridge.logger.Warn().Str("event", string(event.Type)).Err(err).Msg("failed to notify")
	}
	if event.Terminal() {
		s.bridge.sessions.Unsubscribe(s.session, event.Execution.ID.String())
	}
}

type connKey struct{}

func connFromContext(ctx context.Context) (*connService, bool) {
	ret, ok := ctx.Value(connKey{}).(*connService)
	return ret, ok
}

// executionEvent is the notification payload for execution updates.
type executionEvent struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
	Output      string `json:"output,omitempty"`
	Error       string `json:"error,omitempty"`
}

func newExecutionEvent(event *monitor.Event) *executionEvent {
	ret := &executionEvent{
		ExecutionID: event.Execution.ID.String(),
		Status:      string(event.Execution.Status),
		Output:      event.Execution.Output,
		Error:       event.Execution.Error,
	}
	if event.Err != nil {
		ret.Error = event.Err.Error()
	}
	return ret
}

// describeError turns a typed upstream failure into the envelope message.
func describeError(err error) string {
	switch {
	case tess.IsAuth(err):
		return fmt.Sprintf("authentication failed: %v", err)
	case tess.IsNotFound(err):
		return fmt.Sprintf("not found: %v", err)
	case tess.IsTransient(err):
		return fmt.Sprintf("upstream unreachable: %v", err)
	}
	return err.Error()
}
