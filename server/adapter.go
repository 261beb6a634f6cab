package server

import (
	"context"
	"encoding/json"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

// Adapter drives a connection Handler in process, without a transport; used
// by tests and by embedders that host the bridge inside their own binary.
type Adapter struct {
	handler *Handler
}

// Initialize initializes the session
func (a *Adapter) Initialize(ctx context.Context) (*schema.InitializeResult, error) {
	params := &schema.InitializeRequestParams{}
	req, err := jsonrpc.NewRequest(schema.MethodInitialize, params)
	if err != nil {
		return nil, err
	}
	response := &jsonrpc.Response{}
	a.handler.Serve(ctx, req, response)
	if response.Error != nil {
		return nil, response.Error
	}
	var result schema.InitializeResult
	if err = json.Unmarshal(response.Result, &result); err != nil {
		return nil, err
	}
	a.handler.OnNotification(ctx, &jsonrpc.Notification{Method: schema.MethodNotificationInitialized})
	return &result, nil
}

// ListTools lists tools
func (a *Adapter) ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	params := &schema.ListToolsRequestParams{Cursor: cursor}
	req, err := jsonrpc.NewRequest(schema.MethodToolsList, params)
	if err != nil {
		return nil, err
	}
	response := &jsonrpc.Response{}
	a.handler.Serve(ctx, req, response)
	if response.Error != nil {
		return nil, response.Error
	}
	var result schema.ListToolsResult
	if err = json.Unmarshal(response.Result, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CallTool calls a tool
func (a *Adapter) CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	req, err := jsonrpc.NewRequest(schema.MethodToolsCall, params)
	if err != nil {
		return nil, err
	}
	response := &jsonrpc.Response{}
	a.handler.Serve(ctx, req, response)
	if response.Error != nil {
		return nil, response.Error
	}
	var result schema.CallToolResult
	if err = json.Unmarshal(response.Result, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping pings the server
func (a *Adapter) Ping(ctx context.Context, params *schema.PingRequestParams) (*schema.PingResult, error) {
	req, err := jsonrpc.NewRequest(schema.MethodPing, params)
	if err != nil {
		return nil, err
	}
	response := &jsonrpc.Response{}
	a.handler.Serve(ctx, req, response)
	if response.Error != nil {
		return nil, response.Error
	}
	var result schema.PingResult
	if err = json.Unmarshal(response.Result, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetLevel sets the notification logging level
func (a *Adapter) SetLevel(ctx context.Context, params *schema.SetLevelRequestParams) (*schema.SetLevelResult, error) {
	req, err := jsonrpc.NewRequest(schema.MethodLoggingSetLevel, params)
	if err != nil {
		return nil, err
	}
	response := &jsonrpc.Response{}
	a.handler.Serve(ctx, req, response)
	if response.Error != nil {
		return nil, response.Error
	}
	var result schema.SetLevelResult
	if err = json.Unmarshal(response.Result, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// inProcessTransport satisfies transport.Transport without a wire; outbound
// notifications go to the optional callback.
type inProcessTransport struct {
	onNotification func(notification *jsonrpc.Notification)
}

func (t *inProcessTransport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	if t.onNotification != nil {
		t.onNotification(notification)
	}
	return nil
}

func (t *inProcessTransport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	return &jsonrpc.Response{Jsonrpc: jsonrpc.Version}, nil
}

// AsClient returns an in-process client view of the server; onNotification, if
// non-nil, receives the notifications the server pushes to this connection.
func (s *Server) AsClient(ctx context.Context, onNotification func(notification *jsonrpc.Notification)) (*Adapter, error) {
	handler := s.newHandler(ctx, &inProcessTransport{onNotification: onNotification})
	if handler.err != nil {
		return nil, handler.err
	}
	return &Adapter{handler: handler}, nil
}
