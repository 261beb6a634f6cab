package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"
)

type stubService struct {
	closed atomic.Bool
}

func (s *stubService) ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	return &schema.ListToolsResult{Tools: []schema.Tool{
		{Name: "echo", InputSchema: schema.ToolInputSchema{Type: "object"}},
	}}, nil
}

func (s *stubService) CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	if params.Name == "boom" {
		return nil, fmt.Errorf("tool exploded")
	}
	text := fmt.Sprintf("called %v", params.Name)
	return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{schema.TextContent{Type: "text", Text: text}}}, nil
}

func contentText(t *testing.T, elem schema.CallToolResultContentElem) string {
	t.Helper()
	if actual, ok := elem.(schema.TextContent); ok {
		return actual.Text
	}
	data, err := json.Marshal(elem)
	require.Nil(t, err)
	text := schema.TextContent{}
	require.Nil(t, json.Unmarshal(data, &text))
	return text.Text
}

func (s *stubService) Close() error {
	s.closed.Store(true)
	return nil
}

func newStubServer(t *testing.T, service Service) *Server {
	srv, err := New(
		WithNewService(func(ctx context.Context, notifier transport.Notifier, logger *Logger) (Service, error) {
			return service, nil
		}),
		WithImplementation(schema.Implementation{Name: "TestBridge", Version: "1.0"}),
	)
	require.Nil(t, err)
	return srv
}

func TestServerAsClient(t *testing.T) {
	srv := newStubServer(t, &stubService{})

	ctx := context.Background()
	client, err := srv.AsClient(ctx, nil)
	require.Nil(t, err)

	result, err := client.Initialize(ctx)
	require.Nil(t, err)
	assert.Equal(t, "TestBridge", result.ServerInfo.Name)
	assert.Equal(t, "1.0", result.ServerInfo.Version)
	assert.NotNil(t, result.Capabilities.Tools)

	tools, err := client.ListTools(ctx, nil)
	require.Nil(t, err)
	require.Equal(t, 1, len(tools.Tools))
	assert.Equal(t, "echo", tools.Tools[0].Name)

	called, err := client.CallTool(ctx, &schema.CallToolRequestParams{Name: "echo"})
	require.Nil(t, err)
	require.Equal(t, 1, len(called.Content))
	assert.Equal(t, "called echo", contentText(t, called.Content[0]))

	_, err = client.Ping(ctx, &schema.PingRequestParams{})
	assert.Nil(t, err)

	_, err = client.SetLevel(ctx, &schema.SetLevelRequestParams{Level: schema.LoggingLevelDebug})
	assert.Nil(t, err)
}

func TestServer_CallToolError(t *testing.T) {
	srv := newStubServer(t, &stubService{})
	ctx := context.Background()
	client, err := srv.AsClient(ctx, nil)
	require.Nil(t, err)

	_, err = client.CallTool(ctx, &schema.CallToolRequestParams{Name: "boom"})
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "tool exploded")
}

func TestServer_UnknownMethod(t *testing.T) {
	srv := newStubServer(t, &stubService{})
	handler := srv.newHandler(context.Background(), &inProcessTransport{})

	request := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: "resources/list", Id: 1}
	response := &jsonrpc.Response{}
	handler.Serve(context.Background(), request, response)
	require.NotNil(t, response.Error)
}

// blockingService parks CallTool until the request context is cancelled.
type blockingService struct {
	started chan struct{}
}

func (s *blockingService) ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	return &schema.ListToolsResult{}, nil
}

func (s *blockingService) CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	s.started <- struct{}{}
	<-ctx.Done()
	return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{schema.TextContent{Type: "text", Text: "cancelled"}}}, nil
}

func TestHandler_CancellationScopedPerConnection(t *testing.T) {
	service := &blockingService{started: make(chan struct{}, 1)}
	srv := newStubServer(t, service)
	first := srv.newHandler(context.Background(), &inProcessTransport{})
	second := srv.newHandler(context.Background(), &inProcessTransport{})

	request, err := jsonrpc.NewRequest(schema.MethodToolsCall, &schema.CallToolRequestParams{Name: "slow"})
	require.Nil(t, err)
	request.Id = 1

	done := make(chan struct{})
	go func() {
		defer close(done)
		first.Serve(context.Background(), request, &jsonrpc.Response{})
	}()
	<-service.started

	cancelParams := []byte(`{"requestId":1}`)
	// same request id on another connection must not touch this call
	second.OnNotification(context.Background(), &jsonrpc.Notification{
		Method: schema.MethodNotificationCancel, Params: cancelParams,
	})
	select {
	case <-done:
		t.Fatal("cancellation leaked across connections")
	case <-time.After(20 * time.Millisecond):
	}

	first.OnNotification(context.Background(), &jsonrpc.Notification{
		Method: schema.MethodNotificationCancel, Params: cancelParams,
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancellation on the owning connection did not stop the call")
	}
}

func TestServer_CloseOnConnectionEnd(t *testing.T) {
	service := &stubService{}
	srv := newStubServer(t, service)
	ctx, cancel := context.WithCancel(context.Background())
	_, err := srv.AsClient(ctx, nil)
	require.Nil(t, err)

	cancel()
	assert.Eventually(t, func() bool { return service.closed.Load() }, 100*time.Millisecond, time.Millisecond)
}
