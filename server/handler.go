package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"

	"github.com/tessai/mcp-bridge/internal/collection"
	"github.com/tessai/mcp-bridge/internal/conv"
)

// Handler serves the JSON-RPC requests of one connection. The active context
// table is per connection: request ids are only unique within one transport
// stream, so cancellation from one connection can never touch another's.
type Handler struct {
	transport.Notifier
	*Logger
	*Server
	activeContexts   *collection.SyncMap[int, *activeContext]
	clientInitialize *schema.InitializeRequestParams
	loggingLevel     schema.LoggingLevel
	service          Service
	Initialized      bool
	err              error
}

func (h *Handler) cancelOperation(id int) {
	if active, ok := h.activeContexts.Get(id); ok {
		active.CancelFunc()
		h.activeContexts.Delete(id)
	}
}

// Serve handles incoming JSON-RPC requests
func (h *Handler) Serve(parent context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	if jsonrpc.Version != request.Jsonrpc {
		response.Error = jsonrpc.NewInvalidRequest("invalid JSON-RPC version", nil)
		return
	}
	if h.err != nil {
		response.Error = jsonrpc.NewInternalError(h.err.Error(), nil)
		return
	}

	id := conv.AsInt(request.Id)
	ctx, cancel := context.WithCancel(parent)
	activeContext, ctx := newActiveContext(ctx, cancel, request)
	h.activeContexts.Put(id, activeContext)
	defer h.cancelOperation(id)

	switch request.Method {
	case schema.MethodInitialize:
		result, err := h.Initialize(ctx, request)
		h.setResponse(response, result, err)
	case schema.MethodPing:
		result, err := h.Ping(ctx, request)
		h.setResponse(response, result, err)
	case schema.MethodToolsList:
		result, err := h.ListTools(ctx, request)
		h.setResponse(response, result, err)
	case schema.MethodToolsCall:
		result, err := h.CallTool(ctx, request)
		h.setResponse(response, result, err)
	case schema.MethodLoggingSetLevel:
		result, err := h.SetLevel(ctx, request)
		h.setResponse(response, result, err)
	default:
		response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method: %v not found", request.Method), request.Params)
	}
}

func (h *Handler) setResponse(response *jsonrpc.Response, result interface{}, rpcError *jsonrpc.Error) {
	if rpcError != nil {
		response.Error = rpcError
		return
	}
	var err error
	response.Result, err = json.Marshal(result)
	if err != nil {
		response.Error = jsonrpc.NewInternalError(err.Error(), []byte{})
	}
}

// OnNotification handles incoming JSON-RPC notifications
func (h *Handler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	switch notification.Method {
	case schema.MethodNotificationCancel:
		h.Cancel(ctx, notification)
	case schema.MethodNotificationInitialized:
		h.Initialized = true
	}
}
