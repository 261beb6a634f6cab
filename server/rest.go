package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

// restHandler exposes the tool surface over plain HTTP for clients that do
// not speak JSON-RPC. Tool failures are envelopes, not HTTP errors: only a
// malformed request produces a non-200 status.
type restHandler struct {
	service Service
	version string
}

func newRestHandler(service Service, version string) *restHandler {
	return &restHandler{service: service, version: version}
}

func (h *restHandler) listTools(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	result, err := h.service.ListTools(request.Context(), nil)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(writer, result)
}

func (h *restHandler) callTool(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	params := &schema.CallToolRequestParams{}
	if err := json.NewDecoder(request.Body).Decode(params); err != nil {
		http.Error(writer, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if params.Name == "" {
		http.Error(writer, "missing tool name", http.StatusBadRequest)
		return
	}
	result, err := h.service.CallTool(request.Context(), params)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(writer, result)
}

func (h *restHandler) health(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, map[string]string{"status": "ok", "version": h.version})
}

func writeJSON(writer http.ResponseWriter, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(payload)
}

// nopNotifier discards notifications; the REST binding has no stream to push to.
type nopNotifier struct{}

func (n *nopNotifier) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	return nil
}
