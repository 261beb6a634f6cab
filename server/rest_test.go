package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcp-protocol/schema"
)

func TestRest_ListTools(t *testing.T) {
	handler := newRestHandler(&stubService{}, "test")
	recorder := httptest.NewRecorder()
	handler.listTools(recorder, httptest.NewRequest(http.MethodPost, "/tools/list", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	result := &schema.ListToolsResult{}
	require.Nil(t, json.Unmarshal(recorder.Body.Bytes(), result))
	require.Equal(t, 1, len(result.Tools))
	assert.Equal(t, "echo", result.Tools[0].Name)
}

func TestRest_CallTool(t *testing.T) {
	handler := newRestHandler(&stubService{}, "test")

	recorder := httptest.NewRecorder()
	body := strings.NewReader(`{"name":"echo","arguments":{}}`)
	handler.callTool(recorder, httptest.NewRequest(http.MethodPost, "/tools/call", body))
	require.Equal(t, http.StatusOK, recorder.Code)
	result := &schema.CallToolResult{}
	require.Nil(t, json.Unmarshal(recorder.Body.Bytes(), result))
	require.Equal(t, 1, len(result.Content))
	assert.Equal(t, "called echo", contentText(t, result.Content[0]))
}

func TestRest_CallTool_BadRequest(t *testing.T) {
	handler := newRestHandler(&stubService{}, "test")

	recorder := httptest.NewRecorder()
	handler.callTool(recorder, httptest.NewRequest(http.MethodPost, "/tools/call", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = httptest.NewRecorder()
	handler.callTool(recorder, httptest.NewRequest(http.MethodPost, "/tools/call", strings.NewReader(`{"arguments":{}}`)))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = httptest.NewRecorder()
	handler.callTool(recorder, httptest.NewRequest(http.MethodGet, "/tools/call", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestRest_Health(t *testing.T) {
	handler := newRestHandler(&stubService{}, "test")
	recorder := httptest.NewRecorder()
	handler.health(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"ok"`)
}
