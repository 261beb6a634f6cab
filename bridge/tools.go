package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/viant/mcp-protocol/schema"

	"github.com/tessai/mcp-bridge/internal/conv"
	"github.com/tessai/mcp-bridge/monitor"
	"github.com/tessai/mcp-bridge/tess"
)

func (b *Bridge) registerTools() error {
	type toolEntry struct {
		tool    schema.Tool
		handler func(ctx context.Context, args map[string]interface{}) (*schema.CallToolResult, error)
	}
	entries := []toolEntry{
		{
			tool: newTool("tess.list_agents", "List available Tess agents, optionally filtered by query or type.",
				nil,
				properties{
					"page":     property("integer", "page number"),
					"per_page": property("integer", "page size"),
					"q":        property("string", "free text filter"),
					"type":     property("string", "agent type filter"),
				}),
			handler: b.listAgents,
		},
		{
			tool: newTool("tess.get_agent", "Get the detail of a single Tess agent.",
				[]string{"agent_id"},
				properties{
					"agent_id": property("string", "agent identifier"),
				}),
			handler: b.getAgent,
		},
		{
			tool: newTool("tess.execute_agent", "Execute a Tess agent with chat messages and wait for, or subscribe to, the result.",
				[]string{"agent_id"},
				properties{
					"agent_id":       property("string", "agent identifier"),
					"message":        property("string", "single user message, shorthand for messages"),
					"messages":       property("array", "chat messages, each {role, content}"),
					"model":          property("string", "model override"),
					"temperature":    property("string", "sampling temperature"),
					"tools":          property("string", "upstream tool selection"),
					"file_ids":       property("array", "identifiers of previously uploaded files"),
					"wait_execution": property("boolean", "block until the execution is terminal (default true)"),
					"async":          property("boolean", "return immediately and push execution events"),
				}),
			handler: b.executeAgent,
		},
		{
			tool: newTool("tess.get_execution", "Get the current status and output of an execution.",
				[]string{"execution_id"},
				properties{
					"execution_id": property("string", "execution identifier"),
				}),
			handler: b.getExecution,
		},
		{
			tool: newTool("tess.upload_file", "Upload a local file for use in agent executions.",
				[]string{"path"},
				properties{
					"path":    property("string", "file location"),
					"process": property("boolean", "ask the upstream to process the file"),
				}),
			handler: b.uploadFile,
		},
		{
			tool: newTool("tess.list_files", "List uploaded files.",
				nil,
				properties{
					"page":     property("integer", "page number"),
					"per_page": property("integer", "page size"),
				}),
			handler: b.listFiles,
		},
		{
			tool: newTool("tess.delete_file", "Delete an uploaded file.",
				[]string{"file_id"},
				properties{
					"file_id": property("string", "file identifier"),
				}),
			handler: b.deleteFile,
		},
	}
	for _, entry := range entries {
		if err := b.registry.Register(entry.tool, entry.handler); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) listAgents(ctx context.Context, args map[string]interface{}) (*schema.CallToolResult, error) {
	input := &tess.ListAgentsInput{
		Page:    argInt(args, "page"),
		PerPage: argInt(args, "per_page"),
		Query:   argString(args, "q"),
		Type:    argString(args, "type"),
	}
	page, err := b.client.ListAgents(ctx, input)
	if err != nil {
		return nil, err
	}
	return jsonResult(page)
}

func (b *Bridge) getAgent(ctx context.Context, args map[string]interface{}) (*schema.CallToolResult, error) {
	id, err := requiredString(args, "agent_id")
	if err != nil {
		return nil, err
	}
	agent, err := b.client.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResult(agent)
}

func (b *Bridge) executeAgent(ctx context.Context, args map[string]interface{}) (*schema.CallToolResult, error) {
	agentID, err := requiredString(args, "agent_id")
	if err != nil {
		return nil, err
	}
	input := &tess.ExecuteInput{
		Temperature: argString(args, "temperature"),
		Model:       argString(args, "model"),
		Tools:       argString(args, "tools"),
		Messages:    argMessages(args),
		FileIDs:     argInt64s(args, "file_ids"),
	}
	if len(input.Messages) == 0 {
		return nil, fmt.Errorf("missing required argument: message or messages")
	}
	execution, err := b.client.ExecuteAgent(ctx, agentID, input)
	if err != nil {
		return nil, err
	}
	if execution.Status.IsTerminal() {
		return executionResult(execution), nil
	}
	async := argBool(args, "async")
	if wait, ok := args["wait_execution"].(bool); ok && !wait {
		async = true
	}
	if async {
		if conn, ok := connFromContext(ctx); ok {
			b.sessions.Subscribe(conn.session, execution.ID.String())
			go b.monitor.Watch(conn.ctx, execution, conn.notify)
			return executionResult(execution), nil
		}
	}
	final, err := b.monitor.Await(ctx, execution)
	if err != nil {
		if errors.Is(err, monitor.ErrTimeout) {
			return executionResult(final), nil
		}
		return nil, err
	}
	return executionResult(final), nil
}

func (b *Bridge) getExecution(ctx context.Context, args map[string]interface{}) (*schema.CallToolResult, error) {
	id, err := requiredString(args, "execution_id")
	if err != nil {
		return nil, err
	}
	execution, err := b.client.GetExecution(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResult(executionPayload(execution))
}

func (b *Bridge) uploadFile(ctx context.Context, args map[string]interface{}) (*schema.CallToolResult, error) {
	location, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	file, err := b.client.UploadFile(ctx, location, argBool(args, "process"))
	if err != nil {
		return nil, err
	}
	return jsonResult(file)
}

func (b *Bridge) listFiles(ctx context.Context, args map[string]interface{}) (*schema.CallToolResult, error) {
	page, err := b.client.ListFiles(ctx, argInt(args, "page"), argInt(args, "per_page"))
	if err != nil {
		return nil, err
	}
	return jsonResult(page)
}

func (b *Bridge) deleteFile(ctx context.Context, args map[string]interface{}) (*schema.CallToolResult, error) {
	id, err := requiredString(args, "file_id")
	if err != nil {
		return nil, err
	}
	if err := b.client.DeleteFile(ctx, id); err != nil {
		return nil, err
	}
	return jsonResult(map[string]interface{}{"deleted": true, "file_id": id})
}

type properties map[string]map[string]interface{}

func property(kind, description string) map[string]interface{} {
	return map[string]interface{}{"type": kind, "description": description}
}

func newTool(name, description string, required []string, props properties) schema.Tool {
	inputProperties := schema.ToolInputSchemaProperties{}
	for key, value := range props {
		inputProperties[key] = value
	}
	return schema.Tool{
		Name:        name,
		Description: &description,
		InputSchema: schema.ToolInputSchema{
			Type:       "object",
			Properties: inputProperties,
			Required:   required,
		},
	}
}

// executionPayload is the envelope body for execution related tools.
func executionPayload(execution *tess.Execution) map[string]interface{} {
	ret := map[string]interface{}{
		"execution_id": execution.ID.String(),
		"status":       string(execution.Status),
	}
	if execution.Output != "" {
		ret["output"] = execution.Output
	}
	if execution.Error != "" {
		ret["error"] = execution.Error
	}
	return ret
}

// executionResult wraps a terminal or pending execution; any terminal status
// other than completed flags the envelope as an error.
func executionResult(execution *tess.Execution) *schema.CallToolResult {
	data, _ := json.Marshal(executionPayload(execution))
	ret := &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{schema.TextContent{Type: "text", Text: string(data)}},
	}
	if execution.Status.IsTerminal() && execution.Status != tess.StatusCompleted {
		isError := true
		ret.IsError = &isError
	}
	return ret
}

func jsonResult(payload interface{}) (*schema.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}

func textResult(text string) *schema.CallToolResult {
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{schema.TextContent{Type: "text", Text: text}},
	}
}

func errorResult(message string) *schema.CallToolResult {
	isError := true
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{schema.TextContent{Type: "text", Text: message}},
		IsError: &isError,
	}
}

func argString(args map[string]interface{}, name string) string {
	if value, ok := args[name]; ok {
		switch actual := value.(type) {
		case string:
			return actual
		case float64:
			// keep 0.7 as "0.7", render 3.0 as "3"
			return strconv.FormatFloat(actual, 'f', -1, 64)
		default:
			return fmt.Sprintf("%v", actual)
		}
	}
	return ""
}

func requiredString(args map[string]interface{}, name string) (string, error) {
	value := argString(args, name)
	if value == "" {
		return "", fmt.Errorf("missing required argument: %v", name)
	}
	return value, nil
}

func argInt(args map[string]interface{}, name string) int {
	if value, ok := args[name]; ok {
		return conv.AsInt(value)
	}
	return 0
}

func argBool(args map[string]interface{}, name string) bool {
	switch actual := args[name].(type) {
	case bool:
		return actual
	case string:
		return actual == "true" || actual == "1"
	}
	return false
}

func argInt64s(args map[string]interface{}, name string) []int64 {
	values, ok := args[name].([]interface{})
	if !ok {
		return nil
	}
	var ret []int64
	for _, value := range values {
		ret = append(ret, int64(conv.AsInt(value)))
	}
	return ret
}

// argMessages accepts either a plain message string or a structured messages
// array; a bare string becomes a single user message.
func argMessages(args map[string]interface{}) []tess.Message {
	if text := argString(args, "message"); text != "" {
		return []tess.Message{{Role: "user", Content: text}}
	}
	values, ok := args["messages"].([]interface{})
	if !ok {
		return nil
	}
	var ret []tess.Message
	for _, value := range values {
		entry, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		message := tess.Message{
			Role:    argString(entry, "role"),
			Content: argString(entry, "content"),
		}
		if message.Role == "" {
			message.Role = "user"
		}
		if message.Content != "" {
			ret = append(ret, message)
		}
	}
	return ret
}
