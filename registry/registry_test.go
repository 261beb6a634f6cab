package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcp-protocol/schema"
)

func testHandler(text string) Handler {
	return func(ctx context.Context, arguments map[string]interface{}) (*schema.CallToolResult, error) {
		return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{schema.TextContent{Type: "text", Text: text}}}, nil
	}
}

func toolNamed(name string) schema.Tool {
	return schema.Tool{Name: name, InputSchema: schema.ToolInputSchema{Type: "object"}}
}

func TestRegistry_OrderAndResolve(t *testing.T) {
	r := New()
	require.Nil(t, r.Register(toolNamed("tess.list_agents"), testHandler("a")))
	require.Nil(t, r.Register(toolNamed("tess.get_agent"), testHandler("b")))
	require.Nil(t, r.Register(toolNamed("tess.execute_agent"), testHandler("c")))

	first := r.List()
	second := r.List()
	require.Equal(t, 3, len(first))
	assert.Equal(t, first, second)
	assert.Equal(t, "tess.list_agents", first[0].Name)
	assert.Equal(t, "tess.get_agent", first[1].Name)
	assert.Equal(t, "tess.execute_agent", first[2].Name)

	handler, ok := r.Resolve("tess.get_agent")
	require.True(t, ok)
	result, err := handler(context.Background(), nil)
	require.Nil(t, err)
	assert.Equal(t, "b", result.Content[0].(schema.TextContent).Text)

	_, ok = r.Resolve("tess.unknown")
	assert.False(t, ok)
}

func TestRegistry_Duplicate(t *testing.T) {
	r := New()
	require.Nil(t, r.Register(toolNamed("tess.get_agent"), testHandler("a")))
	err := r.Register(toolNamed("tess.get_agent"), testHandler("b"))
	assert.NotNil(t, err)
}

func TestRegistry_Sealed(t *testing.T) {
	r := New()
	require.Nil(t, r.Register(toolNamed("tess.get_agent"), testHandler("a")))
	r.Seal()
	err := r.Register(toolNamed("tess.list_agents"), testHandler("b"))
	assert.NotNil(t, err)
	assert.Equal(t, 1, r.Size())
}
