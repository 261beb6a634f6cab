// Package registry holds the fixed tool table the dispatcher resolves against.
// Registration happens once at boot; afterwards the registry is a read-only
// lookup keyed by tool name, listed in registration order.
package registry

import (
	"context"
	"fmt"

	"github.com/viant/mcp-protocol/schema"
)

// Handler executes a tool call with the untyped argument bag; argument
// coercion against the tool's input schema is the handler's responsibility.
type Handler func(ctx context.Context, arguments map[string]interface{}) (*schema.CallToolResult, error)

type entry struct {
	tool    schema.Tool
	handler Handler
}

// Registry is a boot-time populated name to handler table.
type Registry struct {
	entries []entry
	index   map[string]int
	sealed  bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{index: map[string]int{}}
}

// Register adds a tool; a duplicate name or a registration after Seal is a
// configuration error the caller should treat as fatal.
func (r *Registry) Register(tool schema.Tool, handler Handler) error {
	if r.sealed {
		return fmt.Errorf("registry: cannot register %q after seal", tool.Name)
	}
	if tool.Name == "" {
		return fmt.Errorf("registry: tool name was empty")
	}
	if handler == nil {
		return fmt.Errorf("registry: handler for %q was nil", tool.Name)
	}
	if _, ok := r.index[tool.Name]; ok {
		return fmt.Errorf("registry: duplicate tool %q", tool.Name)
	}
	r.index[tool.Name] = len(r.entries)
	r.entries = append(r.entries, entry{tool: tool, handler: handler})
	return nil
}

// Seal marks the registry immutable.
func (r *Registry) Seal() {
	r.sealed = true
}

// List returns the descriptors in registration order.
func (r *Registry) List() []schema.Tool {
	ret := make([]schema.Tool, 0, len(r.entries))
	for i := range r.entries {
		ret = append(ret, r.entries[i].tool)
	}
	return ret
}

// Resolve returns the handler registered under name.
func (r *Registry) Resolve(name string) (Handler, bool) {
	position, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.entries[position].handler, true
}

// Size returns the number of registered tools.
func (r *Registry) Size() int {
	return len(r.entries)
}
