// Package tools holds the named, schema-described callables that agents and
// the LLM can both invoke for side computations.
package tools

import (
	"context"
	"fmt"
)

// Tool is a callable with a JSON-schema parameter description. Execute takes
// loosely typed args (they arrive from model tool calls) and returns a result
// mapping.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Declaration is a read-only snapshot of a tool's identity and schema,
// suitable for handing to an LLM as a function declaration.
type Declaration struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Registry keys tools by name. Registration happens once at startup; the
// registry is read-only afterwards.
type Registry struct {
	order  []string
	byName map[string]Tool
}

func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("duplicate tool name %q", name)
	}
	r.byName[name] = t
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Declarations returns tool declarations in registration order.
func (r *Registry) Declarations() []Declaration {
	decls := make([]Declaration, 0, len(r.order))
	for _, name := range r.order {
		t := r.byName[name]
		decls = append(decls, Declaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return decls
}

func floatArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
