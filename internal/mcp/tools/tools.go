// Package tools defines the shared [Tool] type used by the world-state MCP
// tool packages. Each sub-package exports a constructor function that
// returns a slice of [Tool] values ready for registration with the MCP
// server.
package tools

import "context"

// Definition is a tool's client-facing schema.
type Definition struct {
	// Name is the unique tool name, e.g. "list_fissures".
	Name string

	// Description tells the client what the tool does and when to call it.
	Description string

	// Parameters is the JSON Schema of the tool's arguments. It must
	// describe an object.
	Parameters map[string]any
}

// Tool represents a built-in tool ready for registration with the MCP
// server.
type Tool struct {
	Definition Definition

	// Handler executes the tool with JSON-encoded args and returns a
	// JSON-encoded result string on success, or a descriptive error.
	// Implementations must be safe for concurrent use and must respect
	// context cancellation.
	Handler func(ctx context.Context, args string) (string, error)
}

// Object builds an object schema from its properties. required lists the
// mandatory property names.
func Object(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// Prop builds a property schema of the given JSON type.
func Prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}
