package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// errNotFilterable is returned when a filter is applied to a section that is
// not a list.
var errNotFilterable = errors.New("section is not a list")

// Filter is a compiled boolean expression evaluated against each item of a
// section. Items are exposed by their JSON field names, so a fissure filter
// reads like `isSteelPath && tier == "Omnia"`. The variable now holds the
// current time as an RFC 3339 string and compares against date fields.
type Filter struct {
	program    *exprvm.Program
	expression string
}

// CompileFilter compiles expression. Unknown identifiers evaluate to nil.
func CompileFilter(expression string) (*Filter, error) {
	if expression == "" {
		return nil, errors.New("filter must not be empty")
	}
	program, err := exprlang.Compile(expression,
		// now is a variable here, not the builtin function.
		exprlang.Env(map[string]any{"now": ""}),
		exprlang.DisableBuiltin("now"),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	return &Filter{program: program, expression: expression}, nil
}

// Apply returns the items of section for which the filter is true. section
// is converted to its JSON form first and must be a list.
func (f *Filter) Apply(section any, now time.Time) ([]any, error) {
	data, err := json.Marshal(section)
	if err != nil {
		return nil, err
	}
	var items []any
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		// An absent optional section encodes as null.
		return nil, errNotFilterable
	}

	stamp := now.UTC().Format(time.RFC3339)
	out := make([]any, 0, len(items))
	for i, item := range items {
		env := map[string]any{"now": stamp}
		if fields, ok := item.(map[string]any); ok {
			for k, v := range fields {
				env[k] = v
			}
		} else {
			env["it"] = item
		}
		keep, err := exprlang.Run(f.program, env)
		if err != nil {
			return nil, fmt.Errorf("filter %q on item %d: %w", f.expression, i, err)
		}
		if keep.(bool) {
			out = append(out, item)
		}
	}
	return out, nil
}
