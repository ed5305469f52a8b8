package contract

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/MrWong99/worldstate/pkg/worldstate"
)

func resolvedFixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("../../pkg/worldstate/testdata/worldstate.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	ws, err := worldstate.Parse(raw, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc, err := json.Marshal(ws)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return doc
}

func TestValidate_Fixture(t *testing.T) {
	t.Parallel()

	if err := Validate(resolvedFixture(t)); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	t.Parallel()

	mutate := func(t *testing.T, f func(m map[string]any)) []byte {
		t.Helper()
		var m map[string]any
		if err := json.Unmarshal(resolvedFixture(t), &m); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		f(m)
		out, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		return out
	}

	tests := []struct {
		name string
		edit func(m map[string]any)
	}{
		{"missing section", func(m map[string]any) { delete(m, "fissures") }},
		{"unknown section", func(m map[string]any) { m["kuvaMissions"] = []any{} }},
		{"bad tier", func(m map[string]any) {
			m["fissures"].([]any)[0].(map[string]any)["tier"] = "VoidT4"
		}},
		{"bad timestamp", func(m map[string]any) {
			m["fissures"].([]any)[0].(map[string]any)["expiry"] = "1712345678000"
		}},
		{"circuit shape", func(m map[string]any) { m["circuit"] = []any{} }},
		{"nested calendar event", func(m map[string]any) {
			day := m["calendar"].(map[string]any)["days"].([]any)[0].(map[string]any)
			day["event"] = map[string]any{"challenge": day["challenge"]}
			delete(day, "challenge")
		}},
		{"calendar day with two events", func(m map[string]any) {
			day := m["calendar"].(map[string]any)["days"].([]any)[0].(map[string]any)
			day["rewards"] = []any{"Crimson Archon Shard", "Primary Arcane Adapter"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(mutate(t, tt.edit))
			var verr *jsonschema.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate error = %v, want *jsonschema.ValidationError", err)
			}
		})
	}
}

func TestValidate_NotJSON(t *testing.T) {
	t.Parallel()

	err := Validate([]byte("{"))
	if err == nil {
		t.Fatal("Validate accepted malformed JSON")
	}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		t.Fatalf("malformed JSON reported as schema violation: %v", err)
	}
}
