package api

import (
	"errors"
	"testing"
	"time"
)

func TestFilter(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []map[string]any{
		{"id": "a", "tier": "Lith", "isSteelPath": false, "expiry": "2026-03-01T13:00:00Z"},
		{"id": "b", "tier": "Axi", "isSteelPath": true, "expiry": "2026-03-01T11:00:00Z"},
		{"id": "c", "tier": "Axi", "isSteelPath": false, "expiry": "2026-03-02T00:00:00Z"},
	}

	tests := []struct {
		expr string
		want []string
	}{
		{`tier == "Axi"`, []string{"b", "c"}},
		{`isSteelPath`, []string{"b"}},
		{`expiry > now`, []string{"a", "c"}},
		{`tier in ["Lith", "Meso"] || isSteelPath`, []string{"a", "b"}},
		{`missingField == nil`, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			f, err := CompileFilter(tt.expr)
			if err != nil {
				t.Fatalf("CompileFilter: %v", err)
			}
			got, err := f.Apply(items, now)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			var ids []string
			for _, it := range got {
				ids = append(ids, it.(map[string]any)["id"].(string))
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ids = %v, want %v", ids, tt.want)
				}
			}
		})
	}
}

func TestFilter_Errors(t *testing.T) {
	t.Parallel()
	if _, err := CompileFilter(""); err == nil {
		t.Error("empty filter compiled")
	}
	if _, err := CompileFilter(`1 + 1`); err == nil {
		t.Error("non-boolean filter compiled")
	}
	f, err := CompileFilter(`true`)
	if err != nil {
		t.Fatal(err)
	}
	notLists := []struct {
		name    string
		section any
	}{
		{"object", map[string]any{"a": 1}},
		{"absent optional section", (*struct{ ID string })(nil)},
		{"nil", nil},
	}
	for _, tt := range notLists {
		if _, err := f.Apply(tt.section, time.Now()); !errors.Is(err, errNotFilterable) {
			t.Errorf("%s: err = %v, want errNotFilterable", tt.name, err)
		}
	}

	// An empty list is still a list.
	got, err := f.Apply([]any{}, time.Now())
	if err != nil || len(got) != 0 {
		t.Errorf("Apply(empty list) = %v, %v; want empty, nil", got, err)
	}
}

func TestFilter_NowIsVariable(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f, err := CompileFilter(`activation <= now && now < expiry`)
	if err != nil {
		t.Fatalf("CompileFilter: %v", err)
	}
	items := []map[string]any{
		{"activation": "2026-03-01T11:00:00Z", "expiry": "2026-03-01T13:00:00Z"},
		{"activation": "2026-03-01T12:30:00Z", "expiry": "2026-03-01T13:00:00Z"},
	}
	got, err := f.Apply(items, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("active items = %d, want 1", len(got))
	}
}
