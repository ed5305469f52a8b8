package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// source stands in for a world-state URL.
type source struct {
	name string
	err  error
}

func fetchFrom(calls *[]string) func(context.Context, source) (string, error) {
	return func(_ context.Context, s source) (string, error) {
		*calls = append(*calls, s.name)
		if s.err != nil {
			return "", s.err
		}
		return "doc from " + s.name, nil
	}
}

func newGroup(sources ...source) *FallbackGroup[source] {
	fg := NewFallbackGroup(sources[0], sources[0].name, FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour},
	})
	for _, s := range sources[1:] {
		fg.AddFallback(s.name, s)
	}
	return fg
}

func TestExecuteWithResult(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		sources   []source
		want      string
		wantCalls []string
		wantErr   bool
	}{
		{
			name:      "primary succeeds",
			sources:   []source{{name: "primary"}, {name: "mirror"}},
			want:      "doc from primary",
			wantCalls: []string{"primary"},
		},
		{
			name:      "failover to mirror",
			sources:   []source{{name: "primary", err: errTest}, {name: "mirror"}},
			want:      "doc from mirror",
			wantCalls: []string{"primary", "mirror"},
		},
		{
			name:      "all fail",
			sources:   []source{{name: "primary", err: errTest}, {name: "mirror", err: errTest}},
			wantCalls: []string{"primary", "mirror"},
			wantErr:   true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var calls []string
			got, err := ExecuteWithResult(context.Background(), newGroup(tc.sources...), fetchFrom(&calls))
			if tc.wantErr {
				if !errors.Is(err, ErrAllFailed) || !errors.Is(err, errTest) {
					t.Fatalf("err = %v, want ErrAllFailed wrapping errTest", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("result = %q, want %q", got, tc.want)
			}
			if diff := cmp.Diff(tc.wantCalls, calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFallbackGroup_SkipsOpenBreaker(t *testing.T) {
	t.Parallel()
	fg := newGroup(source{name: "primary", err: errTest}, source{name: "mirror"})

	var calls []string
	fn := fetchFrom(&calls)
	// First call trips the primary (MaxFailures 1).
	if _, err := ExecuteWithResult(context.Background(), fg, fn); err != nil {
		t.Fatalf("first call: %v", err)
	}
	calls = nil
	if _, err := ExecuteWithResult(context.Background(), fg, fn); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if diff := cmp.Diff([]string{"mirror"}, calls); diff != "" {
		t.Errorf("open primary was not skipped (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]State{"primary": StateOpen, "mirror": StateClosed}, fg.States()); diff != "" {
		t.Errorf("States mismatch (-want +got):\n%s", diff)
	}
}

func TestFallbackGroup_Execute(t *testing.T) {
	t.Parallel()
	fg := newGroup(source{name: "primary", err: errTest}, source{name: "mirror"})
	var used string
	err := fg.Execute(context.Background(), func(_ context.Context, s source) error {
		if s.err != nil {
			return s.err
		}
		used = s.name
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if used != "mirror" {
		t.Errorf("used = %q, want mirror", used)
	}
}

func TestFallbackGroup_CancelledContext(t *testing.T) {
	t.Parallel()
	fg := newGroup(source{name: "primary"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls []string
	_, err := ExecuteWithResult(ctx, fg, fetchFrom(&calls))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(calls) != 0 {
		t.Errorf("fn called %d times with a cancelled context", len(calls))
	}
}

func TestFallbackGroup_NamesAndTruncate(t *testing.T) {
	t.Parallel()
	fg := newGroup(source{name: "primary"}, source{name: "a"}, source{name: "b"})
	if diff := cmp.Diff([]string{"primary", "a", "b"}, fg.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	fg.Truncate(0)
	fg.AddFallback("c", source{name: "c"})
	if diff := cmp.Diff([]string{"primary", "c"}, fg.Names()); diff != "" {
		t.Errorf("after Truncate mismatch (-want +got):\n%s", diff)
	}
}
