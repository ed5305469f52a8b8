package health

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStaleness(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name    string
		last    time.Time
		wantErr string
	}{
		{name: "fresh", last: now.Add(-30 * time.Second)},
		{name: "exactly max age", last: now.Add(-2 * time.Minute)},
		{name: "stale", last: now.Add(-5 * time.Minute), wantErr: "exceeds 2m0s"},
		{name: "never", wantErr: ErrNeverUpdated.Error()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := Staleness("snapshot", 2*time.Minute, func() time.Time { return tc.last }, clock)
			if c.Name != "snapshot" {
				t.Errorf("Name = %q", c.Name)
			}
			err := c.Check(context.Background())
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestPing(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	if err := Ping("store", fakePinger{}).Check(context.Background()); err != nil {
		t.Errorf("healthy pinger: %v", err)
	}
	if err := Ping("store", fakePinger{err: boom}).Check(context.Background()); !errors.Is(err, boom) {
		t.Errorf("failing pinger: got %v, want %v", err, boom)
	}
}
