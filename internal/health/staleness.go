package health

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNeverUpdated is reported by a staleness checker before the first
// update.
var ErrNeverUpdated = errors.New("health: never updated")

// Staleness returns a [Checker] that fails when last reports a time older
// than maxAge, or the zero time. now defaults to [time.Now] when nil.
func Staleness(name string, maxAge time.Duration, last func() time.Time, now func() time.Time) Checker {
	if now == nil {
		now = time.Now
	}
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			t := last()
			if t.IsZero() {
				return ErrNeverUpdated
			}
			if age := now().Sub(t); age > maxAge {
				return fmt.Errorf("last update %s ago exceeds %s", age.Round(time.Second), maxAge)
			}
			return nil
		},
	}
}

// Pinger is implemented by dependencies that can probe their own
// connectivity, such as the SQL snapshot stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping returns a [Checker] that calls p.Ping.
func Ping(name string, p Pinger) Checker {
	return Checker{Name: name, Check: p.Ping}
}
