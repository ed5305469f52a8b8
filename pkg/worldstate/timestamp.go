package worldstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Bounds of a representable instant. Anything outside four-digit years
// cannot be written back as RFC 3339.
var (
	minInstant = time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	maxInstant = time.Date(9999, time.December, 31, 23, 59, 59, 999_000_000, time.UTC).UnixMilli()
)

// Date is an extended-JSON timestamp: {"$date":{"$numberLong":"<millis>"}}.
type Date struct {
	time.Time
}

// UnmarshalJSON decodes the extended-JSON form into a UTC instant.
func (d *Date) UnmarshalJSON(data []byte) error {
	var w struct {
		Date *struct {
			NumberLong *string `json:"$numberLong"`
		} `json:"$date"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if w.Date == nil || w.Date.NumberLong == nil {
		return errors.New("date: missing $date.$numberLong")
	}
	t, err := parseMillis(*w.Date.NumberLong)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("date: %w", err)
	}
	if ms < minInstant || ms > maxInstant {
		return time.Time{}, fmt.Errorf("date: %d ms is out of range", ms)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// ObjectID is an extended-JSON object id: {"$oid":"<hex>"}. The value is
// carried through as an opaque string.
type ObjectID string

// UnmarshalJSON extracts the $oid string.
func (o *ObjectID) UnmarshalJSON(data []byte) error {
	var w struct {
		OID *string `json:"$oid"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("oid: %w", err)
	}
	if w.OID == nil {
		return errors.New("oid: missing $oid")
	}
	*o = ObjectID(*w.OID)
	return nil
}

// optTime converts an optional wire date.
func optTime(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
