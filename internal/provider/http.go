package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrWong99/worldstate/internal/observe"
)

// maxBody caps every upstream response. The largest manifests are a few
// megabytes.
const maxBody = 64 << 20

// ErrResponseTooLarge is returned when an upstream body exceeds the size
// cap.
var ErrResponseTooLarge = errors.New("provider: response too large")

// get performs a GET request and returns the body of a 200 response. The
// request is recorded under source.
func get(ctx context.Context, client *http.Client, m *observe.Metrics, source, url string) ([]byte, error) {
	start := time.Now()
	body, err := doGet(ctx, client, url, maxBody)
	m.RecordFetch(ctx, source, time.Since(start).Seconds(), err)
	return body, err
}

func doGet(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "worldstate/1")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("GET %s: %w: %d bytes exceeds %d", url, ErrResponseTooLarge, resp.ContentLength, limit)
	}
	// One byte past the limit tells a body of exactly limit bytes apart
	// from a longer one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", url, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("GET %s: %w: more than %d bytes", url, ErrResponseTooLarge, limit)
	}
	return body, nil
}
