package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDoGet_SizeLimit(t *testing.T) {
	t.Parallel()
	const limit = 16

	tests := []struct {
		name    string
		body    string
		chunked bool
		wantErr error
	}{
		{name: "under limit", body: `{"Events":[]}`},
		{name: "exactly limit", body: strings.Repeat("x", limit)},
		{name: "declared length over limit", body: strings.Repeat("x", limit+1), wantErr: ErrResponseTooLarge},
		{name: "streamed body over limit", body: strings.Repeat("x", 4*limit), chunked: true, wantErr: ErrResponseTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if !tt.chunked {
					w.Write([]byte(tt.body))
					return
				}
				// Flushing before the body is complete drops Content-Length.
				half := len(tt.body) / 2
				w.Write([]byte(tt.body[:half]))
				w.(http.Flusher).Flush()
				w.Write([]byte(tt.body[half:]))
			}))
			t.Cleanup(srv.Close)

			body, err := doGet(context.Background(), srv.Client(), srv.URL, limit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("doGet error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("doGet: %v", err)
			}
			if string(body) != tt.body {
				t.Errorf("body = %q, want %q", body, tt.body)
			}
		})
	}
}
