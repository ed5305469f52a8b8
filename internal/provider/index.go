package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ulikunitz/xz/lzma"

	"github.com/MrWong99/worldstate/internal/observe"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

// FetchExportIndex downloads the lzma-compressed public export index at url
// and parses it.
func FetchExportIndex(ctx context.Context, client *http.Client, m *observe.Metrics, url string) (worldstate.ManifestIndex, error) {
	blob, err := get(ctx, client, m, "index", url)
	if err != nil {
		return nil, fmt.Errorf("provider: fetch export index: %w", err)
	}
	text, err := DecodeIndex(blob)
	if err != nil {
		return nil, fmt.Errorf("provider: fetch export index: %w", err)
	}
	idx, err := worldstate.ParseExportIndex(text)
	if err != nil {
		return nil, fmt.Errorf("provider: fetch export index: %w", err)
	}
	return idx, nil
}

// DecodeIndex decompresses a classic .lzma stream into the index text.
func DecodeIndex(blob []byte) (string, error) {
	r, err := lzma.NewReader(bytes.NewReader(blob))
	if err != nil {
		return "", fmt.Errorf("lzma header: %w", err)
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("lzma stream: %w", err)
	}
	return string(text), nil
}
