package mcp

import "fmt"

// Transport selects how the MCP server is exposed.
type Transport string

const (
	// TransportStdio serves a single client over stdin/stdout.
	TransportStdio Transport = "stdio"

	// TransportStreamableHTTP serves clients via the MCP Streamable HTTP
	// protocol.
	TransportStreamableHTTP Transport = "streamable-http"
)

// IsValid reports whether t is a recognised transport.
func (t Transport) IsValid() bool {
	return t == TransportStdio || t == TransportStreamableHTTP
}

// ParseTransport converts a flag value into a [Transport].
func ParseTransport(s string) (Transport, error) {
	t := Transport(s)
	if !t.IsValid() {
		return "", fmt.Errorf("mcp: unknown transport %q (want %q or %q)", s, TransportStdio, TransportStreamableHTTP)
	}
	return t, nil
}
