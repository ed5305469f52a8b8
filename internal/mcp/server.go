// Package mcp exposes the world-state tools to Model Context Protocol
// clients using the official MCP Go SDK.
//
// Tools are registered from [tools.Tool] values; each call is timed and
// counted through [observe.Metrics]. Tool failures are returned to the
// client as error results rather than protocol errors so the model can read
// the message.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/worldstate/internal/mcp/tools"
	"github.com/MrWong99/worldstate/internal/observe"
)

// Server is an MCP server with a fixed set of tools.
type Server struct {
	mcp     *sdk.Server
	metrics *observe.Metrics
	names   []string
}

// NewServer creates a server announcing itself as name/version and
// registers toolset. A nil m falls back to [observe.DefaultMetrics].
func NewServer(name, version string, m *observe.Metrics, toolset ...tools.Tool) (*Server, error) {
	if m == nil {
		m = observe.DefaultMetrics()
	}
	s := &Server{
		mcp:     sdk.NewServer(&sdk.Implementation{Name: name, Version: version}, nil),
		metrics: m,
	}
	seen := make(map[string]bool, len(toolset))
	for _, t := range toolset {
		def := t.Definition
		if def.Name == "" || t.Handler == nil {
			return nil, fmt.Errorf("mcp: tool %q has no name or handler", def.Name)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("mcp: duplicate tool %q", def.Name)
		}
		seen[def.Name] = true
		s.mcp.AddTool(&sdk.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Parameters,
		}, s.wrap(def.Name, t.Handler))
		s.names = append(s.names, def.Name)
	}
	return s, nil
}

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string { return append([]string(nil), s.names...) }

// wrap adapts a string-in/string-out tool handler to the SDK and records
// its latency and outcome.
func (s *Server) wrap(name string, h func(context.Context, string) (string, error)) sdk.ToolHandler {
	return func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		args := "{}"
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			args = string(req.Params.Arguments)
		}

		ctx, span := observe.StartSpan(ctx, observe.SpanToolCall,
			trace.WithAttributes(observe.AttrTool.String(name)))
		start := time.Now()
		out, err := h(ctx, args)
		elapsed := time.Since(start)
		observe.Finish(span, err)

		s.metrics.ToolExecutionDuration.Record(ctx, elapsed.Seconds(), observe.Attr("tool", name))
		s.metrics.RecordToolCall(ctx, name, observe.Status(err))

		if err != nil {
			observe.Logger(ctx).Debug("mcp: tool failed", "tool", name, "err", err, "duration", elapsed)
			return &sdk.CallToolResult{
				IsError: true,
				Content: []sdk.Content{&sdk.TextContent{Text: err.Error()}},
			}, nil
		}
		return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: out}}}, nil
	}
}

// Run serves a single session over transport until the client disconnects
// or ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

// RunStdio serves over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	slog.Info("mcp: serving over stdio", "tools", len(s.names))
	return s.Run(ctx, &sdk.StdioTransport{})
}

// Handler returns an [http.Handler] serving the Streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server { return s.mcp }, nil)
}
