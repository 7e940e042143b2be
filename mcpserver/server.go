// Package mcpserver exposes synthesis as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	ape "github.com/sanctuuary/APE-sub003"
	"github.com/sanctuuary/APE-sub003/rpc"
	"github.com/sanctuuary/APE-sub003/synth"
)

const (
	ToolSynthesize = "synthesize"
	ToolTemplates  = "list_constraint_templates"
)

type Server struct {
	mcp *server.MCPServer
	run *rpc.Server
	log *slog.Logger
}

func New(log *slog.Logger, version string, opts ...synth.Option) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		mcp: server.NewMCPServer(
			"ape",
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
			server.WithInstructions(instructions),
		),
		run: rpc.NewServer(log, opts...),
		log: log,
	}
	s.registerTools()
	return s
}

const instructions = `Synthesizes workflows of annotated tools.
Call list_constraint_templates to see which constraints a configuration may use,
then synthesize with a domain document and a run configuration, both JSON.`

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool(
			ToolSynthesize,
			mcp.WithDescription("Synthesize workflows that turn the configured inputs into the configured outputs"),
			mcp.WithString("domain", mcp.Required(), mcp.Description("Domain document (JSON): taxonomies and tool annotations")),
			mcp.WithString("config", mcp.Required(), mcp.Description("Run configuration (JSON)")),
			mcp.WithArray("patches", mcp.WithStringItems(), mcp.Description("JSON patches applied to the configuration in order")),
			mcp.WithString("filter", mcp.Description("Expression selecting the workflows to return, e.g. length <= 3")),
			mcp.WithBoolean("text", mcp.Description("Also render the workflows as text")),
		),
		s.handleSynthesize,
	)
	s.mcp.AddTool(
		mcp.NewTool(
			ToolTemplates,
			mcp.WithDescription("List the constraint templates with their parameters"),
		),
		s.handleTemplates,
	)
}

func (s *Server) handleSynthesize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg, err := req.RequireString("config")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := &rpc.RunParams{
		Domain: json.RawMessage(domain),
		Config: json.RawMessage(cfg),
		Filter: req.GetString("filter", ""),
		Text:   req.GetBool("text", false),
	}
	for _, pt := range req.GetStringSlice("patches", nil) {
		p.Patches = append(p.Patches, json.RawMessage(pt))
	}
	res, err := s.run.Run(ctx, p)
	if err != nil {
		s.log.Debug("synthesize failed", "error", err)
		return mcp.NewToolResultErrorFromErr("synthesis failed", err), nil
	}
	return mcp.NewToolResultJSON(res)
}

func (s *Server) handleTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(ape.Templates())
}

// ServeStdio serves newline-delimited MCP messages on in and out until
// ctx is done or in is exhausted.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.log.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}
