// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the page graph to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/meshgraph/internal/engine"
	"github.com/starford/meshgraph/internal/events"
	"github.com/starford/meshgraph/internal/query"
)

const querySyntaxURI = "meshgraph://query-syntax"

// Server wraps the MCP server with graph tools.
type Server struct {
	mcp *server.MCPServer
	eng *engine.Engine
}

// New creates a new MCP server with all graph tools registered.
func New(eng *engine.Engine) *Server {
	s := &Server{eng: eng}

	s.mcp = server.NewMCPServer(
		"Meshgraph",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the names of all pages in the graph, including stub pages that are only link targets."),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get a page with its file path, frontmatter metadata, backlinks and outlinks."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Page name (file stem, e.g. Roadmap)")),
	), s.getPage)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all pages that link to the specified page."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the page to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_outlinks",
		mcp.WithDescription("List the pages the specified page links to."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the page to list outlinks for")),
	), s.getOutlinks)

	s.mcp.AddTool(mcp.NewTool("query_pages",
		mcp.WithDescription("Find pages matching a filter query. "+
			"Read the syntax via the "+querySyntaxURI+" resource."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Filter query, e.g. status=draft, ->Roadmap")),
	), s.queryPages)

	s.mcp.AddTool(mcp.NewTool("metatable",
		mcp.WithDescription("Render matching pages as a Markdown table of metadata columns. "+
			"Append ||col||col|| to the query to choose columns."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Filter query with an optional column block")),
	), s.metaTable)

	s.mcp.AddTool(mcp.NewTool("graph_stats",
		mcp.WithDescription("Report page and link counts and the watcher state."),
	), s.graphStats)

	s.mcp.AddTool(mcp.NewTool("rebuild_graph",
		mcp.WithDescription("Reload the whole graph from the corpus directory."),
	), s.rebuildGraph)

	s.mcp.AddTool(mcp.NewTool("poll_events",
		mcp.WithDescription("Drain the graph change events recorded since the last poll."),
	), s.pollEvents)

	// Resource: query syntax.
	s.mcp.AddResource(
		mcp.NewResource(querySyntaxURI, "Page Query Syntax",
			mcp.WithResourceDescription("Filter and column syntax accepted by query_pages and metatable."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readQuerySyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages := s.eng.ListPages()
	names := make([]string, 0, len(pages))
	for _, p := range pages {
		names = append(names, p.Name)
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) getPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, ok := s.eng.PageDetail(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	return jsonResult(detail)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.links(req, s.eng.Backlinks, "no backlinks found")
}

func (s *Server) getOutlinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.links(req, s.eng.Outlinks, "no outlinks found")
}

func (s *Server) links(req mcp.CallToolRequest, fetch func(string) []string, empty string) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.eng.PageExists(name) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	names := fetch(name)
	if len(names) == 0 {
		return mcp.NewToolResultText(empty), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) queryPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pages := s.eng.Query(query.ParseMacro(q).Filters)
	if len(pages) == 0 {
		return mcp.NewToolResultText("no matching pages"), nil
	}
	names := make([]string, 0, len(pages))
	for _, p := range pages {
		names = append(names, p.Name)
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) metaTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m := query.ParseMacro(q)
	return mcp.NewToolResultText(query.RenderMarkdown(s.eng.MetaTable(m.Filters, m.Columns))), nil
}

func (s *Server) graphStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.eng.Stats())
}

func (s *Server) rebuildGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.eng.Rebuild(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.eng.String()), nil
}

func (s *Server) pollEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs := events.ToRecords(s.eng.PollEvents())
	if len(recs) == 0 {
		return mcp.NewToolResultText("no pending events"), nil
	}
	return jsonResult(recs)
}

func (s *Server) readQuerySyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      querySyntaxURI,
			MIMEType: "text/markdown",
			Text:     QuerySyntax,
		},
	}, nil
}
