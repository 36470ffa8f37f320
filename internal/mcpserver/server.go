// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the loaded deck read-only to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/koinecards/internal/apperr"
	"github.com/starford/koinecards/internal/deckservice"
	"github.com/starford/koinecards/internal/render"
)

// CardFormatURI is the resource URI of CardFormatContract.
const CardFormatURI = "koinecards://card-format"

// Server wraps the MCP server with the deck tools.
type Server struct {
	mcp *server.MCPServer
	svc *deckservice.Service
}

// New creates a new MCP server with all deck tools registered.
func New(svc *deckservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		render.AppTitle,
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_domains",
		mcp.WithDescription("List every domain of the deck with its card count, in display order."),
	), s.listDomains)

	s.mcp.AddTool(mcp.NewTool("list_cards",
		mcp.WithDescription("List the cards of one domain in filename order."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Domain name as returned by list_domains")),
	), s.listCards)

	s.mcp.AddTool(mcp.NewTool("read_card",
		mcp.WithDescription("Read one card: title, meta and body."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Domain of the card")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Card path as listed in the manifest (e.g. 01_logos.txt)")),
	), s.readCard)

	s.mcp.AddTool(mcp.NewTool("get_card_format",
		mcp.WithDescription("Returns the card text format. "+
			"Also available as the "+CardFormatURI+" resource."),
	), s.getCardFormat)

	s.mcp.AddResource(
		mcp.NewResource(CardFormatURI, "Card Format",
			mcp.WithResourceDescription("Text format of the card files listed in a deck manifest."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCardFormatResource,
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

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listDomains(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.Domains(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rows)
}

func (s *Server) listCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := s.svc.Cards(ctx, domain)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rows)
}

func (s *Server) readCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.svc.Card(ctx, domain, filename)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(render.CardDetail(c))
}

func (s *Server) getCardFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CardFormatContract), nil
}

func (s *Server) readCardFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CardFormatURI,
			MIMEType: "text/markdown",
			Text:     CardFormatContract,
		},
	}, nil
}
