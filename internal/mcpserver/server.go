// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the paper repository for LLM integration via stdio transport.
// All tools are read-only except record_review; mutation of metadata stays
// with the CLI.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jholt/papers/internal/paper"
	"github.com/jholt/papers/internal/repo"
)

// Server wraps the MCP server with repository tools.
type Server struct {
	mcp   *server.MCPServer
	store *repo.Store
}

// New creates a new MCP server with all tools registered.
func New(store *repo.Store) *Server {
	s := &Server{store: store}

	s.mcp = server.NewMCPServer(
		"Papers",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_papers",
		mcp.WithDescription("List papers in the repository, optionally filtered. All filters are ANDed."),
		mcp.WithString("title", mcp.Description("Case-insensitive substring match on the title")),
		mcp.WithString("tag", mcp.Description("Require this tag")),
		mcp.WithString("author", mcp.Description("Require this author")),
	), s.listPapers)

	s.mcp.AddTool(mcp.NewTool("get_paper",
		mcp.WithDescription("Read one paper's metadata and notes by its note path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path relative to the repo root (e.g. My Title.md)")),
	), s.getPaper)

	s.mcp.AddTool(mcp.NewTool("reviewable_papers",
		mcp.WithDescription("List the papers currently due for review."),
	), s.reviewablePapers)

	s.mcp.AddTool(mcp.NewTool("record_review",
		mcp.WithDescription("Record that a paper was reviewed now and reschedule its next review."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path of the reviewed paper")),
	), s.recordReview)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("papers://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical note-file format every paper must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

type paperSummary struct {
	Path    string   `json:"path"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags,omitempty"`
	Authors []string `json:"authors,omitempty"`
}

func (s *Server) listPapers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := repo.Filter{}
	if title, err := req.RequireString("title"); err == nil {
		f.Title = title
	}
	if tag, err := req.RequireString("tag"); err == nil {
		f.Tags = []string{tag}
	}
	if author, err := req.RequireString("author"); err == nil {
		f.Authors = []string{author}
	}

	papers, _ := s.store.List(f)
	out := make([]paperSummary, 0, len(papers))
	for _, lp := range papers {
		out = append(out, paperSummary{Path: lp.Path, Title: lp.Meta.Title, Tags: lp.Meta.Tags, Authors: lp.Meta.Authors})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getPaper(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lp, err := s.store.GetPaper(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	data, err := paper.MarshalNote(&lp.Meta, lp.Notes)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) reviewablePapers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := time.Now().UTC()
	papers, _ := s.store.AllPapers()
	out := make([]paperSummary, 0)
	for _, lp := range papers {
		if lp.Meta.IsReviewable(now) {
			out = append(out, paperSummary{Path: lp.Path, Title: lp.Meta.Title, Tags: lp.Meta.Tags, Authors: lp.Meta.Authors})
		}
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) recordReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lp, err := s.store.GetPaper(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	lp.Meta.UpdateReview(paper.Now())
	if err := s.store.WritePaper(lp.Path, &lp.Meta, lp.Notes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("next review: %s", lp.Meta.NextReview.Format(time.RFC3339))), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "papers://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
