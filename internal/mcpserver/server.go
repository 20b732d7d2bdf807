// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Snapvault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/torvik/snapvault/internal/apperr"
	"github.com/torvik/snapvault/internal/models"
	"github.com/torvik/snapvault/internal/recordstore"
)

// Server wraps the MCP server with Snapvault tools.
type Server struct {
	mcp   *server.MCPServer
	store *recordstore.Store
}

// New creates a new MCP server with all Snapvault tools registered.
func New(store *recordstore.Store) *Server {
	s := &Server{store: store}

	s.mcp = server.NewMCPServer(
		"Snapvault",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List capture records, newest first, optionally filtered by status."),
		mcp.WithString("filter", mcp.Description("Status filter: all, todo or done (default all)")),
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("read_record",
		mcp.WithDescription("Read the full metadata document of a record. "+
			"The document shape is described by the snapvault://record-schema resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Metadata file name (e.g. note_2023-11-14T22-13-20_1700000000000.json)")),
	), s.readRecord)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note-only record. The record gets a fresh id, "+
			"todo status and a sort position at the top of the list."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note text")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the note text of an existing record."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Metadata file name")),
		mcp.WithString("note", mcp.Required(), mcp.Description("New note text")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("update_status",
		mcp.WithDescription("Set a record's status to todo or done."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Metadata file name")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status: todo or done")),
	), s.updateStatus)

	s.mcp.AddTool(mcp.NewTool("delete_record",
		mcp.WithDescription("Delete a record and its image assets."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Metadata file name")),
	), s.deleteRecord)

	// Resource: record document schema.
	s.mcp.AddResource(
		mcp.NewResource("snapvault://record-schema", "Record Document Schema",
			mcp.WithResourceDescription("Shape of the JSON metadata document each record is stored as."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordSchemaResource,
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

func (s *Server) listRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := models.FilterAll
	if f, err := req.RequireString("filter"); err == nil && f != "" {
		filter = models.Filter(f)
	}
	recs, err := s.store.List(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	type item struct {
		Name      string        `json:"name"`
		Note      string        `json:"note"`
		Status    models.Status `json:"status"`
		CreatedAt string        `json:"createdAt"`
	}
	items := make([]item, 0, len(recs))
	for _, rec := range recs {
		items = append(items, item{
			Name:      rec.MetadataPath,
			Note:      rec.Note.Text,
			Status:    rec.Status,
			CreatedAt: rec.CreatedAt,
		})
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.store.Get(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.store.CreateNote(ctx, note)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", rec.MetadataPath)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.UpdateNote(ctx, name, note, false); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", name)), nil
}

func (s *Server) updateStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.UpdateStatus(ctx, name, models.Status(status)); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", name)), nil
}

func (s *Server) deleteRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.Delete(ctx, name, true); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", name)), nil
}

func (s *Server) readRecordSchemaResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "snapvault://record-schema",
			MIMEType: "text/markdown",
			Text:     RecordSchemaContract,
		},
	}, nil
}
