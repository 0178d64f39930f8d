package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/reportreel/reportreel/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store      *storage.Store
	Controller RunController
}

// NewMCPServer creates an MCP server exposing the document pipeline to
// agent clients.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"reportreel",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("reportreel turns uploaded financial reports into structured facts and short video scripts."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("process_document",
			mcp.WithDescription("Start the extraction pipeline for an already-uploaded document."),
			mcp.WithString("document_id", mcp.Description("ID of the uploaded document"), mcp.Required()),
		),
		mcpProcessDocument(deps),
	)

	s.AddTool(
		mcp.NewTool("run_status",
			mcp.WithDescription("Get the status, progress, and notifications of a pipeline run."),
			mcp.WithString("run_id", mcp.Description("ID of the run"), mcp.Required()),
		),
		mcpRunStatus(deps),
	)

	s.AddTool(
		mcp.NewTool("get_scripts",
			mcp.WithDescription("Get the generated script variants for a completed run."),
			mcp.WithString("run_id", mcp.Description("ID of the run"), mcp.Required()),
		),
		mcpGetScripts(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"runs://recent",
			"Recent Runs",
			mcp.WithResourceDescription("Last 10 pipeline runs (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecentRuns(deps),
	)

	return s
}

func mcpProcessDocument(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docID, err := req.RequireString("document_id")
		if err != nil {
			return mcpError("document_id is required"), nil
		}

		if _, err := deps.Store.GetDocument(docID); err != nil {
			return mcpError(fmt.Sprintf("document not found: %v", err)), nil
		}

		run, err := deps.Controller.StartRun(ctx, docID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to start run: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Started run %s for document %s", run.ID, docID)), nil
	}
}

func mcpRunStatus(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runID, err := req.RequireString("run_id")
		if err != nil {
			return mcpError("run_id is required"), nil
		}

		view, err := deps.Controller.Status(runID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to get status: %v", err)), nil
		}

		b, err := json.Marshal(view)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal status: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetScripts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runID, err := req.RequireString("run_id")
		if err != nil {
			return mcpError("run_id is required"), nil
		}

		run, err := deps.Controller.Load(runID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load run: %v", err)), nil
		}
		if run.ScriptsJSON == "" {
			return mcpError("no scripts available for this run yet"), nil
		}
		return mcpText(run.ScriptsJSON), nil
	}
}

func mcpResourceRecentRuns(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		runs, err := deps.Store.ListRuns(10)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}

		type runSummary struct {
			ID            string `json:"id"`
			DocumentID    string `json:"document_id"`
			OverallStatus string `json:"overall_status"`
			StartedAt     string `json:"started_at"`
		}
		summaries := make([]runSummary, len(runs))
		for i, rec := range runs {
			summaries[i] = runSummary{
				ID:            rec.ID,
				DocumentID:    rec.DocumentID,
				OverallStatus: rec.OverallStatus,
				StartedAt:     rec.StartedAt.Format(time.RFC3339),
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal runs: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
