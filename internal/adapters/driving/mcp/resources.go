package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/auditrag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for auditrag resources.
	uriScheme = "auditrag://"

	// runListLimit bounds the run listing resource.
	runListLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.History != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "runs",
			Name:        "runs",
			Description: "Recent analysis runs, newest first",
			MIMEType:    "application/json",
		}, s.handleRunsResource)

		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "runs/{runId}",
			Name:        "run",
			Description: "A stored analysis run with every answer and the verdict",
			MIMEType:    "application/json",
		}, s.handleRunResource)
	}

	if s.ports.Templates != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "templates/{templateId}",
			Name:        "template",
			Description: "Raw text of a prompt template",
			MIMEType:    "text/plain",
		}, s.handleTemplateResource)
	}
}

// handleRunsResource returns summaries of stored runs.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.History.List(ctx, runListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	type runInfo struct {
		ID          string `json:"id"`
		ReportTitle string `json:"report_title"`
		ReportURI   string `json:"report_uri"`
		Questions   int    `json:"questions"`
		CreatedAt   string `json:"created_at"`
	}

	infos := make([]runInfo, len(runs))
	for i, r := range runs {
		infos[i] = runInfo{
			ID:          r.ID,
			ReportTitle: r.ReportTitle,
			ReportURI:   r.ReportURI,
			Questions:   r.Questions,
			CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	return jsonResult(req.Params.URI, infos)
}

// handleRunResource returns a single stored run.
func (s *Server) handleRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract runId from URI: auditrag://runs/{runId}
	runID := extractID(req.Params.URI, "runs/")
	if runID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	run, err := s.ports.History.Get(ctx, runID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}

	return jsonResult(req.Params.URI, run)
}

// handleTemplateResource returns the raw text of a template.
func (s *Server) handleTemplateResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract templateId from URI: auditrag://templates/{templateId}
	id := extractID(req.Params.URI, "templates/")
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	text, err := s.ports.Templates.Show(id)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting template: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}, nil
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractID extracts the trailing identifier from a URI like auditrag://<kind>{id}.
// Identifiers never contain a slash.
func extractID(uri, kind string) string {
	prefix := uriScheme + kind

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
