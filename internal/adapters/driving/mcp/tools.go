package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
)

// defaultRegionLimit caps get_regions output when no limit is given.
const defaultRegionLimit = 50

// StructureInput is the input schema for the structure_document tool.
type StructureInput struct {
	DocID string `json:"doc_id" jsonschema:"the document id (its workspace directory name)"`
	Force bool   `json:"force,omitempty" jsonschema:"re-apply stages that already ran"`
}

// StructureOutput is the output schema for the structure_document tool.
type StructureOutput struct {
	DocID      string        `json:"doc_id"`
	ParseStage string        `json:"parse_stage"`
	Stages     []StageOutput `json:"stages"`
}

// StageOutput reports one stage application.
type StageOutput struct {
	Stage          string   `json:"stage"`
	Skipped        bool     `json:"skipped"`
	ParseStage     string   `json:"parse_stage"`
	ElementsBefore int      `json:"elements_before"`
	ElementsAfter  int      `json:"elements_after"`
	Warnings       []string `json:"warnings,omitempty"`
}

// DocumentInput names one document.
type DocumentInput struct {
	DocID string `json:"doc_id" jsonschema:"the document id"`
}

// StatusOutput is the output schema for the get_document_status tool.
type StatusOutput struct {
	DocID          string          `json:"doc_id"`
	HasArtifact    bool            `json:"has_artifact"`
	Title          string          `json:"title,omitempty"`
	ParseStage     string          `json:"parse_stage,omitempty"`
	Language       string          `json:"language,omitempty"`
	TotalPages     int             `json:"total_pages"`
	TotalElements  int             `json:"total_elements"`
	RegionDivision *RegionsOutline `json:"region_division,omitempty"`
	LastRun        *RunOutput      `json:"last_run,omitempty"`
}

// RegionsOutline gives each region as a [start, end) element id range.
type RegionsOutline struct {
	Head [2]int `json:"head"`
	Body [2]int `json:"body"`
	Tail [2]int `json:"tail"`
}

// RunOutput summarises the most recent stage run.
type RunOutput struct {
	Stage    string   `json:"stage"`
	Status   string   `json:"status"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// RegionsInput is the input schema for the get_regions tool.
type RegionsInput struct {
	DocID  string `json:"doc_id" jsonschema:"the document id"`
	Region string `json:"region,omitempty" jsonschema:"head, body or tail; empty returns elements from every region"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of elements to return (default 50)"`
}

// RegionsOutput is the output schema for the get_regions tool.
type RegionsOutput struct {
	DocID     string          `json:"doc_id"`
	Regions   RegionsOutline  `json:"regions"`
	Elements  []ElementOutput `json:"elements"`
	Count     int             `json:"count"`
	Truncated bool            `json:"truncated"`
}

// ElementOutput is one element of a region.
type ElementOutput struct {
	ID     int    `json:"id"`
	Type   string `json:"type"`
	Region string `json:"region"`
	Page   int    `json:"page"`
	Text   string `json:"text,omitempty"`
}

// ListOutput is the output schema for the list_documents tool.
type ListOutput struct {
	Documents []string `json:"documents"`
	Count     int      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "structure_document",
		Description: "Run the structuring pipeline (extract, merge, divide) for a document",
	}, s.handleStructure)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document_status",
		Description: "Get how far a document has progressed through the pipeline",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_regions",
		Description: "Get a document's head, body or tail elements after region division",
	}, s.handleRegions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents in the workspace",
	}, s.handleList)
}

// handleStructure handles the structure_document tool invocation.
func (s *Server) handleStructure(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StructureInput,
) (*mcp.CallToolResult, StructureOutput, error) {
	if input.DocID == "" {
		return nil, StructureOutput{}, fmt.Errorf("%w: doc_id is required", domain.ErrInvalidInput)
	}

	results, err := s.ports.Structurer.Run(ctx, input.DocID, input.Force)
	if err != nil {
		return nil, StructureOutput{}, err
	}

	output := StructureOutput{
		DocID:  input.DocID,
		Stages: make([]StageOutput, len(results)),
	}
	for i := range results {
		r := &results[i]
		output.Stages[i] = StageOutput{
			Stage:          r.Stage,
			Skipped:        r.Skipped,
			ParseStage:     r.ParseStage.String(),
			ElementsBefore: r.ElementsBefore,
			ElementsAfter:  r.ElementsAfter,
			Warnings:       warningTexts(r.Warnings),
		}
		output.ParseStage = r.ParseStage.String()
	}

	return nil, output, nil
}

// handleStatus handles the get_document_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if input.DocID == "" {
		return nil, StatusOutput{}, fmt.Errorf("%w: doc_id is required", domain.ErrInvalidInput)
	}

	status, err := s.ports.Structurer.Status(ctx, input.DocID)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	return nil, statusOutput(status), nil
}

func statusOutput(status *driving.DocumentStatus) StatusOutput {
	out := StatusOutput{
		DocID:         status.DocID,
		HasArtifact:   status.HasArtifact,
		Title:         status.Title,
		Language:      status.Language,
		TotalPages:    status.TotalPages,
		TotalElements: status.TotalElements,
	}
	if status.HasArtifact {
		out.ParseStage = status.ParseStage.String()
	}
	if rd := status.RegionDivision; rd != nil {
		outline := outlineOf(rd)
		out.RegionDivision = &outline
	}
	if run := status.LastRun; run != nil {
		out.LastRun = &RunOutput{
			Stage:    run.Stage,
			Status:   string(run.Status),
			Error:    run.Error,
			Warnings: warningTexts(run.Warnings),
		}
	}
	return out
}

// handleRegions handles the get_regions tool invocation.
func (s *Server) handleRegions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RegionsInput,
) (*mcp.CallToolResult, RegionsOutput, error) {
	if input.DocID == "" {
		return nil, RegionsOutput{}, fmt.Errorf("%w: doc_id is required", domain.ErrInvalidInput)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultRegionLimit
	}

	doc, err := s.ports.Structurer.Document(ctx, input.DocID)
	if err != nil {
		return nil, RegionsOutput{}, err
	}

	rd := doc.Metadata.RegionDivision
	if rd == nil {
		return nil, RegionsOutput{}, fmt.Errorf("%w: document %s has not been divided into regions",
			domain.ErrInvalidInput, input.DocID)
	}
	if err := rd.Validate(len(doc.Elements)); err != nil {
		return nil, RegionsOutput{}, err
	}

	span := domain.Span{Start: 0, End: len(doc.Elements)}
	if input.Region != "" {
		var ok bool
		span, ok = rd.Span(domain.Region(strings.ToLower(input.Region)))
		if !ok {
			return nil, RegionsOutput{}, fmt.Errorf("%w: unknown region %q (want head, body or tail)",
				domain.ErrInvalidInput, input.Region)
		}
	}

	output := RegionsOutput{
		DocID:    input.DocID,
		Regions:  outlineOf(rd),
		Elements: make([]ElementOutput, 0, min(span.Len(), limit)),
	}
	for i := span.Start; i < span.End; i++ {
		if len(output.Elements) == limit {
			output.Truncated = true
			break
		}
		el := &doc.Elements[i]
		output.Elements = append(output.Elements, ElementOutput{
			ID:     el.ID,
			Type:   el.Type.String(),
			Region: string(rd.RegionOf(i)),
			Page:   el.Source.Page,
			Text:   el.Text(),
		})
	}
	output.Count = len(output.Elements)

	return nil, output, nil
}

// handleList handles the list_documents tool invocation.
func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ListOutput, error) {
	ids, err := s.ports.Structurer.List(ctx)
	if err != nil {
		return nil, ListOutput{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	return nil, ListOutput{Documents: ids, Count: len(ids)}, nil
}

func outlineOf(rd *domain.RegionDivision) RegionsOutline {
	return RegionsOutline{
		Head: [2]int{rd.Head.Start, rd.Head.End},
		Body: [2]int{rd.Body.Start, rd.Body.End},
		Tail: [2]int{rd.Tail.Start, rd.Tail.End},
	}
}

func warningTexts(warnings []domain.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out
}
