package domain

import (
	"context"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/format"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FormatParseInput represents the MCP tool input for parsing a format code.
type FormatParseInput struct {
	Format string `json:"format" jsonschema:"match format code"`
}

// FormatResult describes a parsed or deduced format.
type FormatResult struct {
	Format     string            `json:"format" jsonschema:"canonical match format code"`
	BestOf     int               `json:"best_of" jsonschema:"number of sets in the match"`
	SetsToWin  int               `json:"sets_to_win" jsonschema:"sets needed to win"`
	Exactly    bool              `json:"exactly,omitempty" jsonschema:"every set is played"`
	Aggregate  bool              `json:"aggregate,omitempty" jsonschema:"winner decided by total points"`
	Descriptor format.Descriptor `json:"descriptor" jsonschema:"structured format"`
}

// FormatParseTool defines the MCP tool schema for parsing a format code.
func FormatParseTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "format_parse",
		Description: "Parses a match format code and returns its canonical form and structure.",
	}
}

// FormatParseHandler executes a format parse request.
func FormatParseHandler(locale string) mcp.ToolHandlerFor[FormatParseInput, FormatResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input FormatParseInput) (*mcp.CallToolResult, FormatResult, error) {
		desc, err := format.Parse(input.Format)
		if err != nil {
			return nil, FormatResult{}, toolError(err, locale)
		}
		return nil, formatResult(desc), nil
	}
}

// FormatDeduceInput represents the MCP tool input for deducing a format.
type FormatDeduceInput struct {
	ScoreLine string `json:"score_line" jsonschema:"completed score such as 6-4 3-6 [10-8]"`
}

// FormatDeduceTool defines the MCP tool schema for deducing a format.
func FormatDeduceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "format_deduce",
		Description: "Infers the most likely format code from a completed score line.",
	}
}

// FormatDeduceHandler executes a format deduce request.
func FormatDeduceHandler(locale string) mcp.ToolHandlerFor[FormatDeduceInput, FormatResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input FormatDeduceInput) (*mcp.CallToolResult, FormatResult, error) {
		desc, err := format.Deduce(input.ScoreLine)
		if err != nil {
			return nil, FormatResult{}, toolError(err, locale)
		}
		return nil, formatResult(desc), nil
	}
}

func formatResult(desc format.Descriptor) FormatResult {
	return FormatResult{
		Format:     desc.String(),
		BestOf:     desc.BestOf,
		SetsToWin:  desc.SetsToWin(),
		Exactly:    desc.Exactly,
		Aggregate:  desc.Aggregate,
		Descriptor: desc,
	}
}
