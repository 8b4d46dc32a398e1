package domain

import (
	"context"
	"time"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/engine"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/lineup"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/pointvalue"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/score"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MultiplierInput is one point value rule.
type MultiplierInput struct {
	Results []string `json:"results,omitempty" jsonschema:"point results the rule matches, case-insensitive"`
	Strokes []string `json:"strokes,omitempty" jsonschema:"strokes the rule matches, case-insensitive"`
	Value   int      `json:"value" jsonschema:"points awarded when the rule matches"`
}

// MatchCreateInput represents the MCP tool input for creating a match.
type MatchCreateInput struct {
	Format      string            `json:"format" jsonschema:"match format code, for example SET3-S:6/TB7"`
	MatchID     string            `json:"match_id,omitempty" jsonschema:"optional match identifier; generated when empty"`
	Multipliers []MultiplierInput `json:"multipliers,omitempty" jsonschema:"point value rules for aggregate and tiebreak-only sets"`
}

// MatchResult represents the state of a match after a tool call.
type MatchResult struct {
	MatchID     string      `json:"match_id" jsonschema:"match identifier"`
	Format      string      `json:"format" jsonschema:"canonical match format code"`
	Status      string      `json:"status" jsonschema:"match status (TO_BE_PLAYED, IN_PROGRESS, COMPLETED)"`
	WinningSide int         `json:"winning_side,omitempty" jsonschema:"1 or 2 once the match is decided"`
	Scoreboard  string      `json:"scoreboard" jsonschema:"human readable score"`
	Score       score.Score `json:"score" jsonschema:"structured score"`
	Points      int         `json:"points" jsonschema:"number of points played"`
	Doubles     bool        `json:"doubles" jsonschema:"whether a side fields two participants"`
	CanUndo     bool        `json:"can_undo" jsonschema:"whether undo is available"`
	CanRedo     bool        `json:"can_redo" jsonschema:"whether redo is available"`
}

// MatchCreateTool defines the MCP tool schema for creating a match.
func MatchCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_create",
		Description: "Creates a match scored under a format code and returns its id.",
	}
}

// MatchCreateHandler executes a match create request.
func MatchCreateHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchCreateInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchCreateInput) (*mcp.CallToolResult, MatchResult, error) {
		rules := make([]pointvalue.Rule, 0, len(input.Multipliers))
		for _, m := range input.Multipliers {
			rules = append(rules, pointvalue.Rule{Results: m.Results, Strokes: m.Strokes, Value: m.Value})
		}
		view, err := svc.Create(ctx, CreateParams{MatchID: input.MatchID, Format: input.Format, Multipliers: rules})
		return matchReply(view, err, locale)
	}
}

// MatchPointInput represents the MCP tool input for scoring a point.
type MatchPointInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
	Winner  int    `json:"winner" jsonschema:"point winner, 0 or 1"`
	Result  string `json:"result,omitempty" jsonschema:"optional point result, for example Ace"`
	Stroke  string `json:"stroke,omitempty" jsonschema:"optional stroke, for example Forehand"`
	Server  *int   `json:"server,omitempty" jsonschema:"optional server, 0 or 1"`
}

// MatchPointTool defines the MCP tool schema for scoring a point.
func MatchPointTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_point",
		Description: "Records one point for side 0 or 1.",
	}
}

// MatchPointHandler executes a point request.
func MatchPointHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchPointInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchPointInput) (*mcp.CallToolResult, MatchResult, error) {
		view, err := svc.Update(ctx, input.MatchID, "point", func(match *engine.Engine) error {
			return match.AddPoint(engine.PointInput{
				Winner: input.Winner,
				Result: input.Result,
				Stroke: input.Stroke,
				Server: input.Server,
			})
		})
		return matchReply(view, err, locale)
	}
}

// MatchGameInput represents the MCP tool input for awarding a game.
type MatchGameInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
	Winner  int    `json:"winner" jsonschema:"game winner, 0 or 1"`
}

// MatchGameTool defines the MCP tool schema for awarding a game.
func MatchGameTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_game",
		Description: "Awards the open game, or the open tiebreak, to side 0 or 1.",
	}
}

// MatchGameHandler executes a game request.
func MatchGameHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchGameInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchGameInput) (*mcp.CallToolResult, MatchResult, error) {
		view, err := svc.Update(ctx, input.MatchID, "game", func(match *engine.Engine) error {
			return match.AddGame(engine.GameInput{Winner: input.Winner})
		})
		return matchReply(view, err, locale)
	}
}

// MatchSetInput represents the MCP tool input for recording a whole set.
type MatchSetInput struct {
	MatchID            string `json:"match_id" jsonschema:"match identifier"`
	Side1Score         int    `json:"side1_score" jsonschema:"side 1 games, or points in tiebreak-only and aggregate sets"`
	Side2Score         int    `json:"side2_score" jsonschema:"side 2 games, or points in tiebreak-only and aggregate sets"`
	Side1TiebreakScore *int   `json:"side1_tiebreak_score,omitempty" jsonschema:"optional side 1 tiebreak points"`
	Side2TiebreakScore *int   `json:"side2_tiebreak_score,omitempty" jsonschema:"optional side 2 tiebreak points"`
	WinningSide        int    `json:"winning_side,omitempty" jsonschema:"1 or 2; derived from the scores when omitted"`
}

// MatchSetTool defines the MCP tool schema for recording a set.
func MatchSetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_set",
		Description: "Records a completed set from its result. The open set must not have started.",
	}
}

// MatchSetHandler executes a set request.
func MatchSetHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchSetInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchSetInput) (*mcp.CallToolResult, MatchResult, error) {
		view, err := svc.Update(ctx, input.MatchID, "set", func(match *engine.Engine) error {
			return match.AddSet(engine.SetInput{
				Side1Score:         input.Side1Score,
				Side2Score:         input.Side2Score,
				Side1TiebreakScore: input.Side1TiebreakScore,
				Side2TiebreakScore: input.Side2TiebreakScore,
				WinningSide:        input.WinningSide,
			})
		})
		return matchReply(view, err, locale)
	}
}

// MatchRefInput identifies a match.
type MatchRefInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
}

// MatchEndSegmentTool defines the MCP tool schema for ending a timed segment.
func MatchEndSegmentTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_end_segment",
		Description: "Ends the open timed or aggregate segment. A tied segment is rejected and play continues.",
	}
}

// MatchEndSegmentHandler executes an end segment request.
func MatchEndSegmentHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchRefInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchRefInput) (*mcp.CallToolResult, MatchResult, error) {
		view, err := svc.Update(ctx, input.MatchID, "end_segment", func(match *engine.Engine) error {
			return match.EndSegment()
		})
		return matchReply(view, err, locale)
	}
}

// MatchHistoryInput represents the MCP tool input for undo and redo.
type MatchHistoryInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
	Count   int    `json:"count,omitempty" jsonschema:"number of entries, default 1"`
}

// MatchUndoTool defines the MCP tool schema for undo.
func MatchUndoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_undo",
		Description: "Undoes the most recent scoring entries.",
	}
}

// MatchUndoHandler executes an undo request.
func MatchUndoHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchHistoryInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchHistoryInput) (*mcp.CallToolResult, MatchResult, error) {
		view, err := svc.Update(ctx, input.MatchID, "undo", func(match *engine.Engine) error {
			if !match.Undo(countOrOne(input.Count)) {
				return errNothingToUndo
			}
			return nil
		})
		return matchReply(view, err, locale)
	}
}

// MatchRedoTool defines the MCP tool schema for redo.
func MatchRedoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_redo",
		Description: "Redoes entries removed by undo. Any new entry clears the redo stack.",
	}
}

// MatchRedoHandler executes a redo request.
func MatchRedoHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchHistoryInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchHistoryInput) (*mcp.CallToolResult, MatchResult, error) {
		view, err := svc.Update(ctx, input.MatchID, "redo", func(match *engine.Engine) error {
			if !match.Redo(countOrOne(input.Count)) {
				return errNothingToRedo
			}
			return nil
		})
		return matchReply(view, err, locale)
	}
}

// MatchScoreInput represents the MCP tool input for reading a score.
type MatchScoreInput struct {
	MatchID     string `json:"match_id" jsonschema:"match identifier"`
	Perspective int    `json:"perspective,omitempty" jsonschema:"2 renders the scoreboard from side 2"`
}

// MatchScoreTool defines the MCP tool schema for reading a score.
func MatchScoreTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_score",
		Description: "Returns the score, status and scoreboard of a match.",
	}
}

// MatchScoreHandler executes a score request.
func MatchScoreHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchScoreInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchScoreInput) (*mcp.CallToolResult, MatchResult, error) {
		view, err := svc.View(ctx, input.MatchID, input.Perspective)
		return matchReply(view, err, locale)
	}
}

// MatchListInput represents the MCP tool input for listing matches.
type MatchListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum matches to return; defaults to 50"`
}

// MatchSummaryResult is one listed match.
type MatchSummaryResult struct {
	MatchID    string `json:"match_id" jsonschema:"match identifier"`
	Format     string `json:"format" jsonschema:"canonical match format code"`
	Status     string `json:"status" jsonschema:"match status"`
	Scoreboard string `json:"scoreboard" jsonschema:"score at the last update"`
	UpdatedAt  string `json:"updated_at" jsonschema:"RFC 3339 time of the last update"`
}

// MatchListResult represents the stored matches.
type MatchListResult struct {
	Matches []MatchSummaryResult `json:"matches" jsonschema:"matches, most recently updated first"`
}

// MatchListTool defines the MCP tool schema for listing matches.
func MatchListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_list",
		Description: "Lists stored matches, most recently updated first.",
	}
}

// MatchListHandler executes a list request.
func MatchListHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchListInput, MatchListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchListInput) (*mcp.CallToolResult, MatchListResult, error) {
		summaries, err := svc.List(ctx, input.Limit)
		if err != nil {
			return nil, MatchListResult{}, toolError(err, locale)
		}
		result := MatchListResult{Matches: make([]MatchSummaryResult, 0, len(summaries))}
		for _, summary := range summaries {
			result.Matches = append(result.Matches, MatchSummaryResult{
				MatchID:    summary.MatchID,
				Format:     summary.Format,
				Status:     summary.Status,
				Scoreboard: summary.Scoreboard,
				UpdatedAt:  summary.UpdatedAt.UTC().Format(time.RFC3339),
			})
		}
		return nil, result, nil
	}
}

// MatchLineupInput represents the MCP tool input for setting a roster.
type MatchLineupInput struct {
	MatchID        string   `json:"match_id" jsonschema:"match identifier"`
	Side           int      `json:"side" jsonschema:"side number, 1 or 2"`
	ParticipantIDs []string `json:"participant_ids" jsonschema:"one participant for singles, two for doubles"`
}

// MatchLineupTool defines the MCP tool schema for setting a roster.
func MatchLineupTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_lineup",
		Description: "Sets the active participants of one side.",
	}
}

// MatchLineupHandler executes a lineup request.
func MatchLineupHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchLineupInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchLineupInput) (*mcp.CallToolResult, MatchResult, error) {
		view, err := svc.Update(ctx, input.MatchID, "lineup", func(match *engine.Engine) error {
			return match.SetLineUp(input.Side, input.ParticipantIDs)
		})
		return matchReply(view, err, locale)
	}
}

// MatchSubstituteInput represents the MCP tool input for a substitution.
type MatchSubstituteInput struct {
	MatchID          string `json:"match_id" jsonschema:"match identifier"`
	Side             int    `json:"side" jsonschema:"side number, 1 or 2"`
	OutParticipantID string `json:"out_participant_id" jsonschema:"active participant leaving"`
	InParticipantID  string `json:"in_participant_id" jsonschema:"participant coming in"`
}

// MatchSubstituteTool defines the MCP tool schema for a substitution.
func MatchSubstituteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_substitute",
		Description: "Replaces an active participant from the next point on. Does nothing when no lineup is set.",
	}
}

// MatchSubstituteHandler executes a substitution request.
func MatchSubstituteHandler(svc *MatchService, locale string) mcp.ToolHandlerFor[MatchSubstituteInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchSubstituteInput) (*mcp.CallToolResult, MatchResult, error) {
		view, err := svc.Update(ctx, input.MatchID, "substitute", func(match *engine.Engine) error {
			return match.Substitute(lineup.Substitution{
				SideNumber:       input.Side,
				OutParticipantID: input.OutParticipantID,
				InParticipantID:  input.InParticipantID,
			})
		})
		return matchReply(view, err, locale)
	}
}

func countOrOne(count int) int {
	if count <= 0 {
		return 1
	}
	return count
}

func matchReply(view MatchView, err error, locale string) (*mcp.CallToolResult, MatchResult, error) {
	if err != nil {
		return nil, MatchResult{}, toolError(err, locale)
	}
	return nil, MatchResult{
		MatchID:     view.MatchID,
		Format:      view.Format,
		Status:      view.Status,
		WinningSide: view.WinningSide,
		Scoreboard:  view.Scoreboard,
		Score:       view.Score,
		Points:      view.Points,
		Doubles:     view.Doubles,
		CanUndo:     view.CanUndo,
		CanRedo:     view.CanRedo,
	}, nil
}
