package mcp

import (
	"context"
	"fmt"
	"strconv"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"scenecraft/internal/chapter"
	"scenecraft/internal/event"
	"scenecraft/internal/parser"
	"scenecraft/internal/strategy"
)

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "append_events",
		Description: "Append extracted events to the chat; malformed events are rejected individually",
	}, s.handleAppendEvents)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "select_branch",
		Description: "Make a branch (swipe) the canonical one for a turn",
	}, s.handleSelectBranch)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_projection",
		Description: "Return the scene state as of a turn on the canonical path",
	}, s.handleGetProjection)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_chapters",
		Description: "List chapters with their narrative events",
	}, s.handleListChapters)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_milestones",
		Description: "List first occurrences of relationship subjects",
	}, s.handleListMilestones)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "should_run",
		Description: "Decide whether an extraction step runs on a turn",
	}, s.handleShouldRun)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "gate_status",
		Description: "Show the relationship status a proposed change would produce",
	}, s.handleGateStatus)
}

func (s *Server) handleAppendEvents(ctx context.Context, req *sdk.CallToolRequest, input AppendEventsInput) (*sdk.CallToolResult, AppendEventsOutput, error) {
	if len(input.Events) == 0 {
		return nil, AppendEventsOutput{}, fmt.Errorf("events are required")
	}

	output := AppendEventsOutput{
		Appended: make([]AppendedOutput, 0, len(input.Events)),
		Rejected: make([]RejectedOutput, 0),
	}

	// positions maps the decoded batch back to input indexes.
	var decoded []event.Event
	var positions []int
	for i, item := range input.Events {
		e, err := parser.DecodeItem(item)
		if err != nil {
			output.Rejected = append(output.Rejected, RejectedOutput{Index: i, Error: err.Error()})
			continue
		}
		decoded = append(decoded, e)
		positions = append(positions, i)
	}

	result, err := s.session.Append(ctx, decoded)
	if err != nil {
		return nil, AppendEventsOutput{}, err
	}
	for _, e := range result.Appended {
		output.Appended = append(output.Appended, appendedOutputFromEvent(e))
	}
	for _, rejected := range result.Errors {
		output.Rejected = append(output.Rejected, RejectedOutput{Index: positions[rejected.Index], Error: rejected.Err.Error()})
	}

	if input.DetectChapters {
		seen := map[event.Origin]bool{}
		for _, e := range result.Appended {
			if seen[e.Origin] {
				continue
			}
			seen[e.Origin] = true
			ended, err := s.session.CloseChapterIfNeeded(ctx, e.Origin)
			if err != nil {
				return nil, AppendEventsOutput{}, err
			}
			if ended != nil {
				output.ChaptersClosed = append(output.ChaptersClosed, appendedOutputFromEvent(*ended))
			}
		}
	}
	return nil, output, nil
}

func (s *Server) handleSelectBranch(ctx context.Context, req *sdk.CallToolRequest, input SelectBranchInput) (*sdk.CallToolResult, SelectBranchOutput, error) {
	if err := s.session.SelectBranch(ctx, input.Turn, input.Branch); err != nil {
		return nil, SelectBranchOutput{}, err
	}
	canonical := map[string]int{}
	for turn, branch := range s.session.CanonicalPath() {
		canonical[strconv.Itoa(turn)] = branch
	}
	return nil, SelectBranchOutput{Turn: input.Turn, Branch: input.Branch, Canonical: canonical}, nil
}

func (s *Server) handleGetProjection(ctx context.Context, req *sdk.CallToolRequest, input GetProjectionInput) (*sdk.CallToolResult, ProjectionOutput, error) {
	if input.Turn == nil {
		return nil, projectionOutputFromProjection(s.session.Current()), nil
	}
	if *input.Turn < 0 {
		return nil, ProjectionOutput{}, fmt.Errorf("turn must not be negative")
	}
	return nil, projectionOutputFromProjection(s.session.Projection(*input.Turn)), nil
}

func (s *Server) handleListChapters(ctx context.Context, req *sdk.CallToolRequest, input ListChaptersInput) (*sdk.CallToolResult, ListChaptersOutput, error) {
	chapters := s.session.Chapters()
	if input.ClosedOnly {
		chapters = chapter.Closed(chapters)
	}
	output := make([]ChapterOutput, 0, len(chapters))
	for _, c := range chapters {
		output = append(output, chapterOutputFromChapter(c))
	}
	return nil, ListChaptersOutput{Chapters: output}, nil
}

func (s *Server) handleListMilestones(ctx context.Context, req *sdk.CallToolRequest, input ListMilestonesInput) (*sdk.CallToolResult, ListMilestonesOutput, error) {
	var filter *event.Pair
	switch len(input.Pair) {
	case 0:
	case 2:
		pair := event.NewPair(input.Pair[0], input.Pair[1])
		if !pair.Valid() {
			return nil, ListMilestonesOutput{}, fmt.Errorf("pair must name two distinct characters")
		}
		filter = &pair
	default:
		return nil, ListMilestonesOutput{}, fmt.Errorf("pair must name exactly two characters")
	}

	milestones := s.session.Milestones()
	output := make([]MilestoneOutput, 0, len(milestones))
	for _, m := range milestones {
		if filter != nil && m.Pair != *filter {
			continue
		}
		output = append(output, milestoneOutputFromChapter(m))
	}
	return nil, ListMilestonesOutput{Milestones: output}, nil
}

func (s *Server) handleShouldRun(ctx context.Context, req *sdk.CallToolRequest, input ShouldRunInput) (*sdk.CallToolResult, ShouldRunOutput, error) {
	if input.Step == "" {
		return nil, ShouldRunOutput{}, fmt.Errorf("step is required")
	}
	role := strategy.Role(input.Role)
	if role == "" {
		role = strategy.RoleGenerated
	}
	if role != strategy.RoleHuman && role != strategy.RoleGenerated {
		return nil, ShouldRunOutput{}, fmt.Errorf("role must be %q or %q", strategy.RoleHuman, strategy.RoleGenerated)
	}

	st, _ := s.session.Strategy(input.Step)
	run, err := s.session.ShouldRun(input.Step, input.Turn, role)
	if err != nil {
		return nil, ShouldRunOutput{}, err
	}
	return nil, ShouldRunOutput{Step: input.Step, Turn: input.Turn, Strategy: string(st.Kind), Run: run}, nil
}

func (s *Server) handleGateStatus(ctx context.Context, req *sdk.CallToolRequest, input GateStatusInput) (*sdk.CallToolResult, GateStatusOutput, error) {
	pair := event.NewPair(input.A, input.B)
	if !pair.Valid() {
		return nil, GateStatusOutput{}, fmt.Errorf("a and b must name two distinct characters")
	}
	current, gated := s.session.GateStatus(input.A, input.B, input.Proposed)
	return nil, GateStatusOutput{
		Current:  string(current),
		Proposed: input.Proposed,
		Result:   string(gated),
		Changed:  gated != current,
	}, nil
}
