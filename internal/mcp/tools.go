package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

// Source supplies tracker data to the tools. *client.Client satisfies it.
type Source interface {
	Status(ctx context.Context) (tracker.PetState, error)
	Snapshot(ctx context.Context) (tracker.StatsSnapshot, error)
	History(ctx context.Context, days int) ([]tracker.DayRecord, error)
}

// PetStatusResult is the get_pet_status result.
type PetStatusResult struct {
	Health    int    `json:"health"`
	Happiness int    `json:"happiness"`
	Mood      string `json:"mood"`
}

// HistoryResult is the get_history result.
type HistoryResult struct {
	Days []tracker.DayRecord `json:"days"`
}

var (
	noArgsSchema  = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)
	historySchema = json.RawMessage(`{"type":"object","properties":{"days":{"type":"integer","minimum":1,"maximum":30,"description":"Number of days to return (default 7)"}},"additionalProperties":false}`)
)

// addTools registers all MCP tool handlers on s.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "get_pet_status",
		Description: "Current cat health and happiness (0-100) with a one-word mood.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetPetStatus,
	})
	s.registerTool(toolDef{
		Name:        "get_stats_snapshot",
		Description: "Today's productive, unproductive and neutral browsing time, top sites, and productivity score.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetStatsSnapshot,
	})
	s.registerTool(toolDef{
		Name:        "get_history",
		Description: "Per-day browsing totals and pet scores for the last N days, most recent first.",
		InputSchema: historySchema,
		Handler:     s.handleGetHistory,
	})
}

// Mood names the band health falls in.
func Mood(health float64) string {
	switch {
	case health >= 80:
		return "thriving"
	case health >= 50:
		return "content"
	case health >= 25:
		return "unwell"
	default:
		return "critical"
	}
}

func (s *Server) handleGetPetStatus(ctx context.Context, _ json.RawMessage) (any, error) {
	pet, err := s.src.Status(ctx)
	if err != nil {
		return nil, err
	}
	return PetStatusResult{
		Health:    int(math.Round(pet.Health)),
		Happiness: int(math.Round(pet.Happiness)),
		Mood:      Mood(pet.Health),
	}, nil
}

func (s *Server) handleGetStatsSnapshot(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.src.Snapshot(ctx)
}

func (s *Server) handleGetHistory(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Days *int `json:"days"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	days := tracker.DefaultHistoryDays
	if params.Days != nil {
		days = *params.Days
	}
	if days < 1 || days > tracker.MaxHistoryDays {
		return nil, fmt.Errorf("days must be between 1 and %d, got %d", tracker.MaxHistoryDays, days)
	}

	records, err := s.src.History(ctx, days)
	if err != nil {
		return nil, err
	}
	return HistoryResult{Days: records}, nil
}
