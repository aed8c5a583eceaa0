// Package conflict implements the Conflict Analyzer: per-order slack
// and lateness over a planned schedule.
package conflict

import (
	"time"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/phaseplanner"
)

// Entries converts planned orders (already carrying their own
// Planner-computed slack) into domain.ScheduleEntry records, pairing
// each with its assigned production order id.
func Entries(planned []phaseplanner.PlannedOrder, productionOrderIDs map[string]string) []domain.ScheduleEntry {
	entries := make([]domain.ScheduleEntry, 0, len(planned))
	for _, po := range planned {
		entries = append(entries, domain.ScheduleEntry{
			ProductionOrderID: productionOrderIDs[po.SalesOrderID],
			SalesOrderID:      po.SalesOrderID,
			Start:             po.Start,
			End:               po.End,
			SlackMinutes:      po.SlackMinutes,
			Late:              po.Late,
		})
	}
	return entries
}

// Analyze computes the ConflictSummary for a set of entries. It is a
// thin wrapper over domain.Summarize kept as its own package so callers
// reason about "the Conflict Analyzer" as a distinct pipeline stage.
func Analyze(entries []domain.ScheduleEntry) domain.ConflictSummary {
	return domain.Summarize(entries)
}

// GeneratedAt stamps the moment a schedule snapshot was produced. Kept
// here (rather than called inline with time.Now()) so orchestrator code
// and tests share one seam for the schedule's timestamp.
func GeneratedAt(now time.Time) time.Time {
	return now
}
