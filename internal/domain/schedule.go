package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Schedule lifecycle states.
const (
	ScheduleStatusProposed  = "PROPOSED"
	ScheduleStatusApproved  = "APPROVED"
	ScheduleStatusRejected  = "REJECTED"
	ScheduleStatusSuperseded = "SUPERSEDED"
)

// ScheduleEntry is one production order's planned window plus the
// Conflict Analyzer's slack/lateness verdict for it.
type ScheduleEntry struct {
	ProductionOrderID string    `json:"production_order_id"`
	SalesOrderID       string    `json:"sales_order_id"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	SlackMinutes       int       `json:"slack_minutes"` // negative = late
	Late               bool      `json:"late"`
}

// Schedule is an immutable snapshot produced by one pipeline run.
//
// Entries and ConflictIDs are persisted as JSON columns (gorm.io/datatypes)
// rather than normalised child tables: a Schedule is written once and read
// whole, never queried phase-by-phase, so the JSON blob matches its access
// pattern.
type Schedule struct {
	ID          string                            `json:"id" gorm:"primaryKey;size:32"`
	GeneratedAt time.Time                          `json:"generated_at"`
	Policy      string                            `json:"policy" gorm:"size:20;not null"`
	Entries     datatypes.JSONSlice[ScheduleEntry] `json:"entries" gorm:"type:jsonb"`
	ConflictIDs datatypes.JSONSlice[string]        `json:"conflict_ids" gorm:"type:jsonb"`
	Status      string                            `json:"status" gorm:"size:20;not null;default:PROPOSED;index"`
	CreatedAt   time.Time                          `json:"created_at"`
	UpdatedAt   time.Time                          `json:"updated_at"`
}

func (Schedule) TableName() string {
	return "scheduler_schedules"
}

// ConflictSummary aggregates the Conflict Analyzer's per-entry verdicts
// into the figures the operator channel and dashboard surface.
type ConflictSummary struct {
	LateOrderIDs []string
	WorstSlack   int
	AverageSlack float64
	OnTimeCount  int
	Clean        bool
}

// Summarize computes a ConflictSummary over a Schedule's entries.
func Summarize(entries []ScheduleEntry) ConflictSummary {
	if len(entries) == 0 {
		return ConflictSummary{Clean: true}
	}
	summary := ConflictSummary{WorstSlack: entries[0].SlackMinutes}
	total := 0
	for _, e := range entries {
		total += e.SlackMinutes
		if e.SlackMinutes < summary.WorstSlack {
			summary.WorstSlack = e.SlackMinutes
		}
		if e.Late {
			summary.LateOrderIDs = append(summary.LateOrderIDs, e.SalesOrderID)
		} else {
			summary.OnTimeCount++
		}
	}
	summary.AverageSlack = float64(total) / float64(len(entries))
	summary.Clean = len(summary.LateOrderIDs) == 0
	return summary
}
