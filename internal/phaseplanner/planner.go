// Package phaseplanner expands a sorted sequence of sales orders into
// per-phase, per-order schedule entries on the single production line.
package phaseplanner

import (
	"fmt"
	"time"

	"github.com/bitfantasy/novaboard-scheduler/internal/clock"
	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/policy"
)

// PlannedPhase is one phase of a PlannedOrder's BOM chain, dated.
type PlannedPhase struct {
	Sequence  int
	PhaseType domain.PhaseType
	Start     time.Time
	End       time.Time
}

// PlannedOrder is one sales order expanded into a dated phase chain.
type PlannedOrder struct {
	SalesOrderID string
	ProductID    string
	Quantity     int
	Start        time.Time
	End          time.Time
	Phases       []PlannedPhase
	SlackMinutes int // signed: negative = late
	Late         bool
}

// Planner walks a sorted order sequence through the Working-Hours Clock.
type Planner struct {
	clock *clock.Clock
}

func New(c *clock.Clock) *Planner {
	return &Planner{clock: c}
}

// Plan expands orders (already ordered by the Policy Sorter) starting at
// cursor, advancing the cursor sequentially across the single line. It is
// pure: it performs no I/O and does not mutate its inputs.
func (p *Planner) Plan(orders []policy.Order, cursor time.Time) ([]PlannedOrder, error) {
	cursor = p.clock.CeilToShift(cursor)
	planned := make([]PlannedOrder, 0, len(orders))

	for _, o := range orders {
		if len(o.Product.BOM) == 0 {
			return nil, &domain.PlanningError{
				SalesOrderID: o.SalesOrder.ID,
				Reason:       fmt.Sprintf("product %s has no BOM phases", o.Product.ID),
			}
		}

		phaseCursor := cursor
		phases := make([]PlannedPhase, 0, len(o.Product.BOM))
		for _, bomPhase := range o.Product.BOM {
			minutes := bomPhase.DurationPerUnit * o.SalesOrder.Quantity
			start := phaseCursor
			end := p.clock.AddWorkingMinutes(phaseCursor, minutes)
			phases = append(phases, PlannedPhase{
				Sequence:  bomPhase.Sequence,
				PhaseType: bomPhase.PhaseType,
				Start:     start,
				End:       end,
			})
			phaseCursor = end
		}

		orderStart := phases[0].Start
		orderEnd := phases[len(phases)-1].End
		// Signed slack: working_minutes_between(e_last, deadline);
		// negative means the deadline fell before completion (late).
		slack := p.clock.WorkingMinutesBetween(orderEnd, o.SalesOrder.Deadline)

		planned = append(planned, PlannedOrder{
			SalesOrderID: o.SalesOrder.ID,
			ProductID:    o.Product.ID,
			Quantity:     o.SalesOrder.Quantity,
			Start:        orderStart,
			End:          orderEnd,
			Phases:       phases,
			SlackMinutes: slack,
			Late:         slack < 0,
		})

		cursor = orderEnd
	}

	return planned, nil
}
