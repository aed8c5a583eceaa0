package ganttrenderer

import (
	"testing"
	"time"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/phaseplanner"
)

func TestRenderProducesAPNG(t *testing.T) {
	start := time.Date(2026, 8, 3, 8, 0, 0, 0, time.UTC)
	orders := []phaseplanner.PlannedOrder{
		{
			SalesOrderID: "SO-001",
			ProductID:    "PCB-IND-100",
			Start:        start,
			End:          start.Add(2 * time.Hour),
			Phases: []phaseplanner.PlannedPhase{
				{Sequence: 1, PhaseType: domain.PhaseSMT, Start: start, End: start.Add(1 * time.Hour)},
				{Sequence: 2, PhaseType: domain.PhaseReflow, Start: start.Add(1 * time.Hour), End: start.Add(2 * time.Hour)},
			},
			Late: false,
		},
		{
			SalesOrderID: "SO-002",
			ProductID:    "MED-300",
			Start:        start.Add(2 * time.Hour),
			End:          start.Add(5 * time.Hour),
			Phases: []phaseplanner.PlannedPhase{
				{Sequence: 1, PhaseType: domain.PhaseTest, Start: start.Add(2 * time.Hour), End: start.Add(5 * time.Hour)},
			},
			Late: true,
		},
	}

	png, err := Render(orders)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if len(png) < 8 {
		t.Fatalf("expected a non-trivial PNG payload, got %d bytes", len(png))
	}
	// PNG magic number.
	sig := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	for i, b := range sig {
		if png[i] != b {
			t.Fatalf("output does not start with the PNG signature at byte %d", i)
		}
	}
}

func TestRenderRejectsEmptyOrderSet(t *testing.T) {
	if _, err := Render(nil); err == nil {
		t.Fatalf("expected an error when rendering an empty order set")
	}
}
