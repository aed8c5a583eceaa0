package orchestrator

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bitfantasy/novaboard-scheduler/internal/aiadvisor"
	"github.com/bitfantasy/novaboard-scheduler/internal/clock"
	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/store"
	"github.com/bitfantasy/novaboard-scheduler/internal/testutil"
)

func pcbInd100() domain.Product {
	return domain.Product{
		ID:   "PCB-IND-100",
		Name: "Industrial PCB 100",
		BOM: []domain.BOMPhase{
			{Sequence: 1, PhaseType: domain.PhaseSMT, DurationPerUnit: 30},
			{Sequence: 2, PhaseType: domain.PhaseReflow, DurationPerUnit: 15},
			{Sequence: 3, PhaseType: domain.PhaseTHT, DurationPerUnit: 45},
			{Sequence: 4, PhaseType: domain.PhaseAOI, DurationPerUnit: 12},
			{Sequence: 5, PhaseType: domain.PhaseTest, DurationPerUnit: 30},
			{Sequence: 6, PhaseType: domain.PhaseCoating, DurationPerUnit: 9},
			{Sequence: 7, PhaseType: domain.PhasePack, DurationPerUnit: 6},
		},
	}
}

func newTestOrchestrator(t *testing.T, gw *fakeGateway, advisor Advisor) *Orchestrator {
	db := testutil.SetupTestDB(t)
	return New(gw, clock.NewDefault(), advisor, fakeRenderer{}, store.New(db), zap.NewNop())
}

func seedSalesOrder(gw *fakeGateway, id string, deadline time.Time) {
	gw.sos[id] = domain.SalesOrder{
		ID:        id,
		ProductID: "PCB-IND-100",
		Quantity:  2,
		Deadline:  deadline,
		Priority:  3,
		Status:    domain.SOStatusAccepted,
	}
}

func TestComputeProposalCreatesAScheduleAndTracksPOs(t *testing.T) {
	gw := newFakeGateway()
	gw.products["PCB-IND-100"] = pcbInd100()
	seedSalesOrder(gw, "SO-001", time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))
	seedSalesOrder(gw, "SO-002", time.Date(2026, 3, 3, 16, 0, 0, 0, time.UTC))

	o := newTestOrchestrator(t, gw, &fakeAdvisor{})
	ctx := context.Background()

	proposal, err := o.ComputeProposal(ctx, domain.PolicyEDF, nil)
	if err != nil {
		t.Fatalf("ComputeProposal returned error: %v", err)
	}
	if len(proposal.Schedule.Entries) != 2 {
		t.Fatalf("expected 2 schedule entries, got %d", len(proposal.Schedule.Entries))
	}
	if len(gw.pos) != 2 {
		t.Fatalf("expected 2 production orders created in the gateway, got %d", len(gw.pos))
	}

	links, err := o.st.TrackingForProposal(ctx, proposal.Schedule.ID)
	if err != nil {
		t.Fatalf("TrackingForProposal returned error: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 tracked SO->PO links, got %d", len(links))
	}
}

func TestApproveConfirmsPOsAndIsIdempotent(t *testing.T) {
	gw := newFakeGateway()
	gw.products["PCB-IND-100"] = pcbInd100()
	seedSalesOrder(gw, "SO-001", time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))

	o := newTestOrchestrator(t, gw, &fakeAdvisor{})
	ctx := context.Background()

	proposal, err := o.ComputeProposal(ctx, domain.PolicyEDF, nil)
	if err != nil {
		t.Fatalf("ComputeProposal returned error: %v", err)
	}

	if err := o.Approve(ctx, proposal.Schedule.ID); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	for _, po := range gw.pos {
		if po.Status != domain.POStatusReady {
			t.Fatalf("expected PO %s to be confirmed ready, got %s", po.ID, po.Status)
		}
	}

	// Idempotent: calling Approve again must not error.
	if err := o.Approve(ctx, proposal.Schedule.ID); err != nil {
		t.Fatalf("second Approve call returned error: %v", err)
	}
}

func TestRejectDeletesCreatedPOsAndTracking(t *testing.T) {
	gw := newFakeGateway()
	gw.products["PCB-IND-100"] = pcbInd100()
	seedSalesOrder(gw, "SO-001", time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))

	o := newTestOrchestrator(t, gw, &fakeAdvisor{})
	ctx := context.Background()

	proposal, err := o.ComputeProposal(ctx, domain.PolicyEDF, nil)
	if err != nil {
		t.Fatalf("ComputeProposal returned error: %v", err)
	}

	if err := o.Reject(ctx, proposal.Schedule.ID); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if len(gw.pos) != 0 {
		t.Fatalf("expected all POs deleted after reject, got %d remaining", len(gw.pos))
	}

	links, err := o.st.TrackingForProposal(ctx, proposal.Schedule.ID)
	if err != nil {
		t.Fatalf("TrackingForProposal returned error: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no tracking links after reject, got %d", len(links))
	}
}

func TestReviseFallsBackToEDFWhenAdvisorFails(t *testing.T) {
	gw := newFakeGateway()
	gw.products["PCB-IND-100"] = pcbInd100()
	seedSalesOrder(gw, "SO-001", time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))

	o := newTestOrchestrator(t, gw, &fakeAdvisor{err: context.DeadlineExceeded})
	ctx := context.Background()

	first, err := o.ComputeProposal(ctx, domain.PolicyEDF, nil)
	if err != nil {
		t.Fatalf("ComputeProposal returned error: %v", err)
	}

	revised, err := o.Revise(ctx, first.Schedule.ID, "prioritise SO-001")
	if err != nil {
		t.Fatalf("Revise returned error: %v", err)
	}
	if revised.AIAssisted {
		t.Fatalf("expected a fallback EDF proposal to not be marked AI-assisted")
	}
}

func TestReviseAppliesAdvisorPriorityUpdates(t *testing.T) {
	gw := newFakeGateway()
	gw.products["PCB-IND-100"] = pcbInd100()
	// SO-001's deadline is earlier, so EDF alone would order it first.
	// The hint asks for SO-002 first instead; that ordering must survive
	// into the final schedule rather than being re-sorted away.
	seedSalesOrder(gw, "SO-001", time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))
	seedSalesOrder(gw, "SO-002", time.Date(2026, 3, 4, 16, 0, 0, 0, time.UTC))

	hint := &aiadvisor.Hint{
		OrderedSalesOrderIDs: []string{"SO-002", "SO-001"},
		PriorityUpdates:      map[string]int{"SO-002": 1},
		Explanation:          "rush SO-002",
	}
	o := newTestOrchestrator(t, gw, &fakeAdvisor{hint: hint})
	ctx := context.Background()

	first, err := o.ComputeProposal(ctx, domain.PolicyEDF, nil)
	if err != nil {
		t.Fatalf("ComputeProposal returned error: %v", err)
	}

	revised, err := o.Revise(ctx, first.Schedule.ID, "prioritise SO-002")
	if err != nil {
		t.Fatalf("Revise returned error: %v", err)
	}
	if !revised.AIAssisted {
		t.Fatalf("expected the revised proposal to be marked AI-assisted")
	}
	if gw.sos["SO-002"].Priority != 1 {
		t.Fatalf("expected SO-002's priority to be updated to 1, got %d", gw.sos["SO-002"].Priority)
	}
	if len(revised.Schedule.Entries) != 2 || revised.Schedule.Entries[0].SalesOrderID != "SO-002" {
		t.Fatalf("expected the hinted ordering (SO-002 first) to survive into the schedule, got entries %+v", revised.Schedule.Entries)
	}
}
