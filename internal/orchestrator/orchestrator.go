// Package orchestrator owns the schedule lifecycle: the single
// proposed-schedule slot, the SO↔PO tracking map, and the handful of
// operations (compute_proposal, approve, reject, revise, cancel_order,
// restart_order) that mutate them (spec §4.4, §5). Those operations are
// mutually exclusive end to end, so two concurrent triggers — the
// operator poller and the factory event listener, say — are totally
// ordered rather than racing each other onto the proposal slot. Within
// one operation, no long-lived I/O happens while the finer-grained state
// mutex is held; that pattern is always take-mutex/stage, release, call
// out, re-take/commit.
package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bitfantasy/novaboard-scheduler/internal/aiadvisor"
	"github.com/bitfantasy/novaboard-scheduler/internal/clock"
	"github.com/bitfantasy/novaboard-scheduler/internal/conflict"
	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/gateway"
	"github.com/bitfantasy/novaboard-scheduler/internal/ganttrenderer"
	"github.com/bitfantasy/novaboard-scheduler/internal/notifier"
	"github.com/bitfantasy/novaboard-scheduler/internal/phaseplanner"
	"github.com/bitfantasy/novaboard-scheduler/internal/policy"
	"github.com/bitfantasy/novaboard-scheduler/internal/store"
)

// Advisor is the subset of the AI Advisor boundary the Orchestrator
// calls; satisfied by *aiadvisor.Advisor.
type Advisor interface {
	Advise(ctx context.Context, req aiadvisor.Request) (*aiadvisor.Hint, error)
}

// Renderer is the subset of the Gantt renderer the Orchestrator calls.
type Renderer interface {
	Upload(ctx context.Context, proposalID string, png []byte) (string, error)
}

// Orchestrator is the single mutex-guarded aggregate this engine keeps
// in memory (plus what it persists through Store).
type Orchestrator struct {
	mu sync.Mutex

	// opMu serialises every proposal-producing operation end to end
	// (spec §5: compute_proposal/approve/reject/revise/cancel_order/
	// restart_order are "totally ordered"). mu alone only protects the
	// current-proposal field, not the whole operation, so two concurrent
	// callers could otherwise both observe no outstanding proposal and
	// both materialise a schedule. Held for the duration of the public
	// entry point; unexported *Locked helpers assume it is already held
	// so operations can call each other without deadlocking.
	opMu sync.Mutex

	gw       gateway.Gateway
	clk      *clock.Clock
	advisor  Advisor
	renderer Renderer
	st       *store.Store
	log      *zap.Logger

	current *domain.Proposal // the single outstanding (status=proposed) slot
}

func New(gw gateway.Gateway, clk *clock.Clock, advisor Advisor, renderer Renderer, st *store.Store, log *zap.Logger) *Orchestrator {
	return &Orchestrator{gw: gw, clk: clk, advisor: advisor, renderer: renderer, st: st, log: log}
}

// ComputeProposal is compute_proposal(policy, ai_hint?) from spec §4.4.
// aiHint is nil for a plain policy-driven recompute. It takes opMu for
// its entire duration so that it is totally ordered with every other
// proposal-producing operation (spec §5).
func (o *Orchestrator) ComputeProposal(ctx context.Context, pol domain.Policy, hint *aiadvisor.Hint) (*domain.Proposal, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	return o.computeProposal(ctx, pol, hint)
}

// computeProposal is ComputeProposal's body. Callers must already hold
// opMu; this lets the other operations call it directly instead of
// re-entering the exported, locking method.
func (o *Orchestrator) computeProposal(ctx context.Context, pol domain.Policy, hint *aiadvisor.Hint) (*domain.Proposal, error) {
	o.mu.Lock()
	outstanding := o.current
	o.mu.Unlock()

	if outstanding != nil {
		if err := o.reject(ctx, outstanding.Schedule.ID); err != nil {
			o.log.Warn("failed to reject outstanding proposal before recompute", zap.Error(err))
		}
	}

	sos, err := o.gw.ListSalesOrders(ctx, domain.SOStatusAccepted)
	if err != nil {
		return nil, err
	}

	orders, err := o.buildOrders(ctx, sos)
	if err != nil {
		return nil, err
	}

	// A hint's ordering is the final sequence, not a suggestion the
	// policy sorter gets to override: applyHint already places the
	// AI-ranked sales orders first (spec §4.4, §6). Re-running a policy
	// sort over that output would throw the hint away whenever deadlines
	// disagree with the hint.
	var sorted []policy.Order
	if hint != nil {
		sorted = applyHint(orders, *hint)
	} else {
		sorted = policy.Sort(orders, pol, time.Now())
	}

	planner := phaseplanner.New(o.clk)
	planned, err := planner.Plan(sorted, o.clk.CeilToShift(time.Now()))
	if err != nil {
		return nil, err
	}

	created, poIDs, err := o.materialize(ctx, planned)
	if err != nil {
		o.cleanup(ctx, created)
		return nil, err
	}

	entries := conflict.Entries(planned, poIDs)
	summary := conflict.Analyze(entries)

	sched := &domain.Schedule{
		ID:          uuid.New().String()[:32],
		GeneratedAt: conflict.GeneratedAt(time.Now()),
		Policy:      string(pol),
		Entries:     store.EntriesColumn(entries),
		ConflictIDs: store.ConflictIDsColumn(summary.LateOrderIDs),
		Status:      domain.ScheduleStatusProposed,
	}
	if err := o.st.SaveSchedule(ctx, sched); err != nil {
		o.cleanup(ctx, created)
		return nil, err
	}
	if err := o.st.ReplaceTracking(ctx, sched.ID, poIDs); err != nil {
		o.cleanup(ctx, created)
		return nil, err
	}

	var ganttKey string
	if png, err := ganttrenderer.Render(planned); err == nil {
		if key, uploadErr := o.renderer.Upload(ctx, sched.ID, png); uploadErr == nil {
			ganttKey = key
		} else {
			o.log.Warn("failed to upload gantt chart", zap.Error(uploadErr))
		}
	} else {
		o.log.Warn("failed to render gantt chart", zap.Error(err))
	}

	proposal := &domain.Proposal{
		Schedule:    *sched,
		Summary:     notifier.ScheduleProposedMessage(pol, summary),
		GanttKey:    ganttKey,
		AIAssisted:  hint != nil,
		CreatedPOID: poIDKeys(poIDs),
	}
	if hint != nil {
		proposal.AINote = hint.Explanation
	}

	o.mu.Lock()
	o.current = proposal
	o.mu.Unlock()

	return proposal, nil
}

// Approve is approve(proposal_id): confirms every PO, marks the proposal
// approved, and supersedes whatever was approved before it. Idempotent.
// Takes opMu for its entire duration (spec §5).
func (o *Orchestrator) Approve(ctx context.Context, proposalID string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	return o.approve(ctx, proposalID)
}

func (o *Orchestrator) approve(ctx context.Context, proposalID string) error {
	o.mu.Lock()
	cur := o.current
	o.mu.Unlock()

	if cur == nil || cur.Schedule.ID != proposalID {
		sched, err := o.st.GetSchedule(ctx, proposalID)
		if err != nil {
			return err
		}
		if sched.Status == domain.ScheduleStatusApproved {
			return nil // already approved; idempotent
		}
	}

	links, err := o.st.TrackingForProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	for _, poID := range links {
		if err := o.gw.ConfirmProductionOrder(ctx, poID); err != nil {
			return err
		}
	}

	if err := o.st.SupersedeApproved(ctx); err != nil {
		return err
	}
	if err := o.st.UpdateScheduleStatus(ctx, proposalID, domain.ScheduleStatusApproved); err != nil {
		return err
	}

	o.mu.Lock()
	if o.current != nil && o.current.Schedule.ID == proposalID {
		o.current = nil
	}
	o.mu.Unlock()

	return nil
}

// Reject is reject(proposal_id): deletes every PO the proposal created
// and marks it rejected, leaving no partial state. Takes opMu for its
// entire duration (spec §5).
func (o *Orchestrator) Reject(ctx context.Context, proposalID string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	return o.reject(ctx, proposalID)
}

func (o *Orchestrator) reject(ctx context.Context, proposalID string) error {
	links, err := o.st.TrackingForProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	for _, poID := range links {
		if err := o.gw.DeleteProductionOrder(ctx, poID); err != nil {
			o.log.Warn("failed to delete PO during reject", zap.String("po_id", poID), zap.Error(err))
		}
	}
	if err := o.st.DeleteTrackingForProposal(ctx, proposalID); err != nil {
		return err
	}
	if err := o.st.UpdateScheduleStatus(ctx, proposalID, domain.ScheduleStatusRejected); err != nil {
		return err
	}

	o.mu.Lock()
	if o.current != nil && o.current.Schedule.ID == proposalID {
		o.current = nil
	}
	o.mu.Unlock()

	return nil
}

// Revise is revise(proposal_id, operator_text): reject the current
// proposal, ask the AI Advisor for a reordering, apply any priority
// updates, and recompute. Falls back to pure EDF if the advisor fails.
// Takes opMu for its entire duration (spec §5).
func (o *Orchestrator) Revise(ctx context.Context, proposalID, operatorText string) (*domain.Proposal, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	return o.revise(ctx, proposalID, operatorText)
}

func (o *Orchestrator) revise(ctx context.Context, proposalID, operatorText string) (*domain.Proposal, error) {
	// Fetched before the reject below changes its status, so the
	// advisor sees the schedule as the operator was actually looking
	// at it (spec §6: the request carries "the current Schedule
	// snapshot").
	curSched, err := o.st.GetSchedule(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	if err := o.reject(ctx, proposalID); err != nil {
		return nil, err
	}

	sos, err := o.gw.ListSalesOrders(ctx, domain.SOStatusAccepted)
	if err != nil {
		return nil, err
	}
	orders, err := o.buildOrders(ctx, sos)
	if err != nil {
		return nil, err
	}
	baseline := policy.Sort(orders, domain.PolicyEDF, time.Now())
	edfIDs := make([]string, len(baseline))
	for i, ord := range baseline {
		edfIDs[i] = ord.SalesOrder.ID
	}

	adviseCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	hint, err := o.advisor.Advise(adviseCtx, aiadvisor.Request{
		OperatorText:    operatorText,
		CurrentSchedule: *curSched,
		PendingOrders:   sos,
		EDFBaseline:     edfIDs,
	})
	if err != nil {
		o.log.Warn("AI advisor failed, falling back to pure EDF", zap.Error(err))
		return o.computeProposal(ctx, domain.PolicyEDF, nil)
	}

	for soID, newPriority := range hint.PriorityUpdates {
		p := newPriority
		if err := o.gw.UpdateSalesOrder(ctx, soID, gateway.SalesOrderUpdate{Priority: &p}); err != nil {
			o.log.Warn("failed to apply AI priority update", zap.String("so_id", soID), zap.Error(err))
		}
	}

	return o.computeProposal(ctx, domain.PolicyEDF, hint)
}

// CancelOrder implements the cancel_order recovery action (spec §4.6):
// mark the SO cancelled and recompute from the remaining accepted SOs.
// Takes opMu for its entire duration (spec §5).
func (o *Orchestrator) CancelOrder(ctx context.Context, soID string) (*domain.Proposal, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	status := domain.SOStatusCancelled
	if err := o.gw.UpdateSalesOrder(ctx, soID, gateway.SalesOrderUpdate{Status: &status}); err != nil {
		return nil, err
	}
	return o.computeProposal(ctx, domain.PolicyEDF, nil)
}

// RestartOrder implements the restart_order recovery action: the SO is
// left intact, its failed PO is deleted, and a fresh proposal is
// computed that will create it a new PO. Takes opMu for its entire
// duration (spec §5).
func (o *Orchestrator) RestartOrder(ctx context.Context, soID, poID string) (*domain.Proposal, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if err := o.gw.DeleteProductionOrder(ctx, poID); err != nil {
		o.log.Warn("failed to delete failed PO during restart", zap.String("po_id", poID), zap.Error(err))
	}
	return o.computeProposal(ctx, domain.PolicyEDF, nil)
}

func (o *Orchestrator) buildOrders(ctx context.Context, sos []domain.SalesOrder) ([]policy.Order, error) {
	orders := make([]policy.Order, 0, len(sos))
	seen := make(map[string]domain.Product)
	for _, so := range sos {
		product, ok := seen[so.ProductID]
		if !ok {
			p, err := o.gw.GetProduct(ctx, so.ProductID)
			if err != nil {
				return nil, err
			}
			product = p
			seen[so.ProductID] = p
		}
		orders = append(orders, policy.Order{SalesOrder: so, Product: product})
	}
	return orders, nil
}

// materialize creates and schedules one PO per planned order, returning
// every PO id created (for cleanup on failure) and the SO→PO map.
func (o *Orchestrator) materialize(ctx context.Context, planned []phaseplanner.PlannedOrder) ([]string, map[string]string, error) {
	created := make([]string, 0, len(planned))
	poIDs := make(map[string]string, len(planned))

	for _, p := range planned {
		po, err := o.gw.CreateProductionOrder(ctx, gateway.CreateProductionOrderInput{
			SalesOrderID: p.SalesOrderID,
			ProductID:    p.ProductID,
			Quantity:     p.Quantity,
			StartsAt:     p.Start,
			EndsAt:       p.End,
		})
		if err != nil {
			return created, poIDs, err
		}
		created = append(created, po.ID)
		poIDs[p.SalesOrderID] = po.ID

		phases, err := o.gw.ScheduleProductionOrder(ctx, po.ID)
		if err != nil {
			return created, poIDs, err
		}
		for i, ph := range phases {
			if i >= len(p.Phases) {
				break
			}
			if err := o.gw.UpdatePhaseWindow(ctx, ph.ID, p.Phases[i].Start, p.Phases[i].End); err != nil {
				return created, poIDs, err
			}
		}
		if err := o.gw.UpdatePOWindow(ctx, po.ID, p.Start, p.End); err != nil {
			return created, poIDs, err
		}
	}

	return created, poIDs, nil
}

// cleanup is the best-effort PO teardown required when compute_proposal
// fails partway through (spec §4.4, invariant 8).
func (o *Orchestrator) cleanup(ctx context.Context, createdPOIDs []string) {
	for _, poID := range createdPOIDs {
		if err := o.gw.DeleteProductionOrder(ctx, poID); err != nil {
			o.log.Warn("cleanup failed to delete PO", zap.String("po_id", poID), zap.Error(err))
		}
	}
}

// applyHint folds the AI Advisor's suggestion into the order set and is
// itself the final ordering when a hint is present: priority updates are
// written onto each order, and orders named in the hint's permutation
// are pulled to the front in that order; everything else keeps its
// relative position after them.
func applyHint(orders []policy.Order, hint aiadvisor.Hint) []policy.Order {
	rank := make(map[string]int, len(hint.OrderedSalesOrderIDs))
	for i, id := range hint.OrderedSalesOrderIDs {
		rank[id] = i
	}

	out := make([]policy.Order, len(orders))
	copy(out, orders)
	for i := range out {
		if pri, ok := hint.PriorityUpdates[out[i].SalesOrder.ID]; ok {
			out[i].SalesOrder.Priority = pri
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i].SalesOrder.ID]
		rj, jok := rank[out[j].SalesOrder.ID]
		if iok && jok {
			return ri < rj
		}
		if iok != jok {
			return iok // hinted orders sort before un-hinted ones
		}
		return false
	})
	return out
}

func poIDKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
