package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bitfantasy/novaboard-scheduler/internal/aiadvisor"
	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/gateway"
)

// fakeGateway is an in-memory stand-in for the manufacturing
// system-of-record, used so Orchestrator tests never reach the network.
type fakeGateway struct {
	sos      map[string]domain.SalesOrder
	products map[string]domain.Product
	pos      map[string]domain.ProductionOrder
	phases   map[string][]domain.ProductionPhase
	deleted  []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sos:      map[string]domain.SalesOrder{},
		products: map[string]domain.Product{},
		pos:      map[string]domain.ProductionOrder{},
		phases:   map[string][]domain.ProductionPhase{},
	}
}

func (g *fakeGateway) ListSalesOrders(ctx context.Context, status string) ([]domain.SalesOrder, error) {
	var out []domain.SalesOrder
	for _, so := range g.sos {
		if so.Status == status {
			out = append(out, so)
		}
	}
	return out, nil
}

func (g *fakeGateway) ListProductionOrders(ctx context.Context) ([]domain.ProductionOrder, error) {
	out := make([]domain.ProductionOrder, 0, len(g.pos))
	for _, po := range g.pos {
		out = append(out, po)
	}
	return out, nil
}

func (g *fakeGateway) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	p, ok := g.products[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf("unknown product %s", productID)
	}
	return p, nil
}

func (g *fakeGateway) UpdateSalesOrder(ctx context.Context, id string, update gateway.SalesOrderUpdate) error {
	so, ok := g.sos[id]
	if !ok {
		return fmt.Errorf("unknown sales order %s", id)
	}
	if update.Priority != nil {
		so.Priority = *update.Priority
	}
	if update.Status != nil {
		so.Status = *update.Status
	}
	g.sos[id] = so
	return nil
}

func (g *fakeGateway) CreateProductionOrder(ctx context.Context, in gateway.CreateProductionOrderInput) (domain.ProductionOrder, error) {
	po := domain.ProductionOrder{
		ID:           uuid.New().String()[:32],
		SalesOrderID: in.SalesOrderID,
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
		PlannedStart: in.StartsAt,
		PlannedEnd:   in.EndsAt,
		Status:       domain.POStatusDraft,
	}
	g.pos[po.ID] = po
	return po, nil
}

func (g *fakeGateway) ScheduleProductionOrder(ctx context.Context, poID string) ([]domain.ProductionPhase, error) {
	po, ok := g.pos[poID]
	if !ok {
		return nil, fmt.Errorf("unknown PO %s", poID)
	}
	product := g.products[po.ProductID]
	phases := make([]domain.ProductionPhase, 0, len(product.BOM))
	for _, bp := range product.BOM {
		phases = append(phases, domain.ProductionPhase{
			ID:                uuid.New().String()[:32],
			ProductionOrderID: poID,
			Sequence:          bp.Sequence,
			PhaseType:         bp.PhaseType,
			Status:            domain.PhaseStatusNotReady,
		})
	}
	g.phases[poID] = phases
	return phases, nil
}

func (g *fakeGateway) UpdatePhaseWindow(ctx context.Context, phaseID string, start, end time.Time) error {
	return nil
}

func (g *fakeGateway) UpdatePOWindow(ctx context.Context, poID string, start, end time.Time) error {
	po, ok := g.pos[poID]
	if !ok {
		return fmt.Errorf("unknown PO %s", poID)
	}
	po.PlannedStart = start
	po.PlannedEnd = end
	g.pos[poID] = po
	return nil
}

func (g *fakeGateway) ConfirmProductionOrder(ctx context.Context, poID string) error {
	po, ok := g.pos[poID]
	if !ok {
		return fmt.Errorf("unknown PO %s", poID)
	}
	po.Status = domain.POStatusReady
	g.pos[poID] = po
	return nil
}

func (g *fakeGateway) DeleteProductionOrder(ctx context.Context, poID string) error {
	delete(g.pos, poID)
	delete(g.phases, poID)
	g.deleted = append(g.deleted, poID)
	return nil
}

// fakeAdvisor returns a canned hint or an error, controlled by the test.
type fakeAdvisor struct {
	hint *aiadvisor.Hint
	err  error
}

func (a *fakeAdvisor) Advise(ctx context.Context, req aiadvisor.Request) (*aiadvisor.Hint, error) {
	return a.hint, a.err
}

// fakeRenderer avoids exercising MinIO in unit tests.
type fakeRenderer struct{}

func (fakeRenderer) Upload(ctx context.Context, proposalID string, png []byte) (string, error) {
	return "gantt/" + proposalID + ".png", nil
}
