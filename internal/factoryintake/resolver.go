// Package factoryintake implements the factory-failure HTTP endpoint
// (spec §4.6): resolving an inbound failure report to the currently
// executing production order and pushing a notification with the two
// recovery actions an operator can take.
package factoryintake

import (
	"context"
	"time"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/gateway"
)

// resolveExecutingPO implements the matching rule:
//  1. an explicit po_id is honoured if it refers to a currently tracked
//     PO in state ready or in_progress;
//  2. otherwise, the single PO in state in_progress;
//  3. otherwise, the PO whose planned window contains now;
//  4. otherwise, the earliest-starting PO in state ready;
//  5. otherwise, unresolved.
func resolveExecutingPO(pos []domain.ProductionOrder, explicitPOID string, now time.Time) (domain.ProductionOrder, error) {
	if explicitPOID != "" {
		for _, po := range pos {
			if po.ID == explicitPOID && (po.Status == domain.POStatusReady || po.Status == domain.POStatusInProgress) {
				return po, nil
			}
		}
	}

	for _, po := range pos {
		if po.Status == domain.POStatusInProgress {
			return po, nil
		}
	}

	for _, po := range pos {
		if !now.Before(po.PlannedStart) && now.Before(po.PlannedEnd) {
			return po, nil
		}
	}

	var earliest *domain.ProductionOrder
	for i := range pos {
		po := &pos[i]
		if po.Status != domain.POStatusReady {
			continue
		}
		if earliest == nil || po.PlannedStart.Before(earliest.PlannedStart) {
			earliest = po
		}
	}
	if earliest != nil {
		return *earliest, nil
	}

	return domain.ProductionOrder{}, &domain.ResolutionError{Reason: "no production order is currently executing or ready"}
}

// tracker is the subset of Store factoryintake needs to map a resolved
// PO back to its owning sales order.
type tracker interface {
	SalesOrderForProductionOrder(ctx context.Context, poID string) (string, bool, error)
}

// resolve finds the executing PO and its linked SO id.
func resolve(ctx context.Context, gw gateway.Gateway, tr tracker, explicitPOID string, now time.Time) (domain.ProductionOrder, string, error) {
	pos, err := gw.ListProductionOrders(ctx)
	if err != nil {
		return domain.ProductionOrder{}, "", err
	}

	po, err := resolveExecutingPO(pos, explicitPOID, now)
	if err != nil {
		return domain.ProductionOrder{}, "", err
	}

	soID, ok, err := tr.SalesOrderForProductionOrder(ctx, po.ID)
	if err != nil {
		return domain.ProductionOrder{}, "", err
	}
	if !ok {
		soID = po.SalesOrderID
	}
	return po, soID, nil
}
