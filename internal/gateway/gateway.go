// Package gateway defines the External-System Gateway: the thin boundary
// the core uses to talk to the manufacturing API that actually owns
// sales orders, production orders, and phases.
package gateway

import (
	"context"
	"time"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
)

// SalesOrderUpdate is a partial update; nil fields are left untouched.
type SalesOrderUpdate struct {
	Priority *int
	Quantity *int
	Notes    *string
	Status   *string
}

// CreateProductionOrderInput is the payload for creating a draft PO.
type CreateProductionOrderInput struct {
	SalesOrderID string
	ProductID    string
	Quantity     int
	StartsAt     time.Time
	EndsAt       time.Time
}

// Gateway is every operation the core needs from the manufacturing
// system-of-record (spec §6). Implementations must translate transport
// failures into domain.GatewayError so callers can apply the retry and
// auth-refresh policy uniformly.
type Gateway interface {
	ListSalesOrders(ctx context.Context, status string) ([]domain.SalesOrder, error)
	ListProductionOrders(ctx context.Context) ([]domain.ProductionOrder, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	UpdateSalesOrder(ctx context.Context, id string, update SalesOrderUpdate) error
	CreateProductionOrder(ctx context.Context, in CreateProductionOrderInput) (domain.ProductionOrder, error)
	ScheduleProductionOrder(ctx context.Context, poID string) ([]domain.ProductionPhase, error)
	UpdatePhaseWindow(ctx context.Context, phaseID string, start, end time.Time) error
	UpdatePOWindow(ctx context.Context, poID string, start, end time.Time) error
	ConfirmProductionOrder(ctx context.Context, poID string) error
	DeleteProductionOrder(ctx context.Context, poID string) error
}
