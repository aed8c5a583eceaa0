package domain

import "time"

// ProductionOrder status values.
const (
	POStatusDraft      = "DRAFT"
	POStatusScheduled  = "SCHEDULED"
	POStatusReady      = "READY"
	POStatusInProgress = "IN_PROGRESS"
	POStatusCompleted  = "COMPLETED"
	POStatusCancelled  = "CANCELLED"
)

// ProductionPhase status values.
const (
	PhaseStatusNotReady  = "NOT_READY"
	PhaseStatusReady     = "READY"
	PhaseStatusStarted   = "STARTED"
	PhaseStatusCompleted = "COMPLETED"
)

// ProductionOrder materialises one SalesOrder into an executable job on
// the single production line.
type ProductionOrder struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	SalesOrderID string    `json:"sales_order_id" gorm:"size:32;not null;index"`
	ProductID    string    `json:"product_id" gorm:"size:32;not null"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	PlannedStart time.Time `json:"planned_start"`
	PlannedEnd   time.Time `json:"planned_end"`
	Status       string    `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Phases []ProductionPhase `json:"phases,omitempty" gorm:"foreignKey:ProductionOrderID"`
}

func (ProductionOrder) TableName() string {
	return "scheduler_production_orders"
}

// ProductionPhase is one phase of a ProductionOrder's BOM chain.
type ProductionPhase struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	ProductionOrderID string    `json:"production_order_id" gorm:"size:32;not null;index"`
	Sequence          int       `json:"sequence" gorm:"not null"`
	PhaseType         PhaseType `json:"phase_type" gorm:"size:20;not null"`
	PlannedStart      time.Time `json:"planned_start"`
	PlannedEnd        time.Time `json:"planned_end"`
	Status            string    `json:"status" gorm:"size:20;not null;default:NOT_READY"`
}

func (ProductionPhase) TableName() string {
	return "scheduler_production_phases"
}
