package domain

import "time"

// SalesOrder status values.
const (
	SOStatusAccepted   = "ACCEPTED"
	SOStatusInProgress = "IN_PROGRESS"
	SOStatusCompleted  = "COMPLETED"
	SOStatusCancelled  = "CANCELLED"
)

// SalesOrder is a customer commitment: a product, a quantity, a deadline,
// and a priority. The core may update Priority and Status; everything
// else is owned by the system-of-record.
type SalesOrder struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	ProductID    string    `json:"product_id" gorm:"size:32;not null;index"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	Deadline     time.Time `json:"deadline" gorm:"not null;index"`
	Priority     int       `json:"priority" gorm:"not null;default:3"` // 1=highest
	CustomerName string    `json:"customer_name" gorm:"size:128"`
	CustomerRank int       `json:"customer_rank" gorm:"default:99"`
	Notes        string    `json:"notes" gorm:"type:text"`
	Status       string    `json:"status" gorm:"size:20;not null;default:ACCEPTED;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (SalesOrder) TableName() string {
	return "scheduler_sales_orders"
}

// ProductionMinutes returns quantity times the sum of every BOM phase's
// duration_per_unit, the processing-time figure the Policy Sorter's SJF
// and LJF keys rank on.
func (so SalesOrder) ProductionMinutes(p Product) int {
	return so.Quantity * p.TotalDurationPerUnit()
}
