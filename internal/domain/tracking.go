package domain

import "time"

// POTracking is the persisted SO↔PO link the Orchestrator consults when
// resolving factory events and recovery actions (spec §4.6, §5). It
// survives process restart independently of the system-of-record.
type POTracking struct {
	SalesOrderID       string    `json:"sales_order_id" gorm:"primaryKey;size:32"`
	ProductionOrderID  string    `json:"production_order_id" gorm:"size:32;not null;index"`
	ProposalID         string    `json:"proposal_id" gorm:"primaryKey;size:32;not null;index"`
	CreatedAt          time.Time `json:"created_at"`
}

func (POTracking) TableName() string {
	return "scheduler_po_tracking"
}
