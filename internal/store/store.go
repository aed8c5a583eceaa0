// Package store persists the scheduling engine's own state: the schedule
// history and the SO↔PO tracking map. Everything else — sales orders,
// production orders, phases — is owned by the manufacturing
// system-of-record and reached only through internal/gateway.
package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SaveSchedule inserts a new schedule snapshot.
func (s *Store) SaveSchedule(ctx context.Context, sched *domain.Schedule) error {
	if err := s.db.WithContext(ctx).Create(sched).Error; err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	return nil
}

// UpdateScheduleStatus transitions a schedule's status in place.
func (s *Store) UpdateScheduleStatus(ctx context.Context, id, status string) error {
	err := s.db.WithContext(ctx).Model(&domain.Schedule{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	return nil
}

// SupersedeApproved marks every currently-approved schedule as superseded.
// Called just before a new proposal is approved.
func (s *Store) SupersedeApproved(ctx context.Context) error {
	err := s.db.WithContext(ctx).Model(&domain.Schedule{}).
		Where("status = ?", domain.ScheduleStatusApproved).
		Updates(map[string]interface{}{"status": domain.ScheduleStatusSuperseded, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("supersede approved schedule: %w", err)
	}
	return nil
}

// GetApprovedSchedule returns the current approved schedule, if any.
func (s *Store) GetApprovedSchedule(ctx context.Context) (*domain.Schedule, error) {
	var sched domain.Schedule
	err := s.db.WithContext(ctx).
		Where("status = ?", domain.ScheduleStatusApproved).
		Order("created_at DESC").
		First(&sched).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get approved schedule: %w", err)
	}
	return &sched, nil
}

// GetSchedule fetches one schedule by id.
func (s *Store) GetSchedule(ctx context.Context, id string) (*domain.Schedule, error) {
	var sched domain.Schedule
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sched).Error; err != nil {
		return nil, fmt.Errorf("get schedule %s: %w", id, err)
	}
	return &sched, nil
}

// ReplaceTracking atomically swaps the SO↔PO tracking map for one
// proposal: deletes any existing rows for the given proposal id and
// inserts the new set.
func (s *Store) ReplaceTracking(ctx context.Context, proposalID string, links map[string]string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proposal_id = ?", proposalID).Delete(&domain.POTracking{}).Error; err != nil {
			return fmt.Errorf("clear tracking for proposal %s: %w", proposalID, err)
		}
		if len(links) == 0 {
			return nil
		}
		rows := make([]domain.POTracking, 0, len(links))
		now := time.Now()
		for soID, poID := range links {
			rows = append(rows, domain.POTracking{
				SalesOrderID:      soID,
				ProductionOrderID: poID,
				ProposalID:        proposalID,
				CreatedAt:         now,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert tracking for proposal %s: %w", proposalID, err)
		}
		return nil
	})
}

// TrackingForProposal returns the SO→PO map recorded for one proposal.
func (s *Store) TrackingForProposal(ctx context.Context, proposalID string) (map[string]string, error) {
	var rows []domain.POTracking
	if err := s.db.WithContext(ctx).Where("proposal_id = ?", proposalID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tracking for proposal %s: %w", proposalID, err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.SalesOrderID] = r.ProductionOrderID
	}
	return out, nil
}

// DeleteTrackingForProposal removes every tracking row for a proposal;
// the orchestrator calls it when a proposal is rejected.
func (s *Store) DeleteTrackingForProposal(ctx context.Context, proposalID string) error {
	if err := s.db.WithContext(ctx).Where("proposal_id = ?", proposalID).Delete(&domain.POTracking{}).Error; err != nil {
		return fmt.Errorf("delete tracking for proposal %s: %w", proposalID, err)
	}
	return nil
}

// SalesOrderForProductionOrder looks up the sales order linked to a
// production order, searching every tracked proposal (not just the
// currently outstanding one), most recent first. Used by the
// factory-event intake to resolve a PO back to its owning SO.
func (s *Store) SalesOrderForProductionOrder(ctx context.Context, poID string) (string, bool, error) {
	var row domain.POTracking
	err := s.db.WithContext(ctx).
		Where("production_order_id = ?", poID).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find sales order for production order %s: %w", poID, err)
	}
	return row.SalesOrderID, true, nil
}

// EntriesColumn is a small adapter so callers can build a Schedule
// without importing gorm.io/datatypes themselves.
func EntriesColumn(entries []domain.ScheduleEntry) datatypes.JSONSlice[domain.ScheduleEntry] {
	return datatypes.JSONSlice[domain.ScheduleEntry](entries)
}

// ConflictIDsColumn mirrors EntriesColumn for the late-order-id slice.
func ConflictIDsColumn(ids []string) datatypes.JSONSlice[string] {
	return datatypes.JSONSlice[string](ids)
}
