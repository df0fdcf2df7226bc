package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/staffsched/approvals/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TimeOffRepository interface {
	UpsertForApproval(ctx context.Context, entry *model.TimeOffEntry) error
	FindByApprovalRequest(ctx context.Context, approvalID uuid.UUID) (*model.TimeOffEntry, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]model.TimeOffEntry, error)
}

type timeOffRepository struct {
	db *gorm.DB
}

func NewTimeOffRepository(db *gorm.DB) TimeOffRepository {
	return &timeOffRepository{db: db}
}

// UpsertForApproval writes the entry keyed by its approval request, so running it twice
// for the same request leaves one row.
func (r *timeOffRepository) UpsertForApproval(ctx context.Context, entry *model.TimeOffEntry) error {
	if entry.ApprovalRequestID == nil {
		return fmt.Errorf("time-off entry has no approval request id")
	}
	entry.UpdatedAt = time.Now().UTC()

	err := GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "approval_request_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"employee_id", "start_date", "end_date", "type", "notes", "status", "updated_at"}),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("upsert time-off entry: %w", err)
	}
	return nil
}

func (r *timeOffRepository) FindByApprovalRequest(ctx context.Context, approvalID uuid.UUID) (*model.TimeOffEntry, error) {
	var entry model.TimeOffEntry
	if err := GetDB(ctx, r.db).First(&entry, "approval_request_id = ?", approvalID).Error; err != nil {
		return nil, translate(err, "time-off entry for "+approvalID.String())
	}
	return &entry, nil
}

func (r *timeOffRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]model.TimeOffEntry, error) {
	var entries []model.TimeOffEntry
	if err := GetDB(ctx, r.db).Where("employee_id = ?", employeeID).Order("start_date ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list time-off entries: %w", err)
	}
	return entries, nil
}
