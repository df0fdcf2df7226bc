package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApprovalFilter narrows List. VisibleTo restricts rows to those the user requested or must approve.
type ApprovalFilter struct {
	Status    string
	Type      string
	VisibleTo *uuid.UUID
	Page      int
	Limit     int
}

type ApprovalRepository interface {
	Create(ctx context.Context, req *model.ApprovalRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
	Transition(ctx context.Context, id uuid.UUID, outcome approval.Status, at time.Time, resolvedBy *uuid.UUID) (*model.ApprovalRequest, error)
	List(ctx context.Context, filter ApprovalFilter) ([]model.ApprovalRequest, int64, error)
	HasPendingSignup(ctx context.Context, email string) (bool, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

// Create inserts a pending request. Status and timestamps are always set here, never by the caller.
func (r *approvalRepository) Create(ctx context.Context, req *model.ApprovalRequest) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	req.Status = string(approval.StatusPending)
	req.CreatedAt = now
	req.UpdatedAt = now
	req.ApprovedAt = nil
	req.RejectedAt = nil
	req.ResolvedBy = nil

	if err := GetDB(ctx, r.db).Create(req).Error; err != nil {
		return fmt.Errorf("insert approval request: %w", err)
	}
	return nil
}

func (r *approvalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err, "approval request "+id.String())
	}
	return &req, nil
}

// Transition moves a pending request to outcome with a single conditional UPDATE.
// Exactly one of any number of concurrent callers succeeds; the rest get ErrAlreadyResolved
// together with the row as the winner left it.
func (r *approvalRepository) Transition(ctx context.Context, id uuid.UUID, outcome approval.Status, at time.Time, resolvedBy *uuid.UUID) (*model.ApprovalRequest, error) {
	stampColumn := ""
	switch outcome {
	case approval.StatusApproved:
		stampColumn = "approved_at"
	case approval.StatusRejected:
		stampColumn = "rejected_at"
	default:
		return nil, fmt.Errorf("%w: cannot transition to %q", approval.ErrInvalidTransition, outcome)
	}

	at = at.UTC().Truncate(time.Microsecond)
	result := GetDB(ctx, r.db).
		Model(&model.ApprovalRequest{}).
		Where("id = ? AND status = ?", id, string(approval.StatusPending)).
		Updates(map[string]interface{}{
			"status":      string(outcome),
			stampColumn:   at,
			"updated_at":  at,
			"resolved_by": resolvedBy,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("transition approval request %s: %w", id, result.Error)
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return current, fmt.Errorf("approval request %s is %s: %w", id, current.Status, approval.ErrAlreadyResolved)
	}
	return current, nil
}

func (r *approvalRepository) List(ctx context.Context, filter ApprovalFilter) ([]model.ApprovalRequest, int64, error) {
	var requests []model.ApprovalRequest
	var total int64

	query := GetDB(ctx, r.db).Model(&model.ApprovalRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.VisibleTo != nil {
		query = query.Where("requester_id = ? OR approver_id = ?", *filter.VisibleTo, *filter.VisibleTo)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count approval requests: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("list approval requests: %w", err)
	}

	return requests, total, nil
}

// HasPendingSignup reports whether a pending profile_creation request already asks for email.
func (r *approvalRepository) HasPendingSignup(ctx context.Context, email string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.ApprovalRequest{}).
		Where("type = ? AND status = ?", string(approval.TypeProfileCreation), string(approval.StatusPending)).
		Where(datatypes.JSONQuery("request_data").Equals(email, "email")).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check pending signup: %w", err)
	}
	return count > 0, nil
}
