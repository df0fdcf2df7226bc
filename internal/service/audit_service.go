package service

import (
	"context"
	"encoding/json"

	"github.com/staffsched/approvals/internal/model"
	"github.com/staffsched/approvals/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type AuditLogResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Action     string          `json:"action"`
	EntityID   string          `json:"entity_id"`
	EntityName string          `json:"entity_name"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  string          `json:"created_at"`
}

type AuditFilter struct {
	Action   string
	EntityID string
	Page     int
	Limit    int
}

type AuditService interface {
	// Record writes an audit row. Failures are logged, never returned: auditing must not
	// undo a committed workflow step.
	Record(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details map[string]interface{})
	GetAuditLogs(ctx context.Context, filter AuditFilter) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
	log  *zap.Logger
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository, log *zap.Logger) AuditService {
	return &auditService{repo: repo, log: log}
}

func (s *auditService) Record(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details map[string]interface{}) {
	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte("{}")
	}
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    datatypes.JSON(raw),
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

// GetAuditLogs returns one page of audit rows, newest first
func (s *auditService) GetAuditLogs(ctx context.Context, filter AuditFilter) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, repository.AuditFilter{
		Action:   filter.Action,
		EntityID: filter.EntityID,
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userID := ""
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    json.RawMessage(l.Details),
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
