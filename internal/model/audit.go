package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreateApprovalRequest = "CREATE_APPROVAL_REQUEST"
	ActionApproveRequest        = "APPROVE_REQUEST"
	ActionRejectRequest         = "REJECT_REQUEST"
	ActionMaterializeTimeOff    = "MATERIALIZE_TIME_OFF"
	ActionCreateProfile         = "CREATE_PROFILE_FROM_APPROVAL"
	ActionNotificationFailed    = "NOTIFICATION_FAILED"
)

// AuditLog tracks Who, What, and When for approval workflow changes
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"` // nil when the actor followed an email link
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
