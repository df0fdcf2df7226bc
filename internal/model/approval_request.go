package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApprovalRequest is the durable record of a pending decision. RequestData holds the
// type-specific payload snapshot; see approval.DecodePayload.
type ApprovalRequest struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Type        string         `gorm:"type:varchar(30);not null;index" json:"type"` // profile_creation, time_off, sick_leave, annual_leave
	RequesterID *uuid.UUID     `gorm:"type:uuid;index" json:"requester_id"`         // nil for self-signup
	ApproverID  *uuid.UUID     `gorm:"type:uuid;index" json:"approver_id"`          // set at creation, never mutated
	RequestData datatypes.JSON `gorm:"not null" json:"request_data"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes       string         `gorm:"type:text" json:"notes,omitempty"`
	ResolvedBy  *uuid.UUID     `gorm:"type:uuid" json:"resolved_by,omitempty"` // nil when resolved through an email link
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ApprovedAt  *time.Time     `json:"approved_at"`
	RejectedAt  *time.Time     `json:"rejected_at"`
}

func (r *ApprovalRequest) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}
