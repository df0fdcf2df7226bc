package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeOffEntry is a calendar entry. Entries created by an approval carry the request id;
// the unique index makes re-running materialization an upsert.
type TimeOffEntry struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"employee_id"`
	StartDate         time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate           time.Time  `gorm:"type:date;not null" json:"end_date"`
	Type              string     `gorm:"type:varchar(20);not null" json:"type"` // day-off, sick-leave, annual, ...
	Notes             string     `gorm:"type:text" json:"notes,omitempty"`
	Status            string     `gorm:"type:varchar(20);not null;default:'approved'" json:"status"`
	ApprovalRequestID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"approval_request_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (e *TimeOffEntry) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}
