package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is one per authenticated user. The scoping key that matters depends on Role.
type Profile struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName     string     `gorm:"type:varchar(255);not null" json:"full_name"`
	Role         string     `gorm:"type:varchar(30);not null;index" json:"role"` // admin, company_manager, brand_manager, store_manager
	PasswordHash string     `gorm:"type:varchar(255)" json:"-"`
	CompanyID    *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	BrandID      *uuid.UUID `gorm:"type:uuid;index" json:"brand_id"`
	StoreID      *uuid.UUID `gorm:"type:uuid;index" json:"store_id"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// UserBrand assigns a brand manager to additional brands, superseding Profile.BrandID.
type UserBrand struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	BrandID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"brand_id"`
	CreatedAt time.Time `json:"created_at"`
}
