package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company owns brands and stores directly.
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type Brand struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	return nil
}

// Store belongs to a company and optionally to one of its brands.
type Store struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	BrandID   *uuid.UUID `gorm:"type:uuid;index" json:"brand_id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

type Employee struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	Store     *Store    `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	FullName  string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email     string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}
