package repository

import (
	"context"
	"fmt"

	"github.com/staffsched/approvals/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrgRepository reads the company/brand/store/employee tree. The workflow never writes it.
type OrgRepository interface {
	FindEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error)
	CompanyExists(ctx context.Context, id uuid.UUID) (bool, error)
	CountBrandsInCompany(ctx context.Context, companyID uuid.UUID, brandIDs []uuid.UUID) (int64, error)
}

type orgRepository struct {
	db *gorm.DB
}

func NewOrgRepository(db *gorm.DB) OrgRepository {
	return &orgRepository{db: db}
}

// FindEmployee loads the employee together with its store.
func (r *orgRepository) FindEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	var e model.Employee
	if err := GetDB(ctx, r.db).Preload("Store").First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err, "employee "+id.String())
	}
	if e.Store == nil {
		return nil, fmt.Errorf("employee %s has no store", id)
	}
	return &e, nil
}

func (r *orgRepository) CompanyExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Company{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check company: %w", err)
	}
	return count > 0, nil
}

func (r *orgRepository) CountBrandsInCompany(ctx context.Context, companyID uuid.UUID, brandIDs []uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Brand{}).
		Where("company_id = ? AND id IN ?", companyID, brandIDs).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count brands: %w", err)
	}
	return count, nil
}
