package repository

import (
	"context"
	"fmt"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository looks up profiles by role scope for approver resolution and creates
// profiles when a signup is approved.
type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	ListStoreManagers(ctx context.Context, storeID uuid.UUID) ([]model.Profile, error)
	ListBrandManagers(ctx context.Context, brandID uuid.UUID) ([]model.Profile, error)
	ListCompanyManagers(ctx context.Context, companyID uuid.UUID) ([]model.Profile, error)
	ListAdmins(ctx context.Context) ([]model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	AssignBrands(ctx context.Context, userID uuid.UUID, brandIDs []uuid.UUID) error
	HasBrand(ctx context.Context, userID, brandID uuid.UUID) (bool, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var p model.Profile
	if err := GetDB(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "profile "+id.String())
	}
	return &p, nil
}

func (r *profileRepository) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var p model.Profile
	if err := GetDB(ctx, r.db).First(&p, "email = ?", email).Error; err != nil {
		return nil, translate(err, "profile "+email)
	}
	return &p, nil
}

// byRole orders oldest first so resolution is stable when a scope has several managers.
func (r *profileRepository) byRole(ctx context.Context, role approval.Role) *gorm.DB {
	return GetDB(ctx, r.db).Where("role = ?", string(role)).Order("created_at ASC, id ASC")
}

func (r *profileRepository) ListStoreManagers(ctx context.Context, storeID uuid.UUID) ([]model.Profile, error) {
	var out []model.Profile
	if err := r.byRole(ctx, approval.RoleStoreManager).Where("store_id = ?", storeID).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list store managers: %w", err)
	}
	return out, nil
}

// ListBrandManagers matches the single brand_id column or a user_brands assignment.
func (r *profileRepository) ListBrandManagers(ctx context.Context, brandID uuid.UUID) ([]model.Profile, error) {
	var out []model.Profile
	assigned := GetDB(ctx, r.db).Model(&model.UserBrand{}).Select("user_id").Where("brand_id = ?", brandID)
	err := r.byRole(ctx, approval.RoleBrandManager).
		Where("brand_id = ? OR id IN (?)", brandID, assigned).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list brand managers: %w", err)
	}
	return out, nil
}

func (r *profileRepository) ListCompanyManagers(ctx context.Context, companyID uuid.UUID) ([]model.Profile, error) {
	var out []model.Profile
	if err := r.byRole(ctx, approval.RoleCompanyManager).Where("company_id = ?", companyID).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list company managers: %w", err)
	}
	return out, nil
}

func (r *profileRepository) ListAdmins(ctx context.Context) ([]model.Profile, error) {
	var out []model.Profile
	if err := r.byRole(ctx, approval.RoleAdmin).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return out, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if err := GetDB(ctx, r.db).Create(profile).Error; err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *profileRepository) AssignBrands(ctx context.Context, userID uuid.UUID, brandIDs []uuid.UUID) error {
	if len(brandIDs) == 0 {
		return nil
	}
	rows := make([]model.UserBrand, 0, len(brandIDs))
	for _, brandID := range brandIDs {
		rows = append(rows, model.UserBrand{UserID: userID, BrandID: brandID})
	}
	err := GetDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("assign brands: %w", err)
	}
	return nil
}

// HasBrand reports whether a user_brands row assigns brandID to userID.
func (r *profileRepository) HasBrand(ctx context.Context, userID, brandID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.UserBrand{}).
		Where("user_id = ? AND brand_id = ?", userID, brandID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check brand assignment: %w", err)
	}
	return count > 0, nil
}
