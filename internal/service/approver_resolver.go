package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/model"
	"github.com/staffsched/approvals/internal/repository"

	"github.com/google/uuid"
)

// Approver is the profile chosen to decide a request, and the tier that matched.
type Approver struct {
	UserID   uuid.UUID     `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name"`
	Role     approval.Role `json:"role"`
	Tier     string        `json:"tier"`
}

func newApprover(p model.Profile, tier string) *Approver {
	return &Approver{
		UserID:   p.ID,
		Email:    p.Email,
		FullName: p.FullName,
		Role:     approval.Role(p.Role),
		Tier:     tier,
	}
}

// ResolveScope is what a strategy may look at: the employee's store and who is asking.
type ResolveScope struct {
	Store       model.Store
	RequesterID *uuid.UUID
}

// ApproverStrategy is one tier of the org hierarchy. CanApprove returns the tier's approver,
// or nil when the tier has nobody for this scope.
type ApproverStrategy interface {
	Tier() string
	CanApprove(ctx context.Context, scope ResolveScope) (*model.Profile, error)
}

type ApproverResolver interface {
	ResolveApprover(ctx context.Context, employeeID uuid.UUID, requesterID *uuid.UUID) (*Approver, error)
	ResolveAdmin(ctx context.Context) (*Approver, error)
}

type approverResolver struct {
	orgs       repository.OrgRepository
	strategies []ApproverStrategy
	admin      ApproverStrategy
}

// NewApproverResolver tries strategies in order; the first that returns a profile wins.
func NewApproverResolver(orgs repository.OrgRepository, profiles repository.ProfileRepository, strategies ...ApproverStrategy) ApproverResolver {
	if len(strategies) == 0 {
		strategies = DefaultStrategies(profiles)
	}
	return &approverResolver{
		orgs:       orgs,
		strategies: strategies,
		admin:      AdminStrategy{Profiles: profiles},
	}
}

// DefaultStrategies is the store -> brand -> company -> admin hierarchy.
func DefaultStrategies(profiles repository.ProfileRepository) []ApproverStrategy {
	return []ApproverStrategy{
		StoreManagerStrategy{Profiles: profiles},
		BrandManagerStrategy{Profiles: profiles},
		CompanyManagerStrategy{Profiles: profiles},
		AdminStrategy{Profiles: profiles},
	}
}

func (r *approverResolver) ResolveApprover(ctx context.Context, employeeID uuid.UUID, requesterID *uuid.UUID) (*Approver, error) {
	employee, err := r.orgs.FindEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	scope := ResolveScope{Store: *employee.Store, RequesterID: requesterID}
	for _, s := range r.strategies {
		p, err := s.CanApprove(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("resolve %s tier: %w", s.Tier(), err)
		}
		if p != nil {
			return newApprover(*p, s.Tier()), nil
		}
	}
	return nil, fmt.Errorf("employee %s: %w", employeeID, approval.ErrNoApproverFound)
}

// ResolveAdmin finds the admin that receives profile-creation notices.
func (r *approverResolver) ResolveAdmin(ctx context.Context) (*Approver, error) {
	p, err := r.admin.CanApprove(ctx, ResolveScope{})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no admin profile: %w", approval.ErrNoApproverFound)
	}
	return newApprover(*p, r.admin.Tier()), nil
}

func first(profiles []model.Profile, skip *uuid.UUID) *model.Profile {
	for i := range profiles {
		if skip != nil && profiles[i].ID == *skip {
			continue
		}
		return &profiles[i]
	}
	return nil
}

// StoreManagerStrategy picks the store's manager unless that manager is the requester.
type StoreManagerStrategy struct {
	Profiles repository.ProfileRepository
}

func (StoreManagerStrategy) Tier() string { return "store" }

func (s StoreManagerStrategy) CanApprove(ctx context.Context, scope ResolveScope) (*model.Profile, error) {
	managers, err := s.Profiles.ListStoreManagers(ctx, scope.Store.ID)
	if err != nil {
		return nil, err
	}
	return first(managers, scope.RequesterID), nil
}

// BrandManagerStrategy applies only to stores that belong to a brand.
type BrandManagerStrategy struct {
	Profiles repository.ProfileRepository
}

func (BrandManagerStrategy) Tier() string { return "brand" }

func (s BrandManagerStrategy) CanApprove(ctx context.Context, scope ResolveScope) (*model.Profile, error) {
	if scope.Store.BrandID == nil {
		return nil, nil
	}
	managers, err := s.Profiles.ListBrandManagers(ctx, *scope.Store.BrandID)
	if err != nil {
		return nil, err
	}
	return first(managers, nil), nil
}

type CompanyManagerStrategy struct {
	Profiles repository.ProfileRepository
}

func (CompanyManagerStrategy) Tier() string { return "company" }

func (s CompanyManagerStrategy) CanApprove(ctx context.Context, scope ResolveScope) (*model.Profile, error) {
	managers, err := s.Profiles.ListCompanyManagers(ctx, scope.Store.CompanyID)
	if err != nil {
		return nil, err
	}
	return first(managers, nil), nil
}

type AdminStrategy struct {
	Profiles repository.ProfileRepository
}

func (AdminStrategy) Tier() string { return "admin" }

func (s AdminStrategy) CanApprove(ctx context.Context, _ ResolveScope) (*model.Profile, error) {
	admins, err := s.Profiles.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	return first(admins, nil), nil
}

// isNotFound is a small helper for the common not-found branch in callers
func isNotFound(err error) bool {
	return errors.Is(err, approval.ErrNotFound)
}
