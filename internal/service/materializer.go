package service

import (
	"context"
	"fmt"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/model"
	"github.com/staffsched/approvals/internal/repository"
)

// Materializer performs the side effect of an approved request. Every method is safe to re-run.
type Materializer struct {
	timeOff  repository.TimeOffRepository
	profiles repository.ProfileRepository
}

func NewMaterializer(timeOff repository.TimeOffRepository, profiles repository.ProfileRepository) *Materializer {
	return &Materializer{timeOff: timeOff, profiles: profiles}
}

// TimeOff writes the approved calendar entry for a time-off family request, reading only
// the stored payload.
func (m *Materializer) TimeOff(ctx context.Context, req *model.ApprovalRequest) (*model.TimeOffEntry, error) {
	payload, err := approval.DecodePayload(approval.Type(req.Type), req.RequestData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", approval.ErrMaterializationFailed, err)
	}
	p, ok := payload.(*approval.TimeOffPayload)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a time-off request", approval.ErrMaterializationFailed, req.Type)
	}

	start, end, err := approval.ParseDateRange(p.StartDate, p.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", approval.ErrMaterializationFailed, err)
	}

	requestID := req.ID
	entry := &model.TimeOffEntry{
		EmployeeID:        p.EmployeeID,
		StartDate:         start,
		EndDate:           end,
		Type:              p.Subtype,
		Notes:             p.Notes,
		Status:            string(approval.StatusApproved),
		ApprovalRequestID: &requestID,
	}
	if err := m.timeOff.UpsertForApproval(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: %v", approval.ErrMaterializationFailed, err)
	}
	return entry, nil
}

// Profile creates the account profile requested by an approved signup, plus brand assignments
// for brand managers. An existing profile with the same email is a conflict.
func (m *Materializer) Profile(ctx context.Context, req *model.ApprovalRequest) (*model.Profile, error) {
	payload, err := approval.DecodePayload(approval.Type(req.Type), req.RequestData)
	if err != nil {
		return nil, err
	}
	p, ok := payload.(*approval.ProfileCreationPayload)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a profile creation request", approval.ErrValidation, req.Type)
	}

	if _, err := m.profiles.FindByEmail(ctx, p.Email); err == nil {
		return nil, fmt.Errorf("%w: a profile for %s already exists", approval.ErrConflict, p.Email)
	} else if !isNotFound(err) {
		return nil, err
	}

	profile := &model.Profile{
		Email:        p.Email,
		FullName:     p.FullName,
		Role:         string(p.Role),
		PasswordHash: p.PasswordHash,
		CompanyID:    p.CompanyID,
		StoreID:      p.StoreID,
	}
	if p.Role == approval.RoleBrandManager && len(p.BrandIDs) > 0 {
		profile.BrandID = &p.BrandIDs[0]
	}
	if err := m.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	if p.Role == approval.RoleBrandManager {
		if err := m.profiles.AssignBrands(ctx, profile.ID, p.BrandIDs); err != nil {
			return nil, err
		}
	}
	return profile, nil
}
