package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/model"
	"github.com/staffsched/approvals/internal/repository"
	"github.com/staffsched/approvals/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// NotificationWarning is returned when the request exists but its email could not be sent.
const NotificationWarning = "request created but notification failed"

// MinPasswordLength applies to self-signup passwords.
const MinPasswordLength = 6

// --- DTOs ---

type TimeOffSubmission struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	Type       string `json:"type"`    // time_off (default), sick_leave, annual_leave
	Subtype    string `json:"subtype"` // defaults from Type
	Notes      string `json:"notes"`
}

type SignupSubmission struct {
	Email     string   `json:"email" binding:"required"`
	Password  string   `json:"password" binding:"required"`
	FullName  string   `json:"full_name" binding:"required"`
	Role      string   `json:"role" binding:"required"`
	CompanyID string   `json:"company_id"`
	BrandIDs  []string `json:"brand_ids"`
	StoreID   string   `json:"store_id"`
}

type SubmissionResult struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	Approver         *Approver `json:"approver,omitempty"`
	NotificationSent bool      `json:"notification_sent"`
	EmailID          string    `json:"email_id,omitempty"`
	Warning          string    `json:"warning,omitempty"`
}

// --- Interface ---

type SubmissionService interface {
	SubmitTimeOff(ctx context.Context, requesterID uuid.UUID, in TimeOffSubmission) (SubmissionResult, error)
	SubmitSignup(ctx context.Context, in SignupSubmission) (SubmissionResult, error)
}

type submissionService struct {
	requests   repository.ApprovalRepository
	orgs       repository.OrgRepository
	profiles   repository.ProfileRepository
	resolver   ApproverResolver
	notifier   NotificationService
	audit      AuditService
	events     EventPublisher
	log        *zap.Logger
	bcryptCost int
}

func NewSubmissionService(
	requests repository.ApprovalRepository,
	orgs repository.OrgRepository,
	profiles repository.ProfileRepository,
	resolver ApproverResolver,
	notifier NotificationService,
	audit AuditService,
	events EventPublisher,
	log *zap.Logger,
) SubmissionService {
	return &submissionService{
		requests:   requests,
		orgs:       orgs,
		profiles:   profiles,
		resolver:   resolver,
		notifier:   notifier,
		audit:      audit,
		events:     publisherOrNoop(events),
		log:        log,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// --- Implementation ---

// SubmitTimeOff validates, resolves the approver, stores a pending request and emails the approver.
// Nothing is stored when no approver exists.
func (s *submissionService) SubmitTimeOff(ctx context.Context, requesterID uuid.UUID, in TimeOffSubmission) (SubmissionResult, error) {
	employeeID, err := uuid.Parse(strings.TrimSpace(in.EmployeeID))
	if err != nil {
		return SubmissionResult{}, approval.NewValidationError("employee_id", "must be a valid id")
	}

	kind := approval.TypeTimeOff
	if in.Type != "" {
		kind = approval.Type(in.Type)
	}
	subtype := in.Subtype
	if subtype == "" {
		subtype = approval.DefaultSubtype(kind)
	}

	payload := &approval.TimeOffPayload{
		Kind:       kind,
		EmployeeID: employeeID,
		StartDate:  strings.TrimSpace(in.StartDate),
		EndDate:    strings.TrimSpace(in.EndDate),
		Subtype:    subtype,
		Notes:      strings.TrimSpace(in.Notes),
	}
	if err := payload.Validate(); err != nil {
		return SubmissionResult{}, err
	}

	employee, err := s.orgs.FindEmployee(ctx, employeeID)
	if err != nil {
		return SubmissionResult{}, err
	}
	payload.EmployeeName = employee.FullName
	payload.StoreID = employee.StoreID
	payload.StoreName = employee.Store.Name

	requester, err := s.authorizeRequester(ctx, requesterID, employee.Store)
	if err != nil {
		return SubmissionResult{}, err
	}

	approver, err := s.resolver.ResolveApprover(ctx, employeeID, &requesterID)
	if err != nil {
		if errors.Is(err, approval.ErrNoApproverFound) {
			s.log.Warn("no approver for time-off request",
				zap.String("employee_id", employeeID.String()),
				zap.String("store_id", employee.StoreID.String()),
			)
		}
		return SubmissionResult{}, err
	}

	data, err := approval.EncodePayload(payload)
	if err != nil {
		return SubmissionResult{}, err
	}

	approverID := approver.UserID
	req := &model.ApprovalRequest{
		Type:        string(kind),
		RequesterID: &requesterID,
		ApproverID:  &approverID,
		RequestData: data,
		Notes:       payload.Notes,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return SubmissionResult{}, fmt.Errorf("failed to create approval request: %w", err)
	}

	s.audit.Record(ctx, &requesterID, model.ActionCreateApprovalRequest, req.ID.String(), kind.Label(), map[string]interface{}{
		"employee_id":   employeeID.String(),
		"employee_name": payload.EmployeeName,
		"start_date":    payload.StartDate,
		"end_date":      payload.EndDate,
		"approver_id":   approverID.String(),
		"approver_tier": approver.Tier,
	})
	s.events.Publish(approvalEvent(websocket.EventApprovalCreated, req))

	result := SubmissionResult{ID: req.ID.String(), Status: req.Status, Approver: approver}
	s.dispatch(ctx, req, approver, Requester{Name: requester.FullName, Email: requester.Email}, payload, &result)
	return result, nil
}

// SubmitSignup stores a pending profile_creation request and tells an admin about it.
// Missing admin or failed email still leaves the request in place, with a warning.
func (s *submissionService) SubmitSignup(ctx context.Context, in SignupSubmission) (SubmissionResult, error) {
	payload, err := s.signupPayload(ctx, in)
	if err != nil {
		return SubmissionResult{}, err
	}

	if _, err := s.profiles.FindByEmail(ctx, payload.Email); err == nil {
		return SubmissionResult{}, fmt.Errorf("%w: an account for this email already exists", approval.ErrConflict)
	} else if !isNotFound(err) {
		return SubmissionResult{}, err
	}
	pending, err := s.requests.HasPendingSignup(ctx, payload.Email)
	if err != nil {
		return SubmissionResult{}, err
	}
	if pending {
		return SubmissionResult{}, fmt.Errorf("%w: a request for this email is already pending", approval.ErrConflict)
	}

	admin, adminErr := s.resolver.ResolveAdmin(ctx)
	if adminErr != nil && !errors.Is(adminErr, approval.ErrNoApproverFound) {
		return SubmissionResult{}, adminErr
	}

	data, err := approval.EncodePayload(payload)
	if err != nil {
		return SubmissionResult{}, err
	}
	req := &model.ApprovalRequest{
		Type:        string(approval.TypeProfileCreation),
		RequestData: data,
	}
	if admin != nil {
		adminID := admin.UserID
		req.ApproverID = &adminID
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return SubmissionResult{}, fmt.Errorf("failed to create approval request: %w", err)
	}

	s.audit.Record(ctx, nil, model.ActionCreateApprovalRequest, req.ID.String(), approval.TypeProfileCreation.Label(), map[string]interface{}{
		"email": payload.Email,
		"role":  string(payload.Role),
	})
	s.events.Publish(approvalEvent(websocket.EventApprovalCreated, req))

	result := SubmissionResult{ID: req.ID.String(), Status: req.Status, Approver: admin}
	if admin == nil {
		s.log.Warn("no admin to notify about signup", zap.String("approval_id", req.ID.String()))
		result.Warning = NotificationWarning
		return result, nil
	}
	s.dispatch(ctx, req, admin, Requester{Name: payload.FullName, Email: payload.Email}, payload, &result)
	return result, nil
}

func (s *submissionService) signupPayload(ctx context.Context, in SignupSubmission) (*approval.ProfileCreationPayload, error) {
	if len(in.Password) < MinPasswordLength {
		return nil, approval.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	payload := &approval.ProfileCreationPayload{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		FullName: strings.TrimSpace(in.FullName),
		Role:     approval.Role(in.Role),
	}

	if in.CompanyID != "" {
		id, err := uuid.Parse(in.CompanyID)
		if err != nil {
			return nil, approval.NewValidationError("company_id", "must be a valid id")
		}
		payload.CompanyID = &id
	}
	if in.StoreID != "" {
		id, err := uuid.Parse(in.StoreID)
		if err != nil {
			return nil, approval.NewValidationError("store_id", "must be a valid id")
		}
		payload.StoreID = &id
	}
	for _, raw := range in.BrandIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, approval.NewValidationError("brand_ids", "must contain valid ids")
		}
		payload.BrandIDs = append(payload.BrandIDs, id)
	}

	// validate shape before paying for the hash
	payload.PasswordHash = "pending"
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	if payload.CompanyID != nil {
		exists, err := s.orgs.CompanyExists(ctx, *payload.CompanyID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, approval.NewValidationError("company_id", "unknown company")
		}
		if len(payload.BrandIDs) > 0 {
			count, err := s.orgs.CountBrandsInCompany(ctx, *payload.CompanyID, payload.BrandIDs)
			if err != nil {
				return nil, err
			}
			if count != int64(len(payload.BrandIDs)) {
				return nil, approval.NewValidationError("brand_ids", "every brand must belong to the selected company")
			}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	payload.PasswordHash = string(hash)
	return payload, nil
}

// authorizeRequester loads the submitting manager and checks the employee's store is inside
// their scope: any store for admins, same company, an owned brand, or the managed store.
func (s *submissionService) authorizeRequester(ctx context.Context, requesterID uuid.UUID, store *model.Store) (*model.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, requesterID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: requester has no profile", approval.ErrForbidden)
		}
		return nil, err
	}

	allowed := false
	switch approval.Role(profile.Role) {
	case approval.RoleAdmin:
		allowed = true
	case approval.RoleCompanyManager:
		allowed = profile.CompanyID != nil && *profile.CompanyID == store.CompanyID
	case approval.RoleBrandManager:
		if store.BrandID == nil {
			break
		}
		if profile.BrandID != nil && *profile.BrandID == *store.BrandID {
			allowed = true
			break
		}
		if allowed, err = s.profiles.HasBrand(ctx, profile.ID, *store.BrandID); err != nil {
			return nil, err
		}
	case approval.RoleStoreManager:
		allowed = profile.StoreID != nil && *profile.StoreID == store.ID
	}

	if !allowed {
		s.log.Warn("time-off submission outside requester scope",
			zap.String("requester_id", requesterID.String()),
			zap.String("store_id", store.ID.String()),
		)
		return nil, fmt.Errorf("%w: employee is outside your scope", approval.ErrForbidden)
	}
	return profile, nil
}

// dispatch sends the notification. A failure is reported on result, never returned.
func (s *submissionService) dispatch(ctx context.Context, req *model.ApprovalRequest, approver *Approver, requester Requester, payload approval.Payload, result *SubmissionResult) {
	emailID, err := s.notifier.Send(ctx, req, approver, requester, payload)
	if err != nil {
		s.log.Warn("approval notification failed",
			zap.String("approval_id", req.ID.String()),
			zap.String("approver_id", approver.UserID.String()),
			zap.Error(err),
		)
		s.audit.Record(ctx, nil, model.ActionNotificationFailed, req.ID.String(), req.Type, map[string]interface{}{
			"error": err.Error(),
		})
		result.Warning = NotificationWarning
		return
	}
	result.NotificationSent = true
	result.EmailID = emailID
}
