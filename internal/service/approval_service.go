package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/model"
	"github.com/staffsched/approvals/internal/repository"
	"github.com/staffsched/approvals/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- DTOs ---

// Viewer is the authenticated caller of an admin-panel operation
type Viewer struct {
	UserID uuid.UUID
	Role   approval.Role
}

func (v Viewer) IsAdmin() bool {
	return v.Role == approval.RoleAdmin
}

type ApprovalFilter struct {
	Status string // pending, approved, rejected or empty for all
	Type   string
	Page   int
	Limit  int
}

type RejectRequestDTO struct {
	Reason string `json:"reason"`
}

type ApprovalRequestResponse struct {
	ID                   string          `json:"id"`
	Type                 string          `json:"type"`
	Status               string          `json:"status"`
	RequesterID          *string         `json:"requester_id"`
	ApproverID           *string         `json:"approver_id"`
	ResolvedBy           *string         `json:"resolved_by,omitempty"`
	RequestData          json.RawMessage `json:"request_data"`
	Notes                string          `json:"notes,omitempty"`
	CreatedAt            string          `json:"created_at"`
	ApprovedAt           *string         `json:"approved_at"`
	RejectedAt           *string         `json:"rejected_at"`
	MaterializationError bool            `json:"materialization_error,omitempty"`
}

// --- Interface ---

type ApprovalService interface {
	ListApprovalRequests(ctx context.Context, viewer Viewer, filter ApprovalFilter) ([]ApprovalRequestResponse, int64, error)
	GetApprovalRequest(ctx context.Context, viewer Viewer, id string) (ApprovalRequestResponse, error)
	ApproveRequest(ctx context.Context, viewer Viewer, id string) (ApprovalRequestResponse, error)
	RejectRequest(ctx context.Context, viewer Viewer, id string, reason string) (ApprovalRequestResponse, error)
	RematerializeRequest(ctx context.Context, viewer Viewer, id string) (ApprovalRequestResponse, error)
}

type approvalService struct {
	requests     repository.ApprovalRepository
	txm          repository.TransactionManager
	materializer *Materializer
	audit        AuditService
	events       EventPublisher
	log          *zap.Logger
}

func NewApprovalService(
	requests repository.ApprovalRepository,
	txm repository.TransactionManager,
	materializer *Materializer,
	audit AuditService,
	events EventPublisher,
	log *zap.Logger,
) ApprovalService {
	return &approvalService{
		requests:     requests,
		txm:          txm,
		materializer: materializer,
		audit:        audit,
		events:       publisherOrNoop(events),
		log:          log,
	}
}

// --- Implementation ---

// ListApprovalRequests shows admins everything and everyone else the requests they
// submitted or must decide.
func (s *approvalService) ListApprovalRequests(ctx context.Context, viewer Viewer, filter ApprovalFilter) ([]ApprovalRequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.ApprovalFilter{
		Status: filter.Status,
		Type:   filter.Type,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if !viewer.IsAdmin() {
		uid := viewer.UserID
		repoFilter.VisibleTo = &uid
	}

	requests, total, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch approval requests: %w", err)
	}

	result := make([]ApprovalRequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toApprovalResponse(&requests[i]))
	}
	return result, total, nil
}

func (s *approvalService) GetApprovalRequest(ctx context.Context, viewer Viewer, id string) (ApprovalRequestResponse, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}
	if !canView(viewer, req) {
		// same answer as a missing row
		return ApprovalRequestResponse{}, fmt.Errorf("approval request %s: %w", id, approval.ErrNotFound)
	}
	return toApprovalResponse(req), nil
}

// ApproveRequest applies the approve transition from the admin panel. A profile_creation
// approval creates the profile in the same transaction; a time-off approval materializes
// the entry as a separate re-runnable step, like the email link does.
func (s *approvalService) ApproveRequest(ctx context.Context, viewer Viewer, id string) (ApprovalRequestResponse, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}
	if err := canDecide(viewer, req); err != nil {
		return ApprovalRequestResponse{}, err
	}
	if _, err := approval.Transition(approval.Status(req.Status), approval.ActionApprove); err != nil {
		return ApprovalRequestResponse{}, err
	}

	actor := viewer.UserID
	var updated *model.ApprovalRequest
	var profile *model.Profile

	if approval.Type(req.Type) == approval.TypeProfileCreation {
		err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
			var txErr error
			updated, txErr = s.requests.Transition(txCtx, req.ID, approval.StatusApproved, time.Now(), &actor)
			if txErr != nil {
				return txErr
			}
			profile, txErr = s.materializer.Profile(txCtx, updated)
			return txErr
		})
	} else {
		updated, err = s.requests.Transition(ctx, req.ID, approval.StatusApproved, time.Now(), &actor)
	}
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.audit.Record(ctx, &actor, model.ActionApproveRequest, updated.ID.String(), approval.Type(updated.Type).Label(), map[string]interface{}{
		"via": "admin_panel",
	})
	if profile != nil {
		s.audit.Record(ctx, &actor, model.ActionCreateProfile, profile.ID.String(), profile.Email, map[string]interface{}{
			"approval_id": updated.ID.String(),
			"role":        profile.Role,
		})
	}

	resp := toApprovalResponse(updated)
	if approval.Type(updated.Type).IsTimeOffFamily() {
		if err := s.materializeTimeOff(ctx, &actor, updated); err != nil {
			resp.MaterializationError = true
		}
	}

	s.events.Publish(approvalEvent(websocket.EventApprovalApproved, updated))
	return resp, nil
}

func (s *approvalService) RejectRequest(ctx context.Context, viewer Viewer, id string, reason string) (ApprovalRequestResponse, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}
	if err := canDecide(viewer, req); err != nil {
		return ApprovalRequestResponse{}, err
	}

	actor := viewer.UserID
	updated, err := s.requests.Transition(ctx, req.ID, approval.StatusRejected, time.Now(), &actor)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.audit.Record(ctx, &actor, model.ActionRejectRequest, updated.ID.String(), approval.Type(updated.Type).Label(), map[string]interface{}{
		"via":    "admin_panel",
		"reason": reason,
	})
	s.events.Publish(approvalEvent(websocket.EventApprovalRejected, updated))
	return toApprovalResponse(updated), nil
}

// RematerializeRequest re-runs the calendar write for an approved time-off request whose
// first attempt failed. Running it for a healthy request is a no-op upsert.
func (s *approvalService) RematerializeRequest(ctx context.Context, viewer Viewer, id string) (ApprovalRequestResponse, error) {
	if !viewer.IsAdmin() {
		return ApprovalRequestResponse{}, approval.ErrForbidden
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}
	if !approval.Type(req.Type).IsTimeOffFamily() || approval.Status(req.Status) != approval.StatusApproved {
		return ApprovalRequestResponse{}, fmt.Errorf("%w: only approved time-off requests have a calendar entry", approval.ErrInvalidTransition)
	}

	actor := viewer.UserID
	if err := s.materializeTimeOff(ctx, &actor, req); err != nil {
		return ApprovalRequestResponse{}, err
	}
	return toApprovalResponse(req), nil
}

func (s *approvalService) materializeTimeOff(ctx context.Context, actor *uuid.UUID, req *model.ApprovalRequest) error {
	entry, err := s.materializer.TimeOff(ctx, req)
	if err != nil {
		s.log.Error("time-off entry materialization failed",
			zap.String("approval_id", req.ID.String()),
			zap.Error(err),
		)
		return err
	}
	s.audit.Record(ctx, actor, model.ActionMaterializeTimeOff, req.ID.String(), entry.ID.String(), nil)
	return nil
}

func (s *approvalService) load(ctx context.Context, id string) (*model.ApprovalRequest, error) {
	approvalID, err := uuid.Parse(id)
	if err != nil {
		return nil, approval.NewValidationError("id", "must be a valid id")
	}
	return s.requests.FindByID(ctx, approvalID)
}

func canView(viewer Viewer, req *model.ApprovalRequest) bool {
	if viewer.IsAdmin() {
		return true
	}
	return (req.RequesterID != nil && *req.RequesterID == viewer.UserID) ||
		(req.ApproverID != nil && *req.ApproverID == viewer.UserID)
}

// canDecide allows admins, and the assigned approver for time-off requests.
// Profile creation is decided by admins only.
func canDecide(viewer Viewer, req *model.ApprovalRequest) error {
	if viewer.IsAdmin() {
		return nil
	}
	if approval.Type(req.Type) == approval.TypeProfileCreation {
		return fmt.Errorf("%w: only admins review profile creation", approval.ErrForbidden)
	}
	if req.ApproverID == nil || *req.ApproverID != viewer.UserID {
		return fmt.Errorf("%w: not the assigned approver", approval.ErrForbidden)
	}
	return nil
}

func toApprovalResponse(r *model.ApprovalRequest) ApprovalRequestResponse {
	resp := ApprovalRequestResponse{
		ID:          r.ID.String(),
		Type:        r.Type,
		Status:      r.Status,
		RequesterID: uuidString(r.RequesterID),
		ApproverID:  uuidString(r.ApproverID),
		ResolvedBy:  uuidString(r.ResolvedBy),
		RequestData: publicRequestData(r),
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		ApprovedAt:  timeString(r.ApprovedAt),
		RejectedAt:  timeString(r.RejectedAt),
	}
	return resp
}

// publicRequestData strips the password hash from profile-creation payloads.
func publicRequestData(r *model.ApprovalRequest) json.RawMessage {
	if approval.Type(r.Type) != approval.TypeProfileCreation {
		return json.RawMessage(r.RequestData)
	}
	payload, err := approval.DecodePayload(approval.TypeProfileCreation, r.RequestData)
	if err != nil {
		return json.RawMessage("{}")
	}
	p := payload.(*approval.ProfileCreationPayload)
	p.PasswordHash = ""
	raw, err := json.Marshal(p)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
