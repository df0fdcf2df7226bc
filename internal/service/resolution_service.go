package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/model"
	"github.com/staffsched/approvals/internal/repository"
	"github.com/staffsched/approvals/internal/websocket"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/staffsched/approvals/internal/service")

// ResolveInput is the raw query of an action link
type ResolveInput struct {
	ID     string `form:"id"`
	Action string `form:"action"`
	Token  string `form:"token"`
}

// ResolveResult describes what the link did. On ErrAlreadyResolved it carries the final status.
type ResolveResult struct {
	RequestID            string
	Type                 approval.Type
	Status               approval.Status
	Action               approval.Action
	EmployeeName         string
	Materialized         bool
	MaterializationError bool
}

type ResolutionService interface {
	Resolve(ctx context.Context, in ResolveInput) (ResolveResult, error)
}

type resolutionService struct {
	requests     repository.ApprovalRepository
	links        *LinkBuilder
	materializer *Materializer
	audit        AuditService
	events       EventPublisher
	log          *zap.Logger
	now          func() time.Time
}

func NewResolutionService(
	requests repository.ApprovalRepository,
	links *LinkBuilder,
	materializer *Materializer,
	audit AuditService,
	events EventPublisher,
	log *zap.Logger,
) ResolutionService {
	return &resolutionService{
		requests:     requests,
		links:        links,
		materializer: materializer,
		audit:        audit,
		events:       publisherOrNoop(events),
		log:          log,
		now:          time.Now,
	}
}

// Resolve runs one link click. Token and status checks are fatal; materialization failure
// is logged and reported on the result while the committed transition stands.
func (s *resolutionService) Resolve(ctx context.Context, in ResolveInput) (ResolveResult, error) {
	ctx, span := tracer.Start(ctx, "approval.resolve_link", trace.WithAttributes(
		attribute.String("approval.action", in.Action),
	))
	defer span.End()

	result, err := s.resolve(ctx, in)
	if result.RequestID != "" {
		span.SetAttributes(
			attribute.String("approval.id", result.RequestID),
			attribute.String("approval.status", string(result.Status)),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (s *resolutionService) resolve(ctx context.Context, in ResolveInput) (ResolveResult, error) {
	rawID := strings.TrimSpace(in.ID)
	token := strings.TrimSpace(in.Token)
	if rawID == "" || in.Action == "" || token == "" {
		return ResolveResult{}, fmt.Errorf("%w: id, action and token are required", approval.ErrValidation)
	}
	action, err := approval.ParseAction(in.Action)
	if err != nil {
		return ResolveResult{}, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("malformed id: %w", approval.ErrNotFound)
	}
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return ResolveResult{}, err
	}

	// links are only ever issued for time-off family requests
	if !approval.Type(req.Type).IsTimeOffFamily() {
		return ResolveResult{}, fmt.Errorf("%s has no action links: %w", req.Type, approval.ErrNotFound)
	}
	if !s.links.Verify(req, action, token) {
		s.log.Warn("action link token mismatch", zap.String("approval_id", rawID), zap.String("action", string(action)))
		return ResolveResult{}, fmt.Errorf("token mismatch: %w", approval.ErrUnauthorized)
	}

	result := ResolveResult{
		RequestID:    req.ID.String(),
		Type:         approval.Type(req.Type),
		Status:       approval.Status(req.Status),
		Action:       action,
		EmployeeName: employeeName(req),
	}

	outcome, err := approval.Transition(approval.Status(req.Status), action)
	if err != nil {
		return result, err
	}

	updated, err := s.requests.Transition(ctx, req.ID, outcome, s.now(), nil)
	if err != nil {
		if errors.Is(err, approval.ErrAlreadyResolved) && updated != nil {
			result.Status = approval.Status(updated.Status)
		}
		return result, err
	}
	result.Status = approval.Status(updated.Status)

	auditAction := model.ActionRejectRequest
	event := websocket.EventApprovalRejected
	if outcome == approval.StatusApproved {
		auditAction = model.ActionApproveRequest
		event = websocket.EventApprovalApproved
	}
	s.audit.Record(ctx, nil, auditAction, updated.ID.String(), approval.Type(updated.Type).Label(), map[string]interface{}{
		"via": "email_link",
	})

	if outcome == approval.StatusApproved {
		if _, err := s.materializer.TimeOff(ctx, updated); err != nil {
			// the approval stands; an admin can re-run materialization
			s.log.Error("time-off entry materialization failed",
				zap.String("approval_id", updated.ID.String()),
				zap.Error(err),
			)
			result.MaterializationError = true
		} else {
			result.Materialized = true
			s.audit.Record(ctx, nil, model.ActionMaterializeTimeOff, updated.ID.String(), result.EmployeeName, nil)
		}
	}

	s.events.Publish(approvalEvent(event, updated))
	return result, nil
}

func employeeName(req *model.ApprovalRequest) string {
	payload, err := approval.DecodePayload(approval.Type(req.Type), req.RequestData)
	if err != nil {
		return ""
	}
	if p, ok := payload.(*approval.TimeOffPayload); ok {
		return p.EmployeeName
	}
	return ""
}
