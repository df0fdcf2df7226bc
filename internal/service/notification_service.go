package service

import (
	"context"
	"fmt"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/email"
	"github.com/staffsched/approvals/internal/model"

	"go.uber.org/zap"
)

// Requester names whoever is asking, for the email body.
type Requester struct {
	Name  string
	Email string
}

// Notification is what the dispatcher hands to the email layer for one request.
type Notification struct {
	Type           approval.Type
	RequesterName  string
	RequesterEmail string
	ApproverEmail  string
	ApproverName   string
	Details        approval.Payload
	ApprovalID     string
}

type NotificationService interface {
	Send(ctx context.Context, req *model.ApprovalRequest, approver *Approver, requester Requester, details approval.Payload) (string, error)
}

type notificationService struct {
	provider email.Provider
	links    *LinkBuilder
	from     string
	log      *zap.Logger
}

func NewNotificationService(provider email.Provider, links *LinkBuilder, from string, log *zap.Logger) NotificationService {
	return &notificationService{provider: provider, links: links, from: from, log: log}
}

// Send renders the template for req's type and delivers it to the approver. Time-off family
// requests carry approve and reject links; profile creation is informational only.
func (s *notificationService) Send(ctx context.Context, req *model.ApprovalRequest, approver *Approver, requester Requester, details approval.Payload) (string, error) {
	if approver == nil || approver.Email == "" {
		return "", fmt.Errorf("%w: no recipient", approval.ErrNotificationFailed)
	}

	n := Notification{
		Type:           approval.Type(req.Type),
		RequesterName:  requester.Name,
		RequesterEmail: requester.Email,
		ApproverEmail:  approver.Email,
		ApproverName:   approver.FullName,
		Details:        details,
		ApprovalID:     req.ID.String(),
	}

	subject, body, err := s.render(req, n)
	if err != nil {
		return "", fmt.Errorf("%w: %v", approval.ErrNotificationFailed, err)
	}

	id, err := s.provider.Send(ctx, email.Message{
		From:    s.from,
		To:      []string{n.ApproverEmail},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", approval.ErrNotificationFailed, err)
	}

	s.log.Info("approval notification sent",
		zap.String("approval_id", n.ApprovalID),
		zap.String("type", string(n.Type)),
		zap.String("email_id", id),
	)
	return id, nil
}

func (s *notificationService) render(req *model.ApprovalRequest, n Notification) (string, string, error) {
	switch d := n.Details.(type) {
	case *approval.TimeOffPayload:
		approveURL, err := s.links.URL(req, approval.ActionApprove)
		if err != nil {
			return "", "", err
		}
		rejectURL, err := s.links.URL(req, approval.ActionReject)
		if err != nil {
			return "", "", err
		}
		return email.RenderTimeOff(email.TimeOffData{
			TypeLabel:     n.Type.Label(),
			EmployeeName:  d.EmployeeName,
			StoreName:     d.StoreName,
			StartDate:     d.StartDate,
			EndDate:       d.EndDate,
			Days:          d.Days(),
			Subtype:       d.Subtype,
			Notes:         d.Notes,
			RequesterName: n.RequesterName,
			ApproverName:  n.ApproverName,
			ApproveURL:    approveURL,
			RejectURL:     rejectURL,
		})
	case *approval.ProfileCreationPayload:
		return email.RenderSignup(email.SignupData{
			FullName:  d.FullName,
			Email:     d.Email,
			Role:      string(d.Role),
			AdminName: n.ApproverName,
		})
	default:
		return "", "", fmt.Errorf("no template for %s", n.Type)
	}
}
