package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/model"
	"github.com/staffsched/approvals/pkg/actiontoken"
)

// LinkBuilder turns a stored request into approve/reject URLs.
type LinkBuilder struct {
	signer  *actiontoken.Signer
	baseURL string
	path    string
}

func NewLinkBuilder(signer *actiontoken.Signer, baseURL, path string) *LinkBuilder {
	return &LinkBuilder{
		signer:  signer,
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    path,
	}
}

// URL returns <base><path>?id=&action=&token= for one action on req.
func (b *LinkBuilder) URL(req *model.ApprovalRequest, action approval.Action) (string, error) {
	token, err := b.signer.Issue(req.ID.String(), req.CreatedAt, string(action))
	if err != nil {
		return "", fmt.Errorf("issue %s token: %w", action, err)
	}
	q := url.Values{}
	q.Set("id", req.ID.String())
	q.Set("action", string(action))
	q.Set("token", token)
	return b.baseURL + b.path + "?" + q.Encode(), nil
}

// Verify checks a token presented for (req, action).
func (b *LinkBuilder) Verify(req *model.ApprovalRequest, action approval.Action, token string) bool {
	return b.signer.Verify(req.ID.String(), req.CreatedAt, string(action), token)
}
