package service_test

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/database/dbtest"
	"github.com/staffsched/approvals/internal/email"
	"github.com/staffsched/approvals/internal/model"
	"github.com/staffsched/approvals/internal/repository"
	"github.com/staffsched/approvals/internal/service"
	"github.com/staffsched/approvals/internal/websocket"
	"github.com/staffsched/approvals/pkg/actiontoken"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingProvider struct {
	mu   sync.Mutex
	sent []email.Message
	fail bool
}

func (p *recordingProvider) Send(ctx context.Context, msg email.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return "", email.ErrProviderFailure
	}
	p.sent = append(p.sent, msg)
	return "email-" + uuid.NewString(), nil
}

func (p *recordingProvider) messages() []email.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]email.Message(nil), p.sent...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) Publish(ev websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Event)
	}
	return out
}

// failingTimeOffRepo stands in for a calendar store that is down.
type failingTimeOffRepo struct {
	repository.TimeOffRepository
}

func (failingTimeOffRepo) UpsertForApproval(ctx context.Context, entry *model.TimeOffEntry) error {
	return gorm.ErrInvalidDB
}

type harness struct {
	db          *gorm.DB
	requests    repository.ApprovalRepository
	profiles    repository.ProfileRepository
	timeOff     repository.TimeOffRepository
	audits      repository.AuditRepository
	links       *service.LinkBuilder
	provider    *recordingProvider
	events      *recordingPublisher
	submissions service.SubmissionService
	resolutions service.ResolutionService
	approvals   service.ApprovalService
}

type harnessOption func(h *harness)

func withFailingCalendar() harnessOption {
	return func(h *harness) { h.timeOff = failingTimeOffRepo{TimeOffRepository: h.timeOff} }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	db := dbtest.New(t)
	log := zap.NewNop()

	signer, err := actiontoken.NewSigner("test-link-secret")
	require.NoError(t, err)

	h := &harness{
		db:       db,
		requests: repository.NewApprovalRepository(db),
		profiles: repository.NewProfileRepository(db),
		timeOff:  repository.NewTimeOffRepository(db),
		audits:   repository.NewAuditRepository(db),
		links:    service.NewLinkBuilder(signer, "https://sched.example.com/", "/approvals/resolve"),
		provider: &recordingProvider{},
		events:   &recordingPublisher{},
	}
	for _, opt := range opts {
		opt(h)
	}

	orgs := repository.NewOrgRepository(db)
	audit := service.NewAuditService(h.audits, log)
	resolver := service.NewApproverResolver(orgs, h.profiles)
	notifier := service.NewNotificationService(h.provider, h.links, "noreply@example.com", log)
	materializer := service.NewMaterializer(h.timeOff, h.profiles)

	h.submissions = service.NewSubmissionService(h.requests, orgs, h.profiles, resolver, notifier, audit, h.events, log)
	h.resolutions = service.NewResolutionService(h.requests, h.links, materializer, audit, h.events, log)
	h.approvals = service.NewApprovalService(h.requests, repository.NewTransactionManager(db), materializer, audit, h.events, log)
	return h
}

// linkInput rebuilds the action link the approver received for id.
func (h *harness) linkInput(t *testing.T, id string, action approval.Action) service.ResolveInput {
	t.Helper()
	req, err := h.requests.FindByID(context.Background(), uuid.MustParse(id))
	require.NoError(t, err)

	raw, err := h.links.URL(req, action)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	return service.ResolveInput{ID: q.Get("id"), Action: q.Get("action"), Token: q.Get("token")}
}

func (h *harness) entriesFor(t *testing.T, employeeID uuid.UUID) []model.TimeOffEntry {
	t.Helper()
	entries, err := h.timeOff.ListByEmployee(context.Background(), employeeID)
	require.NoError(t, err)
	return entries
}

func (h *harness) countRequests(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&model.ApprovalRequest{}).Count(&n).Error)
	return n
}

func timeOffFor(org *dbtest.Org) service.TimeOffSubmission {
	return service.TimeOffSubmission{
		EmployeeID: org.Employee.ID.String(),
		StartDate:  "2026-03-02",
		EndDate:    "2026-03-04",
		Notes:      "family trip",
	}
}

// storeManager seeds a manager of org's store, the usual in-scope requester. The store tier
// skips the requester, so resolution falls through to the next tier.
func (h *harness) storeManager(t *testing.T, org *dbtest.Org) uuid.UUID {
	t.Helper()
	return dbtest.SeedProfile(t, h.db, "store_manager", func(p *model.Profile) { p.StoreID = &org.Store.ID }).ID
}
