package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/middleware"
	"github.com/staffsched/approvals/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionSecret = []byte("handler-secret")

// --- fakes ---

type fakeSubmissions struct {
	timeOff func(ctx context.Context, requesterID uuid.UUID, in service.TimeOffSubmission) (service.SubmissionResult, error)
	signup  func(ctx context.Context, in service.SignupSubmission) (service.SubmissionResult, error)
}

func (f *fakeSubmissions) SubmitTimeOff(ctx context.Context, requesterID uuid.UUID, in service.TimeOffSubmission) (service.SubmissionResult, error) {
	return f.timeOff(ctx, requesterID, in)
}

func (f *fakeSubmissions) SubmitSignup(ctx context.Context, in service.SignupSubmission) (service.SubmissionResult, error) {
	return f.signup(ctx, in)
}

type fakeResolutions struct {
	resolve func(ctx context.Context, in service.ResolveInput) (service.ResolveResult, error)
}

func (f *fakeResolutions) Resolve(ctx context.Context, in service.ResolveInput) (service.ResolveResult, error) {
	return f.resolve(ctx, in)
}

type fakeApprovals struct {
	list          func(ctx context.Context, viewer service.Viewer, filter service.ApprovalFilter) ([]service.ApprovalRequestResponse, int64, error)
	get           func(ctx context.Context, viewer service.Viewer, id string) (service.ApprovalRequestResponse, error)
	approve       func(ctx context.Context, viewer service.Viewer, id string) (service.ApprovalRequestResponse, error)
	reject        func(ctx context.Context, viewer service.Viewer, id string, reason string) (service.ApprovalRequestResponse, error)
	rematerialize func(ctx context.Context, viewer service.Viewer, id string) (service.ApprovalRequestResponse, error)
}

func (f *fakeApprovals) ListApprovalRequests(ctx context.Context, viewer service.Viewer, filter service.ApprovalFilter) ([]service.ApprovalRequestResponse, int64, error) {
	return f.list(ctx, viewer, filter)
}

func (f *fakeApprovals) GetApprovalRequest(ctx context.Context, viewer service.Viewer, id string) (service.ApprovalRequestResponse, error) {
	return f.get(ctx, viewer, id)
}

func (f *fakeApprovals) ApproveRequest(ctx context.Context, viewer service.Viewer, id string) (service.ApprovalRequestResponse, error) {
	return f.approve(ctx, viewer, id)
}

func (f *fakeApprovals) RejectRequest(ctx context.Context, viewer service.Viewer, id string, reason string) (service.ApprovalRequestResponse, error) {
	return f.reject(ctx, viewer, id, reason)
}

func (f *fakeApprovals) RematerializeRequest(ctx context.Context, viewer service.Viewer, id string) (service.ApprovalRequestResponse, error) {
	return f.rematerialize(ctx, viewer, id)
}

type fakeAudit struct {
	list func(ctx context.Context, filter service.AuditFilter) ([]service.AuditLogResponse, int64, error)
}

func (f *fakeAudit) Record(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details map[string]interface{}) {
}

func (f *fakeAudit) GetAuditLogs(ctx context.Context, filter service.AuditFilter) ([]service.AuditLogResponse, int64, error) {
	return f.list(ctx, filter)
}

// --- helpers ---

func newRouter(register func(r *gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r.Group(""))
	return r
}

func bearer(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID.String(), "role": role}).SignedString(sessionSecret)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(r http.Handler, method, target, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  string          `json:"status"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// --- submission ---

func TestSubmitTimeOffHandler(t *testing.T) {
	userID := uuid.New()
	employeeID := uuid.NewString()

	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"created", fmt.Sprintf(`{"employee_id":%q,"start_date":"2026-03-02","end_date":"2026-03-03"}`, employeeID), nil, http.StatusCreated, ""},
		{"missing fields", `{"employee_id":"x"}`, nil, http.StatusBadRequest, "validation_error"},
		{"no approver", fmt.Sprintf(`{"employee_id":%q,"start_date":"2026-03-02","end_date":"2026-03-03"}`, employeeID), approval.ErrNoApproverFound, http.StatusUnprocessableEntity, "no_approver_found"},
		{"field error", fmt.Sprintf(`{"employee_id":%q,"start_date":"2026-03-04","end_date":"2026-03-03"}`, employeeID), approval.NewValidationError("end_date", "must be on or after start_date"), http.StatusBadRequest, "validation_error"},
		{"unknown employee", fmt.Sprintf(`{"employee_id":%q,"start_date":"2026-03-02","end_date":"2026-03-03"}`, employeeID), fmt.Errorf("employee: %w", approval.ErrNotFound), http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSubmissions{
				timeOff: func(ctx context.Context, requesterID uuid.UUID, in service.TimeOffSubmission) (service.SubmissionResult, error) {
					assert.Equal(t, userID, requesterID)
					if tt.err != nil {
						return service.SubmissionResult{}, tt.err
					}
					return service.SubmissionResult{ID: "r1", Status: "pending", NotificationSent: true}, nil
				},
			}
			h := NewSubmissionHandler(svc, middleware.NewAuth(sessionSecret), middleware.NewRateLimiter(1000, 1000))
			r := newRouter(h.RegisterRoutes)

			w := do(r, http.MethodPost, "/api/time-off-requests", bearer(t, userID, "store_manager"), tt.body)
			assert.Equal(t, tt.status, w.Code)

			env := decode(t, w)
			assert.Equal(t, tt.code, env.Code)
			if tt.status == http.StatusCreated {
				assert.True(t, env.Success)
				assert.JSONEq(t, `{"id":"r1","status":"pending","notification_sent":true}`, string(env.Data))
			}
		})
	}
}

func TestSubmitTimeOffHandler_RequiresDashboardRole(t *testing.T) {
	h := NewSubmissionHandler(&fakeSubmissions{}, middleware.NewAuth(sessionSecret), middleware.NewRateLimiter(1000, 1000))
	r := newRouter(h.RegisterRoutes)

	w := do(r, http.MethodPost, "/api/time-off-requests", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/time-off-requests", bearer(t, uuid.New(), "employee"), `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmitSignupHandler(t *testing.T) {
	svc := &fakeSubmissions{
		signup: func(ctx context.Context, in service.SignupSubmission) (service.SubmissionResult, error) {
			if in.Email == "taken@example.com" {
				return service.SubmissionResult{}, fmt.Errorf("%w: exists", approval.ErrConflict)
			}
			return service.SubmissionResult{ID: "s1", Status: "pending", Warning: service.NotificationWarning}, nil
		},
	}
	h := NewSubmissionHandler(svc, middleware.NewAuth(sessionSecret), middleware.NewRateLimiter(1000, 1000))
	r := newRouter(h.RegisterRoutes)

	body := `{"email":"%s","password":"secret1","full_name":"N","role":"store_manager"}`

	w := do(r, http.MethodPost, "/api/signup-requests", "", fmt.Sprintf(body, "new@example.com"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, string(decode(t, w).Data), service.NotificationWarning)

	w = do(r, http.MethodPost, "/api/signup-requests", "", fmt.Sprintf(body, "taken@example.com"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decode(t, w).Code)
}

// --- resolution ---

func TestResolveHandler(t *testing.T) {
	tests := []struct {
		name     string
		result   service.ResolveResult
		err      error
		status   int
		contains string
	}{
		{"approved", service.ResolveResult{Type: approval.TypeTimeOff, Status: approval.StatusApproved, EmployeeName: "Dana Reyes", Materialized: true}, nil, http.StatusOK, "has been approved and added to the calendar"},
		{"approved without entry", service.ResolveResult{Type: approval.TypeSickLeave, Status: approval.StatusApproved, EmployeeName: "Dana Reyes", MaterializationError: true}, nil, http.StatusOK, "could not be created yet"},
		{"rejected", service.ResolveResult{Type: approval.TypeTimeOff, Status: approval.StatusRejected, EmployeeName: "Dana Reyes"}, nil, http.StatusOK, "has been rejected"},
		{"already resolved", service.ResolveResult{Status: approval.StatusRejected}, approval.ErrAlreadyResolved, http.StatusConflict, "already been rejected"},
		{"bad token", service.ResolveResult{}, approval.ErrUnauthorized, http.StatusNotFound, invalidLinkMessage},
		{"missing request", service.ResolveResult{}, approval.ErrNotFound, http.StatusNotFound, invalidLinkMessage},
		{"incomplete", service.ResolveResult{}, approval.ErrValidation, http.StatusBadRequest, "incomplete"},
		{"store down", service.ResolveResult{}, fmt.Errorf("db: connection refused"), http.StatusInternalServerError, "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.ResolveInput
			svc := &fakeResolutions{resolve: func(ctx context.Context, in service.ResolveInput) (service.ResolveResult, error) {
				got = in
				return tt.result, tt.err
			}}
			h := NewResolutionHandler(svc, middleware.NewRateLimiter(1000, 1000))
			r := newRouter(func(g *gin.RouterGroup) { h.RegisterRoutes(g, "/approvals/resolve") })

			w := do(r, http.MethodGet, "/approvals/resolve?id=abc&action=approve&token=t0k", "", "")
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			assert.Contains(t, w.Body.String(), tt.contains)
			assert.Equal(t, service.ResolveInput{ID: "abc", Action: "approve", Token: "t0k"}, got)
		})
	}
}

func TestResolveHandler_SameWordingForMissingAndForged(t *testing.T) {
	render := func(err error) (int, string) {
		svc := &fakeResolutions{resolve: func(ctx context.Context, in service.ResolveInput) (service.ResolveResult, error) {
			return service.ResolveResult{}, err
		}}
		h := NewResolutionHandler(svc, middleware.NewRateLimiter(1000, 1000))
		r := newRouter(func(g *gin.RouterGroup) { h.RegisterRoutes(g, "/approvals/resolve") })
		w := do(r, http.MethodGet, "/approvals/resolve?id=a&action=approve&token=b", "", "")
		return w.Code, w.Body.String()
	}
	missingStatus, missingBody := render(approval.ErrNotFound)
	forgedStatus, forgedBody := render(approval.ErrUnauthorized)
	assert.Equal(t, http.StatusNotFound, forgedStatus)
	assert.Equal(t, missingStatus, forgedStatus)
	assert.Equal(t, missingBody, forgedBody)
}

func TestResolveHandler_RateLimited(t *testing.T) {
	svc := &fakeResolutions{resolve: func(ctx context.Context, in service.ResolveInput) (service.ResolveResult, error) {
		return service.ResolveResult{}, approval.ErrNotFound
	}}
	h := NewResolutionHandler(svc, middleware.NewRateLimiter(60, 2))
	r := newRouter(func(g *gin.RouterGroup) { h.RegisterRoutes(g, "/approvals/resolve") })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/approvals/resolve?id=a&action=approve&token=b", "", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/approvals/resolve?id=a&action=approve&token=b", "", "").Code)
}

// --- admin review ---

func TestApprovalHandler(t *testing.T) {
	adminID := uuid.New()
	var seen service.Viewer
	svc := &fakeApprovals{
		list: func(ctx context.Context, viewer service.Viewer, filter service.ApprovalFilter) ([]service.ApprovalRequestResponse, int64, error) {
			seen = viewer
			assert.Equal(t, "pending", filter.Status)
			assert.Equal(t, 2, filter.Page)
			return []service.ApprovalRequestResponse{{ID: "a1"}}, 21, nil
		},
		get: func(ctx context.Context, viewer service.Viewer, id string) (service.ApprovalRequestResponse, error) {
			return service.ApprovalRequestResponse{}, approval.ErrNotFound
		},
		approve: func(ctx context.Context, viewer service.Viewer, id string) (service.ApprovalRequestResponse, error) {
			return service.ApprovalRequestResponse{}, fmt.Errorf("approval request %s is approved: %w", id, approval.ErrAlreadyResolved)
		},
		reject: func(ctx context.Context, viewer service.Viewer, id string, reason string) (service.ApprovalRequestResponse, error) {
			assert.Equal(t, "short staffed", reason)
			return service.ApprovalRequestResponse{ID: id, Status: "rejected"}, nil
		},
		rematerialize: func(ctx context.Context, viewer service.Viewer, id string) (service.ApprovalRequestResponse, error) {
			return service.ApprovalRequestResponse{}, approval.ErrForbidden
		},
	}
	h := NewApprovalHandler(svc, middleware.NewAuth(sessionSecret))
	r := newRouter(h.RegisterRoutes)
	auth := bearer(t, adminID, "admin")

	w := do(r, http.MethodGet, "/api/approvals?status=pending&page=2", auth, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.Viewer{UserID: adminID, Role: approval.RoleAdmin}, seen)
	assert.JSONEq(t, `{"items":[{"id":"a1","type":"","status":"","requester_id":null,"approver_id":null,"request_data":null,"created_at":"","approved_at":null,"rejected_at":null}],"total":21,"page":2,"limit":20}`, string(decode(t, w).Data))

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/approvals?status=done", auth, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/approvals/x", auth, "").Code)

	w = do(r, http.MethodPut, "/api/approvals/x/approve", auth, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_resolved", decode(t, w).Code)

	w = do(r, http.MethodPut, "/api/approvals/x/reject", auth, `{"reason":"short staffed"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/approvals/x/materialize", auth, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/approvals", "", "").Code)
}

func TestAuditHandler_AdminOnly(t *testing.T) {
	svc := &fakeAudit{list: func(ctx context.Context, filter service.AuditFilter) ([]service.AuditLogResponse, int64, error) {
		assert.Equal(t, "APPROVE_REQUEST", filter.Action)
		return []service.AuditLogResponse{{ID: "l1", Action: "APPROVE_REQUEST"}}, 1, nil
	}}
	h := NewAuditHandler(svc, middleware.NewAuth(sessionSecret))
	r := newRouter(h.RegisterRoutes)

	w := do(r, http.MethodGet, "/api/audit-logs?action=APPROVE_REQUEST", bearer(t, uuid.New(), "admin"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"total":1`)

	w = do(r, http.MethodGet, "/api/audit-logs", bearer(t, uuid.New(), "company_manager"), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeError(c, fmt.Errorf("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	require.Len(t, c.Errors, 1)
}
