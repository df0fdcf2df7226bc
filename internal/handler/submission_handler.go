package handler

import (
	"net/http"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/middleware"
	"github.com/staffsched/approvals/internal/service"
	"github.com/staffsched/approvals/pkg/response"

	"github.com/gin-gonic/gin"
)

// SubmitterRoles may file time-off requests for employees in their scope.
var SubmitterRoles = []string{
	string(approval.RoleAdmin),
	string(approval.RoleCompanyManager),
	string(approval.RoleBrandManager),
	string(approval.RoleStoreManager),
}

type SubmissionHandler struct {
	submissionService service.SubmissionService
	auth              *middleware.Auth
	limiter           *middleware.RateLimiter
}

func NewSubmissionHandler(submissionService service.SubmissionService, auth *middleware.Auth, limiter *middleware.RateLimiter) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		auth:              auth,
		limiter:           limiter,
	}
}

func (h *SubmissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/time-off-requests", h.auth.RequireRole(SubmitterRoles...), h.SubmitTimeOff)
	router.POST("/api/signup-requests", h.limiter.Middleware(), h.SubmitSignup)
}

// SubmitTimeOff files a time-off request and emails the resolved approver
// @Summary      Submit time-off request
// @Description  Resolves the approver through the store, brand, company and admin tiers, stores a pending request and emails approve/reject links
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TimeOffSubmission  true  "Time-off request"
// @Success      201      {object}  response.Response{data=service.SubmissionResult}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/time-off-requests [post]
func (h *SubmissionHandler) SubmitTimeOff(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	var req service.TimeOffSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.submissionService.SubmitTimeOff(c.Request.Context(), session.UserID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// SubmitSignup files a profile creation request for admin review
// @Summary      Request an account
// @Description  Stores a pending profile_creation request with a bcrypt-hashed password and notifies an admin
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignupSubmission  true  "Signup request"
// @Success      201      {object}  response.Response{data=service.SubmissionResult}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /api/signup-requests [post]
func (h *SubmissionHandler) SubmitSignup(c *gin.Context) {
	var req service.SignupSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.submissionService.SubmitSignup(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}
