package handler

import (
	"net/http"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/middleware"
	"github.com/staffsched/approvals/internal/service"
	"github.com/staffsched/approvals/pkg/pagination"
	"github.com/staffsched/approvals/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
	auth            *middleware.Auth
}

func NewApprovalHandler(approvalService service.ApprovalService, auth *middleware.Auth) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService, auth: auth}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	approvals.Use(h.auth.RequireRole(SubmitterRoles...))
	{
		approvals.GET("", h.ListApprovalRequests)
		approvals.GET("/:id", h.GetApprovalRequest)
		approvals.PUT("/:id/approve", h.ApproveRequest)
		approvals.PUT("/:id/reject", h.RejectRequest)
		approvals.POST("/:id/materialize", h.RematerializeRequest)
	}
}

// ListApprovalRequests returns approval requests, optionally filtered by status and type
// @Summary      List approval requests
// @Description  Admins see every request; managers see the ones they submitted or must decide
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "pending, approved or rejected"
// @Param        type    query     string  false  "profile_creation, time_off, sick_leave or annual_leave"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Failure      400     {object}  response.Response
// @Router       /api/approvals [get]
func (h *ApprovalHandler) ListApprovalRequests(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	status := c.Query("status")
	if status != "" && !approval.Status(status).IsValid() {
		c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, "validation_error", "status: unknown status"))
		return
	}
	kind := c.Query("type")
	if kind != "" && !approval.Type(kind).IsValid() {
		c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, "validation_error", "type: unknown type"))
		return
	}

	p := pagination.Parse(c)
	filter := service.ApprovalFilter{
		Status: status,
		Type:   kind,
		Page:   p.Page,
		Limit:  p.Limit,
	}

	approvals, total, err := h.approvalService.ListApprovalRequests(c.Request.Context(), viewer, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(approvals, total)))
}

// GetApprovalRequest returns one request visible to the caller
// @Summary      Get approval request
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Approval request id"
// @Success      200  {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/approvals/{id} [get]
func (h *ApprovalHandler) GetApprovalRequest(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	result, err := h.approvalService.GetApprovalRequest(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ApproveRequest approves a pending approval request
// @Summary      Approve request
// @Description  Admins approve anything; the assigned approver may approve time-off requests. Approving a signup creates the profile.
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Approval request id"
// @Success      200  {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/approvals/{id}/approve [put]
func (h *ApprovalHandler) ApproveRequest(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	result, err := h.approvalService.ApproveRequest(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RejectRequest rejects a pending approval request
// @Summary      Reject request
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true   "Approval request id"
// @Param        payload  body      service.RejectRequestDTO  false  "Optional reason"
// @Success      200      {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/{id}/reject [put]
func (h *ApprovalHandler) RejectRequest(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	var req service.RejectRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// reason is optional
		req.Reason = ""
	}

	result, err := h.approvalService.RejectRequest(c.Request.Context(), viewer, c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RematerializeRequest re-runs the calendar write for an approved time-off request
// @Summary      Retry calendar entry
// @Description  Admin only. Idempotent upsert of the time-off entry for an approved request.
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Approval request id"
// @Success      200  {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/approvals/{id}/materialize [post]
func (h *ApprovalHandler) RematerializeRequest(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	result, err := h.approvalService.RematerializeRequest(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// viewerFrom reads the session set by RequireRole, answering 401 itself when absent.
func viewerFrom(c *gin.Context) (service.Viewer, bool) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return service.Viewer{}, false
	}
	return service.Viewer{UserID: session.UserID, Role: approval.Role(session.Role)}, true
}
