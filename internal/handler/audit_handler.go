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

type AuditHandler struct {
	auditService service.AuditService
	auth         *middleware.Auth
}

func NewAuditHandler(auditService service.AuditService, auth *middleware.Auth) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.auth.RequireRole(string(approval.RoleAdmin)))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs lists approval workflow history, newest first
// @Summary      Get audit logs
// @Description  Rows written on create, approve, reject, materialize and failed notification
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action     query     string  false  "Filter by action, e.g. APPROVE_REQUEST"
// @Param        entity_id  query     string  false  "Filter by approval request id"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=response.Page}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), service.AuditFilter{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(logs, total)))
}
