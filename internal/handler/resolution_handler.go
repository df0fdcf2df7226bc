package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/middleware"
	"github.com/staffsched/approvals/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed pages/*.html
var pageFS embed.FS

var pages = template.Must(template.ParseFS(pageFS, "pages/*.html"))

const invalidLinkMessage = "This approval link is invalid or has expired."

// resultPage is the data behind the HTML shown to whoever clicked an email link.
type resultPage struct {
	Title   string
	Message string
	Detail  string
	Tone    string // success, info, error
}

type ResolutionHandler struct {
	resolutionService service.ResolutionService
	limiter           *middleware.RateLimiter
}

func NewResolutionHandler(resolutionService service.ResolutionService, limiter *middleware.RateLimiter) *ResolutionHandler {
	return &ResolutionHandler{resolutionService: resolutionService, limiter: limiter}
}

func (h *ResolutionHandler) RegisterRoutes(router *gin.RouterGroup, linkPath string) {
	router.GET(linkPath, h.limiter.Middleware(), h.Resolve)
}

// Resolve applies an emailed approve or reject link
// @Summary      Resolve approval link
// @Description  Verifies the action token, applies the transition once and materializes approved time off. Responds with an HTML page.
// @Tags         approvals
// @Produce      html
// @Param        id      query     string  true  "Approval request id"
// @Param        action  query     string  true  "approve or reject"
// @Param        token   query     string  true  "Action token from the email"
// @Success      200     {string}  string  "HTML result page"
// @Failure      400     {string}  string  "HTML error page"
// @Failure      404     {string}  string  "HTML error page"
// @Failure      409     {string}  string  "HTML already resolved page"
// @Router       /approvals/resolve [get]
func (h *ResolutionHandler) Resolve(c *gin.Context) {
	var in service.ResolveInput
	if err := c.ShouldBindQuery(&in); err != nil {
		h.render(c, http.StatusBadRequest, resultPage{Title: "Invalid link", Message: "This approval link is incomplete.", Tone: "error"})
		return
	}

	result, err := h.resolutionService.Resolve(c.Request.Context(), in)
	if err != nil {
		status, page := errorPage(result, err)
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		h.render(c, status, page)
		return
	}

	h.render(c, http.StatusOK, successPage(result))
}

func (h *ResolutionHandler) render(c *gin.Context, status int, page resultPage) {
	c.Header("Cache-Control", "no-store")
	c.Header("Referrer-Policy", "no-referrer")
	c.Render(status, render.HTML{Template: pages, Name: "resolve_result.html", Data: page})
}

func successPage(result service.ResolveResult) resultPage {
	who := result.EmployeeName
	if who == "" {
		who = "the employee"
	}
	label := strings.ToLower(result.Type.Label())

	if result.Status == approval.StatusRejected {
		return resultPage{
			Title:   "Request rejected",
			Message: fmt.Sprintf("The %s request for %s has been rejected.", label, who),
			Tone:    "info",
		}
	}

	page := resultPage{
		Title:   "Request approved",
		Message: fmt.Sprintf("The %s request for %s has been approved and added to the calendar.", label, who),
		Tone:    "success",
	}
	if result.MaterializationError {
		page.Message = fmt.Sprintf("The %s request for %s has been approved.", label, who)
		page.Detail = "The calendar entry could not be created yet. An administrator can retry it from the admin panel."
	}
	return page
}

func errorPage(result service.ResolveResult, err error) (int, resultPage) {
	switch {
	case errors.Is(err, approval.ErrAlreadyResolved):
		return http.StatusConflict, resultPage{
			Title:   "Already resolved",
			Message: fmt.Sprintf("This request has already been %s. No further action is needed.", result.Status),
			Tone:    "info",
		}
	case errors.Is(err, approval.ErrValidation):
		return http.StatusBadRequest, resultPage{Title: "Invalid link", Message: "This approval link is incomplete.", Tone: "error"}
	case errors.Is(err, approval.ErrUnauthorized), errors.Is(err, approval.ErrNotFound):
		// a forged token and an unknown id look identical so the link cannot be used to enumerate ids
		return http.StatusNotFound, resultPage{Title: "Invalid link", Message: invalidLinkMessage, Tone: "error"}
	default:
		return http.StatusInternalServerError, resultPage{
			Title:   "Something went wrong",
			Message: "The request could not be processed. Please try the link again later.",
			Tone:    "error",
		}
	}
}
