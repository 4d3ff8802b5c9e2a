package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

// NewAuditHandler sets up the routing dependencies for audit trail endpoints
func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit", middleware.RequireRole(model.RoleFinance), h.ListAuditLog)
}

// ListAuditLog handles GET /audit for finance oversight
// @Summary      List audit trail
// @Description  Retrieves a paginated list of workflow audit entries, optionally filtered by action
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        action  query     string  false  "Filter by action (e.g. APPROVE_REQUEST)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /audit [get]
func (h *AuditHandler) ListAuditLog(c *gin.Context) {
	params := pagination.Parse(c)
	action := c.Query("action")

	entries, total, err := h.auditService.List(c.Request.Context(), action, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch audit log"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}
