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

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

// NewApprovalHandler sets up the routing dependencies for approval endpoints
func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approverRoles := middleware.RequireRole(model.RoleApproverLevel1, model.RoleApproverLevel2)

	router.PATCH("/requests/:id/approve", approverRoles, h.ApproveRequest)
	router.PATCH("/requests/:id/reject", approverRoles, h.RejectRequest)
	router.GET("/approvals", approverRoles, h.ListMyDecisions)
}

// ApproveRequest handles PATCH /requests/:id/approve
// @Summary      Approve purchase request
// @Description  Records an affirmative decision; the request becomes approved once every required approver level has signed off, which also generates the purchase order
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true   "Request ID"
// @Param        payload  body      service.DecisionInput  false  "Optional comments"
// @Success      200  {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /requests/{id}/approve [patch]
func (h *ApprovalHandler) ApproveRequest(c *gin.Context) {
	h.decide(c, true)
}

// RejectRequest handles PATCH /requests/:id/reject
// @Summary      Reject purchase request
// @Description  Records a rejection; a single rejection immediately moves the request to rejected and records the comments as the rejection reason
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true   "Request ID"
// @Param        payload  body      service.DecisionInput  false  "Rejection comments"
// @Success      200  {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /requests/{id}/reject [patch]
func (h *ApprovalHandler) RejectRequest(c *gin.Context) {
	h.decide(c, false)
}

func (h *ApprovalHandler) decide(c *gin.Context, approved bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	// Comments are optional; an empty body is fine
	var input service.DecisionInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
			return
		}
	}

	var (
		request *service.PurchaseRequestResponse
		err     error
	)
	if approved {
		request, err = h.approvalService.Approve(c.Request.Context(), c.Param("id"), userID, input)
	} else {
		request, err = h.approvalService.Reject(c.Request.Context(), c.Param("id"), userID, input)
	}
	if err != nil {
		status := mapServiceError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// ListMyDecisions handles GET /approvals returning the caller's decisions
// @Summary      List my decisions
// @Description  Retrieves a paginated list of decisions recorded by the authenticated approver
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /approvals [get]
func (h *ApprovalHandler) ListMyDecisions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	params := pagination.Parse(c)

	approvals, total, err := h.approvalService.ListMyDecisions(c.Request.Context(), userID, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch approvals"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"approvals": approvals,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}
