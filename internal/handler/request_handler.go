package handler

import (
	"errors"
	"io"
	"net/http"

	"backend/internal/export"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/internal/workflow"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RequestHandler struct {
	requestService service.PurchaseRequestService
	exportService  *export.Service
}

// NewRequestHandler sets up the routing dependencies for purchase request endpoints
func NewRequestHandler(requestService service.PurchaseRequestService, exportService *export.Service) *RequestHandler {
	return &RequestHandler{requestService: requestService, exportService: exportService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.POST("", middleware.RequireRole(model.RoleStaff), h.CreateRequest)
		requests.GET("", middleware.RequireRole(model.AllRoles...), h.ListRequests)

		// Finance-only aggregates; registered before /:id so gin does not
		// swallow them as id parameters
		requests.GET("/stats", middleware.RequireRole(model.RoleFinance), h.GetStats)
		requests.GET("/export", middleware.RequireRole(model.RoleFinance), h.ExportRequests)

		requests.GET("/:id", middleware.RequireRole(model.AllRoles...), h.GetRequest)
		requests.PUT("/:id", middleware.RequireRole(model.RoleStaff), h.UpdateRequest)
		requests.POST("/:id/receipt", middleware.RequireRole(model.RoleStaff), h.SubmitReceipt)
	}
}

// mapServiceError translates service errors into HTTP status codes
func mapServiceError(err error) int {
	var transition *workflow.ErrInvalidTransition
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotPending), errors.Is(err, service.ErrNotApproved), errors.As(err, &transition):
		return http.StatusBadRequest
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// readUpload pulls a single multipart file field into memory
func readUpload(c *gin.Context, field string) (string, []byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", nil, err
	}
	f, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return fileHeader.Filename, content, nil
}

// CreateRequest handles POST /requests with a multipart proforma attachment
// @Summary      Create purchase request
// @Description  Creates a purchase request with an attached proforma document; field extraction runs in the background of the call and never blocks creation
// @Tags         requests
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title        formData  string  true   "Request title"
// @Param        description  formData  string  false  "Request description"
// @Param        amount       formData  string  true   "Requested amount"
// @Param        proforma     formData  file    false  "Proforma document (pdf, jpg, jpeg, png)"
// @Success      201  {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var input service.CreatePurchaseRequestInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	// Proforma attachment is optional; unsupported formats degrade to an
	// error mapping in the extracted data rather than failing the create
	if filename, content, err := readUpload(c, "proforma"); err == nil {
		input.ProformaFilename = filename
		input.ProformaContent = content
	}

	request, err := h.requestService.Create(c.Request.Context(), userID, input)
	if err != nil {
		status := mapServiceError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// ListRequests handles GET /requests scoped by the caller's role
// @Summary      List purchase requests
// @Description  Retrieves a paginated list of requests visible to the caller: staff see their own, approvers see pending plus ones they decided, finance sees all
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by status (pending, approved, rejected)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}
	role := currentUserRole(c)

	params := pagination.Parse(c)
	status := c.Query("status")

	requests, total, err := h.requestService.List(c.Request.Context(), userID, role, status, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch requests"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetRequest handles GET /requests/:id with object-level visibility checks
// @Summary      Get purchase request
// @Description  Fetch a single request's detail including approvals and extracted document data
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}
	role := currentUserRole(c)

	request, err := h.requestService.Get(c.Request.Context(), userID, role, c.Param("id"))
	if err != nil {
		status := mapServiceError(err)
		if status == http.StatusBadRequest {
			status = http.StatusNotFound
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// UpdateRequest handles PUT /requests/:id for pending requests by their creator
// @Summary      Update purchase request
// @Description  Updates title, description or amount of a pending request; only the creator may edit
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                               true  "Request ID"
// @Param        payload  body      service.UpdatePurchaseRequestInput   true  "Update Payload"
// @Success      200  {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /requests/{id} [put]
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var input service.UpdatePurchaseRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	request, err := h.requestService.Update(c.Request.Context(), userID, c.Param("id"), input)
	if err != nil {
		status := mapServiceError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// SubmitReceipt handles POST /requests/:id/receipt with a multipart receipt attachment
// @Summary      Submit receipt
// @Description  Attaches a receipt to an approved request and reconciles it against the generated purchase order
// @Tags         requests
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Request ID"
// @Param        receipt  formData  file    true  "Receipt document (pdf, jpg, jpeg, png)"
// @Success      200  {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /requests/{id}/receipt [post]
func (h *RequestHandler) SubmitReceipt(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	filename, content, err := readUpload(c, "receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Receipt document is required"))
		return
	}

	request, err := h.requestService.SubmitReceipt(c.Request.Context(), userID, c.Param("id"), filename, content)
	if err != nil {
		status := mapServiceError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// GetStats handles GET /requests/stats for the finance dashboard
// @Summary      Purchase request statistics
// @Description  Aggregate counts per status plus the total approved amount
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.RequestStats}
// @Failure      500  {object}  response.Response
// @Router       /requests/stats [get]
func (h *RequestHandler) GetStats(c *gin.Context) {
	stats, err := h.requestService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to compute statistics"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// ExportRequests handles GET /requests/export returning an XLSX workbook
// @Summary      Export purchase requests
// @Description  Streams an XLSX workbook of all purchase requests, optionally filtered by status
// @Tags         requests
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        status  query  string  false  "Filter by status (pending, approved, rejected)"
// @Success      200  {file}    file
// @Failure      500  {object}  response.Response
// @Router       /requests/export [get]
func (h *RequestHandler) ExportRequests(c *gin.Context) {
	content, err := h.exportService.ExportRequestsXLSX(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build export"))
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+export.SuggestedFilename())
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}
