package handler

import (
	"net/http"

	"erp/internal/middleware"
	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type PerformaHandler struct {
	performaService service.PerformaService
}

func NewPerformaHandler(performaService service.PerformaService) *PerformaHandler {
	return &PerformaHandler{performaService: performaService}
}

func (h *PerformaHandler) RegisterRoutes(router *gin.RouterGroup) {
	performas := router.Group("/api/performa-invoices")
	{
		performas.GET("", middleware.RequirePermission(middleware.PermPerformaRead), h.ListPerformas)
		performas.GET("/:id", middleware.RequirePermission(middleware.PermPerformaRead), h.GetPerforma)
		performas.POST("", middleware.RequirePermission(middleware.PermPerformaWrite), h.CreatePerforma)
		performas.PUT("/:id", middleware.RequirePermission(middleware.PermPerformaWrite), h.UpdatePerforma)
		performas.DELETE("/:id", middleware.RequirePermission(middleware.PermPerformaWrite), h.DeletePerforma)
		performas.POST("/:id/cancel", middleware.RequirePermission(middleware.PermPerformaWrite), h.CancelPerforma)
		performas.POST("/:id/convert", middleware.RequirePermission(middleware.PermPerformaConv), h.ConvertToSales)
	}
}

// CreatePerforma saves a draft invoice. Drafts never touch stock.
// @Summary      Create performa invoice
// @Tags         performa
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PerformaRequest  true  "Draft payload"
// @Success      201      {object}  response.Response{data=service.PerformaResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/performa-invoices [post]
func (h *PerformaHandler) CreatePerforma(c *gin.Context) {
	var req service.PerformaRequest
	if !bindJSON(c, &req) {
		return
	}
	performa, err := h.performaService.CreatePerforma(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, performa))
}

// UpdatePerforma replaces a pending draft
// @Summary      Update performa invoice
// @Tags         performa
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Performa ID"
// @Param        payload  body      service.PerformaRequest  true  "Draft payload"
// @Success      200      {object}  response.Response{data=service.PerformaResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response  "Draft already cancelled or converted"
// @Router       /api/performa-invoices/{id} [put]
func (h *PerformaHandler) UpdatePerforma(c *gin.Context) {
	var req service.PerformaRequest
	if !bindJSON(c, &req) {
		return
	}
	performa, err := h.performaService.UpdatePerforma(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, performa))
}

// ListPerformas returns paginated drafts
// @Summary      List performa invoices
// @Tags         performa
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "Pending Approval, Cancelled, Converted to Sales"
// @Param        customer_id  query     string  false  "Customer ID"
// @Param        search       query     string  false  "Invoice number or customer name"
// @Param        date_range   query     string  false  "today, this_week, this_month, custom, ..."
// @Param        custom_date  query     string  false  "YYYY-MM-DD when date_range=custom"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200          {object}  response.Response{data=response.Page}
// @Router       /api/performa-invoices [get]
func (h *PerformaHandler) ListPerformas(c *gin.Context) {
	query := service.PerformaListQuery{
		ListQuery:  listQuery(c),
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
	}
	performas, total, err := h.performaService.ListPerformas(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, performas, total, query.Page, query.Limit)
}

// GetPerforma returns one draft
// @Summary      Get performa invoice
// @Tags         performa
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Performa ID"
// @Success      200  {object}  response.Response{data=service.PerformaResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/performa-invoices/{id} [get]
func (h *PerformaHandler) GetPerforma(c *gin.Context) {
	performa, err := h.performaService.GetPerforma(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, performa))
}

// CancelPerforma marks a pending draft cancelled
// @Summary      Cancel performa invoice
// @Tags         performa
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Performa ID"
// @Success      200  {object}  response.Response{data=service.PerformaResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/performa-invoices/{id}/cancel [post]
func (h *PerformaHandler) CancelPerforma(c *gin.Context) {
	performa, err := h.performaService.CancelPerforma(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, performa))
}

// ConvertToSales turns a pending draft into a sales invoice
// @Summary      Convert performa to sales invoice
// @Description  Reserves stock, creates the sales invoice and marks the draft converted in one transaction
// @Tags         performa
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Performa ID"
// @Success      201  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400  {object}  response.Response  "Insufficient stock"
// @Failure      404  {object}  response.Response  "Draft, customer or stock not found"
// @Failure      409  {object}  response.Response  "Draft is not pending"
// @Router       /api/performa-invoices/{id}/convert [post]
func (h *PerformaHandler) ConvertToSales(c *gin.Context) {
	invoice, err := h.performaService.ConvertToSales(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// DeletePerforma removes a draft that was not converted
// @Summary      Delete performa invoice
// @Tags         performa
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Performa ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/performa-invoices/{id} [delete]
func (h *PerformaHandler) DeletePerforma(c *gin.Context) {
	if err := h.performaService.DeletePerforma(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Performa invoice deleted successfully"}))
}
