package handler

import (
	"net/http"

	"erp/internal/middleware"
	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	{
		invoices.GET("", middleware.RequirePermission(middleware.PermInvoicesRead), h.ListInvoices)
		invoices.GET("/:id", middleware.RequirePermission(middleware.PermInvoicesRead), h.GetInvoice)
		invoices.POST("", middleware.RequirePermission(middleware.PermInvoicesWrite), h.CreateInvoice)
		invoices.POST("/preview", middleware.RequirePermission(middleware.PermInvoicesRead), h.PreviewTotals)
		invoices.DELETE("/:id", middleware.RequirePermission(middleware.PermInvoicesWrite), h.DeleteInvoice)
	}
}

// CreateInvoice issues a sales invoice and reserves its stock
// @Summary      Create sales invoice
// @Description  Computes totals server-side, reserves stock for every referenced item and assigns the invoice number
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Invoice payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response  "Validation error or insufficient stock"
// @Failure      404      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices returns a paginated list of sales invoices
// @Summary      List sales invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        payment_status  query     string  false  "pending, partial, paid"
// @Param        customer_id     query     string  false  "Customer ID"
// @Param        search          query     string  false  "Invoice number or customer name"
// @Param        date_range      query     string  false  "today, yesterday, this_week, last_week, this_month, last_month, this_year, custom"
// @Param        custom_date     query     string  false  "YYYY-MM-DD when date_range=custom"
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Items per page (default 20)"
// @Success      200             {object}  response.Response{data=response.Page}
// @Failure      400             {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	query := service.InvoiceListQuery{
		ListQuery:     listQuery(c),
		PaymentStatus: c.Query("payment_status"),
		CustomerID:    c.Query("customer_id"),
	}
	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, invoices, total, query.Page, query.Limit)
}

// GetInvoice returns one sales invoice with its items
// @Summary      Get sales invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DeleteInvoice removes an invoice without payments
// @Summary      Delete sales invoice
// @Description  Reserved stock is not returned
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Invoice deleted successfully"}))
}

// PreviewTotals computes totals for an unsaved document
// @Summary      Preview invoice totals
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TotalsRequest  true  "Items and invoice-level adjustments"
// @Success      200      {object}  response.Response{data=service.TotalsResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/preview [post]
func (h *InvoiceHandler) PreviewTotals(c *gin.Context) {
	var req service.TotalsRequest
	if !bindJSON(c, &req) {
		return
	}
	totals, err := h.invoiceService.PreviewTotals(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, totals))
}
