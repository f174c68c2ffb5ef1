package handler

import (
	"net/http"

	"erp/internal/middleware"
	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments")
	{
		payments.GET("", middleware.RequirePermission(middleware.PermPaymentsRead), h.ListPayments)
		payments.POST("", middleware.RequirePermission(middleware.PermPaymentsWrite), h.ApplyPayment)
	}
}

// ApplyPayment records a customer payment against an invoice
// @Summary      Apply payment
// @Description  Adds the amount to the invoice's total paid and updates its payment status. Amounts above the outstanding balance are rejected.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ApplyPaymentRequest  true  "Payment payload"
// @Success      201      {object}  response.Response{data=service.PaymentResult}
// @Failure      400      {object}  response.Response  "Validation error or over-payment"
// @Failure      404      {object}  response.Response
// @Router       /api/payments [post]
func (h *PaymentHandler) ApplyPayment(c *gin.Context) {
	var req service.ApplyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.paymentService.ApplyPayment(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListPayments returns paginated payments
// @Summary      List payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        invoice_id   query     string  false  "Invoice ID"
// @Param        method       query     string  false  "cash, bank, upi, card, cheque"
// @Param        date_range   query     string  false  "today, this_week, this_month, custom, ..."
// @Param        custom_date  query     string  false  "YYYY-MM-DD when date_range=custom"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200          {object}  response.Response{data=response.Page}
// @Router       /api/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	query := service.PaymentListQuery{
		ListQuery: listQuery(c),
		InvoiceID: c.Query("invoice_id"),
		Method:    c.Query("method"),
	}
	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, payments, total, query.Page, query.Limit)
}
