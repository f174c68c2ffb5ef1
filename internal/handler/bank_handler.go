package handler

import (
	"net/http"

	"erp/internal/middleware"
	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type BankHandler struct {
	bankService service.BankService
}

func NewBankHandler(bankService service.BankService) *BankHandler {
	return &BankHandler{bankService: bankService}
}

func (h *BankHandler) RegisterRoutes(router *gin.RouterGroup) {
	bank := router.Group("/api/bank-transactions")
	{
		bank.GET("", middleware.RequirePermission(middleware.PermBankRead), h.ListTransactions)
		bank.POST("", middleware.RequirePermission(middleware.PermBankWrite), h.CreateTransaction)
		bank.DELETE("/:id", middleware.RequirePermission(middleware.PermBankWrite), h.DeleteTransaction)
	}
}

// ListTransactions returns bank transactions with the running balance
// @Summary      List bank transactions
// @Tags         bank
// @Security     BearerAuth
// @Produce      json
// @Param        account_name  query     string  false  "Account name"
// @Param        type          query     string  false  "credit or debit"
// @Param        search        query     string  false  "Search in description or reference"
// @Param        date_range    query     string  false  "today, this_week, this_month, custom, ..."
// @Param        custom_date   query     string  false  "YYYY-MM-DD when date_range=custom"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Items per page (default 20)"
// @Success      200           {object}  response.Response{data=response.Page}
// @Router       /api/bank-transactions [get]
func (h *BankHandler) ListTransactions(c *gin.Context) {
	query := service.BankListQuery{
		ListQuery:   listQuery(c),
		AccountName: c.Query("account_name"),
		Type:        c.Query("type"),
	}
	result, total, err := h.bankService.ListTransactions(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, result, total, query.Page, query.Limit)
}

// CreateTransaction records a bank credit or debit
// @Summary      Create bank transaction
// @Tags         bank
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBankTransactionRequest  true  "Transaction payload"
// @Success      201      {object}  response.Response{data=service.BankTransactionResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/bank-transactions [post]
func (h *BankHandler) CreateTransaction(c *gin.Context) {
	var req service.CreateBankTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.bankService.CreateTransaction(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tx))
}

// DeleteTransaction removes a bank transaction
// @Summary      Delete bank transaction
// @Tags         bank
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/bank-transactions/{id} [delete]
func (h *BankHandler) DeleteTransaction(c *gin.Context) {
	if err := h.bankService.DeleteTransaction(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Bank transaction deleted successfully"}))
}
