package handler

import (
	"net/http"

	"erp/internal/middleware"
	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/api/expenses")
	{
		expenses.GET("", middleware.RequirePermission(middleware.PermExpensesRead), h.GetExpenses)
		expenses.POST("", middleware.RequirePermission(middleware.PermExpensesWrite), h.CreateExpense)
		expenses.DELETE("/:id", middleware.RequirePermission(middleware.PermExpensesWrite), h.DeleteExpense)
	}
}

// GetExpenses returns paginated expense entries
// @Summary      List expenses
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        category     query     string  false  "Expense category"
// @Param        vendor_id    query     string  false  "Vendor ID"
// @Param        search       query     string  false  "Search in description"
// @Param        date_range   query     string  false  "today, this_week, this_month, custom, ..."
// @Param        custom_date  query     string  false  "YYYY-MM-DD when date_range=custom"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200          {object}  response.Response{data=response.Page}
// @Router       /api/expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	query := service.ExpenseListQuery{
		ListQuery: listQuery(c),
		Category:  c.Query("category"),
		VendorID:  c.Query("vendor_id"),
	}
	expenses, total, err := h.expenseService.GetExpenses(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, expenses, total, query.Page, query.Limit)
}

// CreateExpense records an expense
// @Summary      Create expense
// @Tags         expenses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateExpenseRequest  true  "Expense payload"
// @Success      201      {object}  response.Response{data=service.ExpenseResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req service.CreateExpenseRequest
	if !bindJSON(c, &req) {
		return
	}
	expense, err := h.expenseService.CreateExpense(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// DeleteExpense removes an expense
// @Summary      Delete expense
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	if err := h.expenseService.DeleteExpense(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Expense deleted successfully"}))
}
