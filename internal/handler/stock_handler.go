package handler

import (
	"net/http"

	"erp/internal/middleware"
	"erp/internal/service"
	"erp/pkg/pagination"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stocks := router.Group("/api/stocks")
	{
		stocks.GET("", middleware.RequirePermission(middleware.PermStocksRead), h.ListStocks)
		stocks.GET("/:id", middleware.RequirePermission(middleware.PermStocksRead), h.GetStock)
		stocks.GET("/:id/movements", middleware.RequirePermission(middleware.PermStocksRead), h.ListMovements)
		stocks.POST("", middleware.RequirePermission(middleware.PermStocksWrite), h.CreateStock)
		stocks.PUT("/:id", middleware.RequirePermission(middleware.PermStocksWrite), h.UpdateStock)
		stocks.POST("/:id/adjust", middleware.RequirePermission(middleware.PermStocksWrite), h.AdjustStock)
		stocks.DELETE("/:id", middleware.RequirePermission(middleware.PermStocksWrite), h.DeleteStock)
	}
}

// ListStocks returns paginated stock items
// @Summary      List stocks
// @Tags         stocks
// @Security     BearerAuth
// @Produce      json
// @Param        page      query     int     false  "Page number (default: 1)"
// @Param        limit     query     int     false  "Items per page (default: 20)"
// @Param        search    query     string  false  "Search by SKU or name"
// @Param        low_only  query     bool    false  "Only stocks at or below their threshold"
// @Success      200       {object}  response.Response{data=response.Page}
// @Router       /api/stocks [get]
func (h *StockHandler) ListStocks(c *gin.Context) {
	p := pagination.Parse(c)
	stocks, total, err := h.stockService.ListStocks(c.Request.Context(), service.StockListQuery{
		Search:  c.Query("search"),
		LowOnly: c.Query("low_only") == "true",
		Page:    p.Page,
		Limit:   p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, stocks, total, p.Page, p.Limit)
}

// GetStock returns a single stock item
// @Summary      Get stock
// @Tags         stocks
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Stock ID"
// @Success      200  {object}  response.Response{data=service.StockResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/stocks/{id} [get]
func (h *StockHandler) GetStock(c *gin.Context) {
	stock, err := h.stockService.GetStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stock))
}

// CreateStock creates a stock item with an optional opening quantity
// @Summary      Create stock
// @Tags         stocks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateStockRequest  true  "Stock payload"
// @Success      201      {object}  response.Response{data=service.StockResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/stocks [post]
func (h *StockHandler) CreateStock(c *gin.Context) {
	var req service.CreateStockRequest
	if !bindJSON(c, &req) {
		return
	}
	stock, err := h.stockService.CreateStock(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, stock))
}

// UpdateStock edits stock details. Quantity only changes through adjustments.
// @Summary      Update stock
// @Tags         stocks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Stock ID"
// @Param        payload  body      service.UpdateStockRequest  true  "Stock payload"
// @Success      200      {object}  response.Response{data=service.StockResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/stocks/{id} [put]
func (h *StockHandler) UpdateStock(c *gin.Context) {
	var req service.UpdateStockRequest
	if !bindJSON(c, &req) {
		return
	}
	stock, err := h.stockService.UpdateStock(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stock))
}

// AdjustStock applies a signed manual correction
// @Summary      Adjust stock quantity
// @Tags         stocks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Stock ID"
// @Param        payload  body      service.AdjustStockRequest  true  "Signed delta"
// @Success      200      {object}  response.Response{data=service.StockResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/stocks/{id}/adjust [post]
func (h *StockHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}
	stock, err := h.stockService.AdjustStock(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stock))
}

// DeleteStock removes a stock item
// @Summary      Delete stock
// @Tags         stocks
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Stock ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/stocks/{id} [delete]
func (h *StockHandler) DeleteStock(c *gin.Context) {
	if err := h.stockService.DeleteStock(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Stock deleted successfully"}))
}

// ListMovements returns the inventory ledger of one stock item
// @Summary      List stock movements
// @Tags         stocks
// @Security     BearerAuth
// @Produce      json
// @Param        id              path   string  true   "Stock ID"
// @Param        reference_type  query  string  false  "SALES_INVOICE, PURCHASE or ADJUSTMENT"
// @Param        date_range      query  string  false  "today, this_week, last_month, custom, ..."
// @Param        custom_date     query  string  false  "YYYY-MM-DD when date_range=custom"
// @Param        page   query     int     false  "Page number (default: 1)"
// @Param        limit  query     int     false  "Items per page (default: 20)"
// @Success      200    {object}  response.Response{data=response.Page}
// @Router       /api/stocks/{id}/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	p := pagination.Parse(c)
	movements, total, err := h.stockService.ListMovements(c.Request.Context(), c.Param("id"), service.MovementQuery{
		ReferenceType: c.Query("reference_type"),
		DateRange:     c.Query("date_range"),
		CustomDate:    c.Query("custom_date"),
		Page:          p.Page,
		Limit:         p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, movements, total, p.Page, p.Limit)
}
