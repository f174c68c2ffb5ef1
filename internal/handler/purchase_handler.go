package handler

import (
	"net/http"

	"erp/internal/middleware"
	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/api/purchases")
	{
		purchases.GET("", middleware.RequirePermission(middleware.PermPurchasesRead), h.ListPurchases)
		purchases.GET("/:id", middleware.RequirePermission(middleware.PermPurchasesRead), h.GetPurchase)
		purchases.POST("", middleware.RequirePermission(middleware.PermPurchasesWrite), h.CreatePurchase)
	}
}

// CreatePurchase records a vendor bill and receives its stock
// @Summary      Create purchase
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePurchaseRequest  true  "Purchase payload"
// @Success      201      {object}  response.Response{data=service.PurchaseResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req service.CreatePurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// ListPurchases returns paginated purchases
// @Summary      List purchases
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        vendor_id    query     string  false  "Vendor ID"
// @Param        search       query     string  false  "Purchase number or vendor name"
// @Param        date_range   query     string  false  "today, this_week, this_month, custom, ..."
// @Param        custom_date  query     string  false  "YYYY-MM-DD when date_range=custom"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200          {object}  response.Response{data=response.Page}
// @Router       /api/purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	query := service.PurchaseListQuery{ListQuery: listQuery(c), VendorID: c.Query("vendor_id")}
	purchases, total, err := h.purchaseService.ListPurchases(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, purchases, total, query.Page, query.Limit)
}

// GetPurchase returns one purchase
// @Summary      Get purchase
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  response.Response{data=service.PurchaseResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}
