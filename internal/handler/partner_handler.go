package handler

import (
	"net/http"
	"strconv"

	"erp/internal/middleware"
	"erp/internal/service"
	"erp/pkg/pagination"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type PartnerHandler struct {
	partnerService service.PartnerService
}

func NewPartnerHandler(partnerService service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

// RegisterRoutes mounts the same handlers under /api/customers and
// /api/vendors; the role decides which partner types each side sees.
func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup) {
	for path, role := range map[string]service.PartnerRole{
		"/api/customers": service.RoleCustomer,
		"/api/vendors":   service.RoleVendor,
	} {
		group := router.Group(path)
		group.GET("", middleware.RequirePermission(middleware.PermPartnersRead), h.ListPartners(role))
		group.GET("/:id", middleware.RequirePermission(middleware.PermPartnersRead), h.GetPartner(role))
		group.POST("", middleware.RequirePermission(middleware.PermPartnersWrite), h.CreatePartner(role))
		group.PUT("/:id", middleware.RequirePermission(middleware.PermPartnersWrite), h.UpdatePartner(role))
		group.DELETE("/:id", middleware.RequirePermission(middleware.PermPartnersWrite), h.DeletePartner(role))
	}
}

// ListPartners returns paginated customers or vendors
// @Summary      List customers / vendors
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default: 1)"
// @Param        limit      query     int     false  "Items per page (default: 20)"
// @Param        search     query     string  false  "Search by name, company, phone, email, tax code"
// @Param        is_active  query     bool    false  "Filter by active flag"
// @Success      200        {object}  response.Response{data=response.Page}
// @Router       /api/customers [get]
// @Router       /api/vendors [get]
func (h *PartnerHandler) ListPartners(role service.PartnerRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination.Parse(c)
		query := service.PartnerListQuery{
			Search: c.Query("search"),
			Page:   p.Page,
			Limit:  p.Limit,
		}
		if raw := c.Query("is_active"); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "is_active must be true or false"))
				return
			}
			query.IsActive = &active
		}

		partners, total, err := h.partnerService.GetPartners(c.Request.Context(), role, query)
		if err != nil {
			respondError(c, err)
			return
		}
		respondPage(c, partners, total, p.Page, p.Limit)
	}
}

// GetPartner returns one customer or vendor
// @Summary      Get customer / vendor
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Partner ID"
// @Success      200  {object}  response.Response{data=service.PartnerResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [get]
// @Router       /api/vendors/{id} [get]
func (h *PartnerHandler) GetPartner(role service.PartnerRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		partner, err := h.partnerService.GetPartner(c.Request.Context(), role, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
	}
}

// CreatePartner creates a customer or vendor
// @Summary      Create customer / vendor
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreatePartnerRequest  true  "Partner payload"
// @Success      201  {object}  response.Response{data=service.PartnerResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/customers [post]
// @Router       /api/vendors [post]
func (h *PartnerHandler) CreatePartner(role service.PartnerRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreatePartnerRequest
		if !bindJSON(c, &req) {
			return
		}
		partner, err := h.partnerService.CreatePartner(c.Request.Context(), middleware.UserID(c), role, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.Success(http.StatusCreated, partner))
	}
}

// UpdatePartner updates an existing customer or vendor
// @Summary      Update customer / vendor
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Partner ID"
// @Param        payload  body  service.UpdatePartnerRequest  true  "Update payload"
// @Success      200  {object}  response.Response{data=service.PartnerResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [put]
// @Router       /api/vendors/{id} [put]
func (h *PartnerHandler) UpdatePartner(role service.PartnerRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.UpdatePartnerRequest
		if !bindJSON(c, &req) {
			return
		}
		partner, err := h.partnerService.UpdatePartner(c.Request.Context(), middleware.UserID(c), role, c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
	}
}

// DeletePartner soft-deletes a customer or vendor
// @Summary      Delete customer / vendor
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Partner ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [delete]
// @Router       /api/vendors/{id} [delete]
func (h *PartnerHandler) DeletePartner(role service.PartnerRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.partnerService.DeletePartner(c.Request.Context(), middleware.UserID(c), role, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Partner deleted successfully"}))
	}
}
