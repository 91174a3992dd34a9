package handler

import (
	"net/http"

	"erpledger/internal/middleware"
	"erpledger/internal/model"
	"erpledger/internal/service"
	"erpledger/pkg/pagination"
	"erpledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseOrderHandler struct {
	orderService service.PurchaseOrderService
}

func NewPurchaseOrderHandler(orderService service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

func (h *PurchaseOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/purchase-orders")
	{
		orders.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleViewer), h.ListPurchaseOrders)
		orders.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleViewer), h.GetPurchaseOrder)
		orders.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreatePurchaseOrder)
		orders.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdatePurchaseOrder)
		orders.PUT("/:id/send", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.SendPurchaseOrder)
		orders.PUT("/:id/close", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ClosePurchaseOrder)
		orders.PUT("/:id/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CancelPurchaseOrder)
	}
}

// CreatePurchaseOrder creates a purchase order with its line items
// @Summary      Create purchase order
// @Description  Creates a purchase order; item amounts, subtotal, tax and total are computed server side
// @Tags         purchase-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePurchaseOrderRequest  true  "Create Purchase Order Payload"
// @Success      201      {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) CreatePurchaseOrder(c *gin.Context) {
	var req service.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreatePurchaseOrder(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// UpdatePurchaseOrder edits a DRAFT purchase order
// @Summary      Update purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                              true  "Purchase Order ID"
// @Param        payload  body      service.UpdatePurchaseOrderRequest  true  "Update Purchase Order Payload"
// @Success      200      {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) UpdatePurchaseOrder(c *gin.Context) {
	var req service.UpdatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdatePurchaseOrder(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetPurchaseOrder returns one purchase order with its line items
// @Summary      Get purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetPurchaseOrder(c *gin.Context) {
	order, err := h.orderService.GetPurchaseOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListPurchaseOrders returns a paginated list of purchase orders
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        vendor_id   query     string  false  "Filter by vendor"
// @Param        project_id  query     string  false  "Filter by project"
// @Param        status      query     string  false  "Filter by status (DRAFT, SENT, CLOSED, CANCELLED)"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      500         {object}  response.Response
// @Router       /api/purchase-orders [get]
func (h *PurchaseOrderHandler) ListPurchaseOrders(c *gin.Context) {
	p := pagination.Parse(c)

	orders, total, err := h.orderService.ListPurchaseOrders(c.Request.Context(), service.PurchaseOrderFilter{
		VendorID:  c.Query("vendor_id"),
		ProjectID: c.Query("project_id"),
		Status:    c.Query("status"),
		Page:      p.Page,
		Limit:     p.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "purchase_orders", orders, total, p))
}

// SendPurchaseOrder marks a DRAFT purchase order as sent to the vendor
// @Summary      Send purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/purchase-orders/{id}/send [put]
func (h *PurchaseOrderHandler) SendPurchaseOrder(c *gin.Context) {
	order, err := h.orderService.SendPurchaseOrder(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ClosePurchaseOrder closes a SENT purchase order
// @Summary      Close purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/purchase-orders/{id}/close [put]
func (h *PurchaseOrderHandler) ClosePurchaseOrder(c *gin.Context) {
	order, err := h.orderService.ClosePurchaseOrder(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelPurchaseOrder cancels a purchase order that is not yet closed
// @Summary      Cancel purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/purchase-orders/{id}/cancel [put]
func (h *PurchaseOrderHandler) CancelPurchaseOrder(c *gin.Context) {
	order, err := h.orderService.CancelPurchaseOrder(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
