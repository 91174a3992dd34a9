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

type SalesOrderHandler struct {
	orderService service.SalesOrderService
}

func NewSalesOrderHandler(orderService service.SalesOrderService) *SalesOrderHandler {
	return &SalesOrderHandler{orderService: orderService}
}

func (h *SalesOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/sales-orders")
	{
		orders.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleViewer), h.ListSalesOrders)
		orders.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleViewer), h.GetSalesOrder)
		orders.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateSalesOrder)
		orders.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateSalesOrder)
		orders.PUT("/:id/confirm", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ConfirmSalesOrder)
		orders.PUT("/:id/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CancelSalesOrder)
	}
}

// CreateSalesOrder creates a sales order with its line items
// @Summary      Create sales order
// @Description  Creates a sales order; per-item discounts, global discount and GST are computed server side
// @Tags         sales-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSalesOrderRequest  true  "Create Sales Order Payload"
// @Success      201      {object}  response.Response{data=service.SalesOrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/sales-orders [post]
func (h *SalesOrderHandler) CreateSalesOrder(c *gin.Context) {
	var req service.CreateSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateSalesOrder(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// UpdateSalesOrder edits a DRAFT sales order
// @Summary      Update sales order
// @Tags         sales-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Sales Order ID"
// @Param        payload  body      service.UpdateSalesOrderRequest  true  "Update Sales Order Payload"
// @Success      200      {object}  response.Response{data=service.SalesOrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/sales-orders/{id} [put]
func (h *SalesOrderHandler) UpdateSalesOrder(c *gin.Context) {
	var req service.UpdateSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateSalesOrder(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetSalesOrder returns one sales order with its line items
// @Summary      Get sales order
// @Tags         sales-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sales Order ID"
// @Success      200  {object}  response.Response{data=service.SalesOrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/sales-orders/{id} [get]
func (h *SalesOrderHandler) GetSalesOrder(c *gin.Context) {
	order, err := h.orderService.GetSalesOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListSalesOrders returns a paginated list of sales orders
// @Summary      List sales orders
// @Tags         sales-orders
// @Security     BearerAuth
// @Produce      json
// @Param        customer_id  query     string  false  "Filter by customer"
// @Param        project_id   query     string  false  "Filter by project"
// @Param        status       query     string  false  "Filter by status (DRAFT, CONFIRMED, CANCELLED)"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /api/sales-orders [get]
func (h *SalesOrderHandler) ListSalesOrders(c *gin.Context) {
	p := pagination.Parse(c)

	orders, total, err := h.orderService.ListSalesOrders(c.Request.Context(), service.SalesOrderFilter{
		CustomerID: c.Query("customer_id"),
		ProjectID:  c.Query("project_id"),
		Status:     c.Query("status"),
		Page:       p.Page,
		Limit:      p.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "sales_orders", orders, total, p))
}

// ConfirmSalesOrder confirms a DRAFT sales order
// @Summary      Confirm sales order
// @Tags         sales-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sales Order ID"
// @Success      200  {object}  response.Response{data=service.SalesOrderResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/sales-orders/{id}/confirm [put]
func (h *SalesOrderHandler) ConfirmSalesOrder(c *gin.Context) {
	order, err := h.orderService.ConfirmSalesOrder(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelSalesOrder cancels a sales order
// @Summary      Cancel sales order
// @Tags         sales-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sales Order ID"
// @Success      200  {object}  response.Response{data=service.SalesOrderResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/sales-orders/{id}/cancel [put]
func (h *SalesOrderHandler) CancelSalesOrder(c *gin.Context) {
	order, err := h.orderService.CancelSalesOrder(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
