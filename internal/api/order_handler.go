package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/entity"
	"marketplace-backend/internal/service"
)

type OrderHandler struct {
	checkout *service.CheckoutService
	orders   *service.OrderService
}

func NewOrderHandler(checkout *service.CheckoutService, orders *service.OrderService) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

func (h *OrderHandler) CreateOrders(c echo.Context) error {
	req := entity.CheckoutRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	req.IdempotentKey = c.Request().Header.Get("Idempotent-Key")

	operator := OperatorFromContext(c)
	result, err := h.checkout.CreateOrders(c.Request().Context(), operator, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(201, result)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	operator := OperatorFromContext(c)
	order, err := h.orders.UpdateOrderStatus(c.Request().Context(), operator, id, entity.OrderStatus(body.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(200, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	operator := OperatorFromContext(c)
	order, err := h.orders.CancelOrder(c.Request().Context(), operator, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(200, order)
}

func (h *OrderHandler) UpdateDeliveryStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	var body struct {
		Status  string `json:"status"`
		RiderID *int   `json:"rider_id,omitempty"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	operator := OperatorFromContext(c)
	delivery, err := h.orders.UpdateDeliveryStatus(c.Request().Context(), operator, id, entity.DeliveryStatus(body.Status), body.RiderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(200, delivery)
}

func (h *OrderHandler) ListOwnOrders(c echo.Context) error {
	operator := OperatorFromContext(c)
	orders, err := h.orders.ListOwnOrders(c.Request().Context(), operator)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(200, orders)
}

// ListOrders serves both /orders/admin and /orders/dashboard: the scope
// filter, not the route, decides what the operator sees.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	operator := OperatorFromContext(c)
	orders, err := h.orders.ListOrders(c.Request().Context(), operator)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(200, orders)
}
