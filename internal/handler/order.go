package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
	"github.com/iliyamo/belgrade-mama-market/internal/service"
)

// OrderService is implemented by *service.OrderService.
type OrderService interface {
	CreateOrder(ctx context.Context, buyerID string, in service.CreateOrderInput) (model.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (model.Order, error)
	ListPurchases(ctx context.Context, buyerID string) ([]model.Order, error)
	ListSales(ctx context.Context, sellerID string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, userID, orderID string, in service.UpdateStatusInput) (model.Order, error)
	UpdatePaymentStatus(ctx context.Context, userID, orderID string, in service.UpdatePaymentInput) (model.Payment, error)
}

// OrderHandler exposes the order workflow.  Validation and authorization
// live in the service; this layer only decodes and renders.
type OrderHandler struct {
	Orders OrderService
}

func NewOrderHandler(s OrderService) *OrderHandler {
	return &OrderHandler{Orders: s}
}

func (h *OrderHandler) Create(c echo.Context) error {
	var in service.CreateOrderInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.CreateOrder(ctx, userID(c), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, userID(c), c.Param("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) MyPurchases(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	orders, err := h.Orders.ListPurchases(ctx, userID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) MySales(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	orders, err := h.Orders.ListSales(ctx, userID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// UpdateStatus is seller only.  Illegal transitions answer 409 with the
// statuses reachable from the current one.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var in service.UpdateStatusInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, userID(c), c.Param("id"), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) UpdatePaymentStatus(c echo.Context) error {
	var in service.UpdatePaymentInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Orders.UpdatePaymentStatus(ctx, userID(c), c.Param("id"), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
