package handler

import (
	"net/http"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理画面の注文詳細（注文+配送をまとめて保存）
type AdminOrderHandler struct {
	uc     *usecase.FulfillmentUsecase
	orders *usecase.OrderUsecase
}

func NewAdminOrderHandler(uc *usecase.FulfillmentUsecase, orders *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, orders: orders}
}

type FulfillmentSaveRequest struct {
	Order    OrderPatchRequest     `json:"order"`
	Shipment ShipmentFieldsRequest `json:"shipment"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/orders/:id/fulfillment", h.view)
	admin.PUT("/orders/:id/fulfillment", h.save)
	admin.GET("/orders/:id/history", h.history)
}

func (h *AdminOrderHandler) view(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.View(c.Request().Context(), actorFromContext(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) save(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	var req FulfillmentSaveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	shipment, err := req.Shipment.toFields()
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Save(c.Request().Context(), actorFromContext(c), id, usecase.SaveFulfillmentInput{
		Order: usecase.PatchOrderInput{
			Status:        req.Order.Status,
			PaymentStatus: req.Order.PaymentStatus,
			TransactionID: req.Order.TransactionID,
		},
		Shipment:       shipment,
		IdempotencyKey: c.Request().Header.Get("X-Idempotency-Key"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) history(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.orders.History(c.Request().Context(), actorFromContext(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
