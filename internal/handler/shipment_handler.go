package handler

import (
	"net/http"
	"strconv"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ShipmentHandler struct {
	uc *usecase.ShipmentUsecase
}

func NewShipmentHandler(uc *usecase.ShipmentUsecase) *ShipmentHandler {
	return &ShipmentHandler{uc: uc}
}

// 日付は文字列で受けて handler で解釈する
type ShipmentFieldsRequest struct {
	Courier        *string `json:"courier"`
	TrackingNumber *string `json:"trackingNumber"`
	Status         *string `json:"status"`
	ShippedAt      *string `json:"shippedAt"`
	ExpectedDate   *string `json:"expectedDate"`
	DeliveredAt    *string `json:"deliveredAt"`
}

type ShipmentCreateRequest struct {
	OrderID int64 `json:"orderId"`
	ShipmentFieldsRequest
}

func (r ShipmentFieldsRequest) toFields() (usecase.ShipmentFields, error) {
	shippedAt, err := parseDate("shippedAt", r.ShippedAt)
	if err != nil {
		return usecase.ShipmentFields{}, err
	}
	expected, err := parseDate("expectedDate", r.ExpectedDate)
	if err != nil {
		return usecase.ShipmentFields{}, err
	}
	delivered, err := parseDate("deliveredAt", r.DeliveredAt)
	if err != nil {
		return usecase.ShipmentFields{}, err
	}
	return usecase.ShipmentFields{
		Courier:        r.Courier,
		TrackingNumber: r.TrackingNumber,
		Status:         r.Status,
		ShippedAt:      shippedAt,
		ExpectedDate:   expected,
		DeliveredAt:    delivered,
	}, nil
}

func (h *ShipmentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/shipments")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.GET("", h.list)
	g.POST("", h.create, middleware.AdminRoleGuard())
	g.PATCH("/:id", h.patch, middleware.AdminRoleGuard())
}

func (h *ShipmentHandler) list(c echo.Context) error {
	page, limit, err := parsePaging(c)
	if err != nil {
		return writeError(c, err)
	}

	var orderID *int64
	if v := c.QueryParam("orderId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid orderId"})
		}
		orderID = &id
	}

	out, err := h.uc.List(c.Request().Context(), actorFromContext(c), usecase.ListShipmentsInput{
		OrderID: orderID,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ShipmentHandler) create(c echo.Context) error {
	var req ShipmentCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	fields, err := req.toFields()
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Create(c.Request().Context(), actorFromContext(c), usecase.CreateShipmentInput{
		OrderID:        req.OrderID,
		ShipmentFields: fields,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *ShipmentHandler) patch(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	var req ShipmentFieldsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	fields, err := req.toFields()
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Patch(c.Request().Context(), actorFromContext(c), id, fields)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
