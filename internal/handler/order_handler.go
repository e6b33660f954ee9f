package handler

import (
	"net/http"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderCreateRequest struct {
	Name           string              `json:"name"`
	Email          string              `json:"email"`
	PhoneNumber    string              `json:"phone_number"`
	AltPhoneNumber string              `json:"alt_phone_number"`
	Country        string              `json:"country"`
	District       string              `json:"district"`
	Area           string              `json:"area"`
	AddressDetails string              `json:"address_details"`
	PaymentMethod  string              `json:"payment_method"`
	Items          []usecase.PriceLine `json:"items"`
	TransactionID  string              `json:"transactionId"`
	Image          string              `json:"image"`
}

type OrderPatchRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
	TransactionID *string `json:"transactionId"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/orders")

	//ゲスト購入あり
	g.POST("", h.create, middleware.OptionalAuthJWT(cfg), middleware.OptionalTokenVersionGuard(userRepo))

	auth := []echo.MiddlewareFunc{middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo)}
	g.GET("", h.list, auth...)
	g.GET("/:id", h.detail, auth...)
	g.PATCH("/:id", h.patch, append(auth, middleware.AdminRoleGuard())...)
}

func (h *OrderHandler) create(c echo.Context) error {
	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get("X-Idempotency-Key")

	out, err := h.uc.Create(c.Request().Context(), actorFromContext(c), usecase.CreateOrderInput{
		Name:           req.Name,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		AltPhoneNumber: req.AltPhoneNumber,
		Country:        req.Country,
		District:       req.District,
		Area:           req.Area,
		AddressDetails: req.AddressDetails,
		PaymentMethod:  req.PaymentMethod,
		Items:          req.Items,
		TransactionID:  req.TransactionID,
		Image:          req.Image,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	page, limit, err := parsePaging(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), actorFromContext(c), usecase.ListOrdersInput{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Get(c.Request().Context(), actorFromContext(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) patch(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	var req OrderPatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Patch(c.Request().Context(), actorFromContext(c), id, usecase.PatchOrderInput{
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
