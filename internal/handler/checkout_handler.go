package handler

import (
	"net/http"

	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 注文前の金額確認。注文作成と同じ計算を使う
type CheckoutHandler struct {
	pricing *usecase.PricingEngine
}

func NewCheckoutHandler(pricing *usecase.PricingEngine) *CheckoutHandler {
	return &CheckoutHandler{pricing: pricing}
}

type QuoteRequest struct {
	Items []usecase.PriceLine `json:"items"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/checkout/quote", h.quote)
}

func (h *CheckoutHandler) quote(c echo.Context) error {
	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	q, err := h.pricing.Quote(c.Request().Context(), req.Items)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}
