package usecase_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"

	"bookstore/internal/domain/model"
	"bookstore/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func catalogOf(products ...model.Product) map[int64]model.Product {
	m := make(map[int64]model.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

func book(id, price, stock int64) model.Product {
	return model.Product{ID: id, Name: "book", Price: price, Stock: stock, IsAvailable: true}
}

func TestComputeQuote_FreeShippingOverThreshold(t *testing.T) {
	q, err := usecase.ComputeQuote(
		[]usecase.PriceLine{{ProductID: 1, Quantity: 2}},
		catalogOf(book(1, 300, 10)),
		usecase.DefaultShippingPolicy(),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(600), q.Subtotal)
	assert.Equal(t, int64(0), q.ShippingCost)
	assert.Equal(t, int64(600), q.GrandTotal)
}

func TestComputeQuote_FlatShippingAtOrBelowThreshold(t *testing.T) {
	q, err := usecase.ComputeQuote(
		[]usecase.PriceLine{{ProductID: 2, Quantity: 1}},
		catalogOf(book(2, 100, 10)),
		usecase.DefaultShippingPolicy(),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(100), q.Subtotal)
	assert.Equal(t, int64(60), q.ShippingCost)
	assert.Equal(t, int64(160), q.GrandTotal)
}

func TestComputeQuote_TotalsProperty(t *testing.T) {
	policy := usecase.DefaultShippingPolicy()
	cases := []struct {
		price int64
		qty   int64
	}{
		{1, 1}, {250, 2}, {500, 1}, {501, 1}, {100, 5}, {99, 6}, {1000, 3},
	}
	for _, tc := range cases {
		q, err := usecase.ComputeQuote(
			[]usecase.PriceLine{{ProductID: 1, Quantity: tc.qty}},
			catalogOf(book(1, tc.price, 100)),
			policy,
		)
		require.NoError(t, err)

		wantShipping := int64(60)
		if q.Subtotal > 500 {
			wantShipping = 0
		}
		assert.Equal(t, tc.price*tc.qty, q.Subtotal)
		assert.Equal(t, wantShipping, q.ShippingCost, "subtotal=%d", q.Subtotal)
		assert.Equal(t, q.Subtotal+q.ShippingCost, q.GrandTotal)
	}
}

func TestComputeQuote_Rejections(t *testing.T) {
	policy := usecase.DefaultShippingPolicy()
	unavailable := book(3, 100, 5)
	unavailable.IsAvailable = false

	cases := []struct {
		name   string
		lines  []usecase.PriceLine
		status int
		msg    string
	}{
		{"empty", nil, http.StatusBadRequest, "items required"},
		{"zero quantity", []usecase.PriceLine{{ProductID: 1, Quantity: 0}}, http.StatusBadRequest, "quantity must be a positive integer"},
		{"negative quantity", []usecase.PriceLine{{ProductID: 1, Quantity: -2}}, http.StatusBadRequest, "quantity must be a positive integer"},
		{"bad product id", []usecase.PriceLine{{ProductID: 0, Quantity: 1}}, http.StatusBadRequest, "invalid productId"},
		{"missing product", []usecase.PriceLine{{ProductID: 99, Quantity: 1}}, http.StatusNotFound, "product 99 not found"},
		{"unavailable", []usecase.PriceLine{{ProductID: 3, Quantity: 1}}, http.StatusBadRequest, "product 3 is unavailable"},
		{"zero stock", []usecase.PriceLine{{ProductID: 4, Quantity: 1}}, http.StatusBadRequest, "product 4 is out of stock"},
		{"not enough stock", []usecase.PriceLine{{ProductID: 1, Quantity: 11}}, http.StatusBadRequest, "product 1 is out of stock"},
	}

	catalog := catalogOf(book(1, 100, 10), unavailable, book(4, 100, 0))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := usecase.ComputeQuote(tc.lines, catalog, policy)
			assertStatus(t, err, tc.status)
			assertErrContains(t, err, tc.msg)
		})
	}
}

func TestPricingEngine_Quote_MergesDuplicateLines(t *testing.T) {
	products := new(ProductRepoMock)
	products.On("FindByIDs", mock.Anything, []int64{1, 2}).
		Return([]model.Product{book(1, 100, 10), book(2, 50, 10)}, nil)

	engine := usecase.NewPricingEngine(products, usecase.DefaultShippingPolicy(), zap.NewNop())

	q, err := engine.Quote(context.Background(), []usecase.PriceLine{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, q.Items, 2)
	assert.Equal(t, int64(1), q.Items[0].ProductID)
	assert.Equal(t, int64(3), q.Items[0].Quantity)
	assert.Equal(t, int64(300), q.Items[0].LineTotal)
	assert.Equal(t, int64(350), q.Subtotal)
	assert.Equal(t, int64(60), q.ShippingCost)

	products.AssertExpectations(t)
}

func TestPricingEngine_Quote_MergedQuantityExceedsStock(t *testing.T) {
	products := new(ProductRepoMock)
	products.On("FindByIDs", mock.Anything, []int64{1}).Return([]model.Product{book(1, 100, 3)}, nil)

	engine := usecase.NewPricingEngine(products, usecase.DefaultShippingPolicy(), zap.NewNop())

	_, err := engine.Quote(context.Background(), []usecase.PriceLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 1, Quantity: 2},
	})
	assertErrContains(t, err, "product 1 is out of stock")
}

// 合算で桁あふれして小さい数量に化けないこと
func TestPricingEngine_Quote_MergedQuantityOverflow(t *testing.T) {
	products := new(ProductRepoMock)
	engine := usecase.NewPricingEngine(products, usecase.DefaultShippingPolicy(), zap.NewNop())

	_, err := engine.Quote(context.Background(), []usecase.PriceLine{
		{ProductID: 1, Quantity: math.MaxInt64},
		{ProductID: 1, Quantity: math.MaxInt64},
		{ProductID: 1, Quantity: 3},
	})
	assertStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "quantity too large")
	products.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

func TestPricingEngine_Quote_DBError(t *testing.T) {
	products := new(ProductRepoMock)
	products.On("FindByIDs", mock.Anything, []int64{1}).Return(nil, errors.New("conn refused"))

	engine := usecase.NewPricingEngine(products, usecase.DefaultShippingPolicy(), zap.NewNop())

	_, err := engine.Quote(context.Background(), []usecase.PriceLine{{ProductID: 1, Quantity: 1}})
	assertStatus(t, err, http.StatusInternalServerError)
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, "db error", he.Message)
}

func TestShippingPolicy_Custom(t *testing.T) {
	p := usecase.ShippingPolicy{FreeThreshold: 1000, FlatRate: 80}
	assert.Equal(t, int64(80), p.Cost(1000))
	assert.Equal(t, int64(0), p.Cost(1001))
}
