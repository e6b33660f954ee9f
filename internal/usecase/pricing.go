package usecase

import (
	"context"
	"fmt"
	"math"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

type PriceLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

type PricedLine struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	UnitPrice int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`

	product model.Product
}

type Quote struct {
	Items        []PricedLine `json:"items"`
	Subtotal     int64        `json:"subtotal"`
	ShippingCost int64        `json:"shipping_cost"`
	GrandTotal   int64        `json:"grand_total"`
}

// 送料: 小計が閾値を超えたら無料、それ以外は一律
type ShippingPolicy struct {
	FreeThreshold int64
	FlatRate      int64
}

func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{FreeThreshold: 500, FlatRate: 60}
}

func (p ShippingPolicy) Cost(subtotal int64) int64 {
	if subtotal > p.FreeThreshold {
		return 0
	}
	return p.FlatRate
}

// 金額計算はここだけ（見積もりと注文作成で共通）
type PricingEngine struct {
	products repo.ProductRepository
	shipping ShippingPolicy
	log      *zap.Logger
}

func NewPricingEngine(products repo.ProductRepository, shipping ShippingPolicy, log *zap.Logger) *PricingEngine {
	return &PricingEngine{products: products, shipping: shipping, log: log}
}

// カート画面の見積もり（副作用なし）
func (e *PricingEngine) Quote(ctx context.Context, lines []PriceLine) (Quote, error) {
	return e.Price(ctx, e.products, lines)
}

// productsはトランザクション内のrepoを渡せる
func (e *PricingEngine) Price(ctx context.Context, products repo.ProductRepository, lines []PriceLine) (Quote, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return Quote{}, err
	}

	ids := make([]int64, 0, len(merged))
	for _, l := range merged {
		ids = append(ids, l.ProductID)
	}

	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return Quote{}, dbError(e.log, "products.find_by_ids", err)
	}
	catalog := make(map[int64]model.Product, len(found))
	for _, p := range found {
		catalog[p.ID] = p
	}

	return ComputeQuote(merged, catalog, e.shipping)
}

// カタログのスナップショットから見積もりを作る純粋関数
func ComputeQuote(lines []PriceLine, catalog map[int64]model.Product, shipping ShippingPolicy) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, validationError("items required")
	}

	items := make([]PricedLine, 0, len(lines))
	var subtotal int64

	for _, l := range lines {
		if l.ProductID <= 0 {
			return Quote{}, validationError("invalid productId")
		}
		if l.Quantity <= 0 {
			return Quote{}, validationError("quantity must be a positive integer")
		}

		p, ok := catalog[l.ProductID]
		if !ok {
			return Quote{}, notFoundError(fmt.Sprintf("product %d not found", l.ProductID))
		}
		if !p.IsAvailable {
			return Quote{}, validationError(fmt.Sprintf("product %d is unavailable", l.ProductID))
		}
		if p.Stock <= 0 || p.Stock < l.Quantity {
			return Quote{}, validationError(fmt.Sprintf("product %d is out of stock", l.ProductID))
		}

		lineTotal := p.Price * l.Quantity
		items = append(items, PricedLine{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			UnitPrice: p.Price,
			Quantity:  l.Quantity,
			LineTotal: lineTotal,
			product:   p,
		})
		subtotal += lineTotal
	}

	shippingCost := shipping.Cost(subtotal)
	return Quote{
		Items:        items,
		Subtotal:     subtotal,
		ShippingCost: shippingCost,
		GrandTotal:   subtotal + shippingCost,
	}, nil
}

// 同じ商品は数量を合算（最初に出てきた順を保つ）
func mergeLines(lines []PriceLine) ([]PriceLine, error) {
	if len(lines) == 0 {
		return nil, validationError("items required")
	}

	index := make(map[int64]int, len(lines))
	merged := make([]PriceLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID <= 0 {
			return nil, validationError("invalid productId")
		}
		if l.Quantity <= 0 {
			return nil, validationError("quantity must be a positive integer")
		}
		if i, ok := index[l.ProductID]; ok {
			if merged[i].Quantity > math.MaxInt64-l.Quantity {
				return nil, validationError("quantity too large")
			}
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}
