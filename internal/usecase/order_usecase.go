package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

type OrderOptions struct {
	//注文時に在庫を条件付きで減らす（既定はチェックのみで減らさない）
	ReserveStock bool
}

type OrderUsecase struct {
	tx       repo.TransactionManager
	pricing  *PricingEngine
	payments *PaymentStatusResolver
	clock    Clock
	metrics  Metrics
	log      *zap.Logger
	opts     OrderOptions
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	pricing *PricingEngine,
	payments *PaymentStatusResolver,
	clock Clock,
	metrics Metrics,
	log *zap.Logger,
	opts OrderOptions,
) *OrderUsecase {
	return &OrderUsecase{
		tx:       tx,
		pricing:  pricing,
		payments: payments,
		clock:    clock,
		metrics:  metrics,
		log:      log,
		opts:     opts,
	}
}

type CreateOrderInput struct {
	Name           string
	Email          string
	PhoneNumber    string
	AltPhoneNumber string
	Country        string
	District       string
	Area           string
	AddressDetails string
	PaymentMethod  string
	Items          []PriceLine
	//現金以外でも任意（UI側でだけ必須にしている）
	TransactionID  string
	Image          string
	IdempotencyKey string
}

type ListOrdersInput struct {
	Page   int
	Limit  int
	Status string
}

// nilは変更しない
type PatchOrderInput struct {
	Status        *string
	PaymentStatus *string
	TransactionID *string
}

func (in PatchOrderInput) IsEmpty() bool {
	return in.Status == nil && in.PaymentStatus == nil && in.TransactionID == nil
}

type OrderItemOutput struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type OrderOutput struct {
	ID             int64             `json:"id"`
	UserID         *int64            `json:"userId"`
	Name           string            `json:"name"`
	Email          string            `json:"email,omitempty"`
	PhoneNumber    string            `json:"phone_number"`
	AltPhoneNumber string            `json:"alt_phone_number,omitempty"`
	Country        string            `json:"country"`
	District       string            `json:"district"`
	Area           string            `json:"area"`
	AddressDetails string            `json:"address_details"`
	Total          int64             `json:"total"`
	ShippingCost   int64             `json:"shipping_cost"`
	GrandTotal     int64             `json:"grand_total"`
	PaymentMethod  string            `json:"payment_method"`
	PaymentStatus  string            `json:"paymentStatus"`
	TransactionID  *string           `json:"transactionId"`
	Image          *string           `json:"image"`
	Status         string            `json:"status"`
	OrderItems     []OrderItemOutput `json:"orderItems"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

type OrderListOutput struct {
	Orders     []OrderOutput `json:"orders"`
	Pagination Pagination    `json:"pagination"`
}

// 注文作成。ヘッダと明細は同じトランザクション（途中で失敗したら何も残らない）
func (u *OrderUsecase) Create(ctx context.Context, actor model.Actor, in CreateOrderInput) (OrderOutput, error) {
	out, err := u.create(ctx, actor, in)
	if err != nil {
		u.metrics.OrderCreateFailed(failureReason(err))
		return OrderOutput{}, err
	}
	u.metrics.OrderCreated(model.PaymentStatus(out.PaymentStatus))
	return out, nil
}

func (u *OrderUsecase) create(ctx context.Context, actor model.Actor, in CreateOrderInput) (OrderOutput, error) {
	if err := validateCustomer(in); err != nil {
		return OrderOutput{}, err
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, validationError("items required")
	}

	paymentStatus, err := u.payments.ResolveInitial(in.PaymentMethod)
	if err != nil {
		return OrderOutput{}, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return OrderOutput{}, validationError("invalid idempotency key")
	}

	var (
		out       OrderOutput
		createErr error
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, key)
			if err != nil {
				return dbError(u.log, "orders.find_by_idempotency_key", err)
			}
			if found {
				if !sameOwner(existing.UserID, actor) {
					return NewHTTPError(http.StatusConflict, "idempotency key already used")
				}
				out = toOrderOutput(existing)
				return nil
			}
		}

		//価格はカタログから取り直す（クライアントの金額は使わない）
		quote, err := u.pricing.Price(ctx, r.Products(), in.Items)
		if err != nil {
			return err
		}

		if u.opts.ReserveStock {
			for _, line := range quote.Items {
				ok, err := r.Inventory().DecreaseStockIfEnough(ctx, line.ProductID, line.Quantity)
				if err != nil {
					return dbError(u.log, "inventory.decrease", err)
				}
				if !ok {
					return validationError(fmt.Sprintf("product %d is out of stock", line.ProductID))
				}
			}
		}

		order := model.Order{
			Name:           strings.TrimSpace(in.Name),
			Email:          strings.TrimSpace(in.Email),
			PhoneNumber:    strings.TrimSpace(in.PhoneNumber),
			AltPhoneNumber: strings.TrimSpace(in.AltPhoneNumber),
			Country:        strings.TrimSpace(in.Country),
			District:       strings.TrimSpace(in.District),
			Area:           strings.TrimSpace(in.Area),
			AddressDetails: strings.TrimSpace(in.AddressDetails),
			Total:          quote.Subtotal,
			ShippingCost:   quote.ShippingCost,
			GrandTotal:     quote.GrandTotal,
			PaymentMethod:  strings.TrimSpace(in.PaymentMethod),
			PaymentStatus:  paymentStatus,
			TransactionID:  optionalString(in.TransactionID),
			Image:          optionalString(in.Image),
			Status:         model.OrderStatusPending,
		}
		if actor.IsAuthenticated() {
			uid := actor.UserID
			order.UserID = &uid
		}
		if key != "" {
			order.IdempotencyKey = &key
		}

		if err := r.Orders().Create(ctx, &order); err != nil {
			createErr = err
			return dbError(u.log, "orders.create", err)
		}

		items := make([]model.OrderItem, 0, len(quote.Items))
		for _, line := range quote.Items {
			items = append(items, model.OrderItem{
				ProductID: line.ProductID,
				Price:     line.UnitPrice,
				Quantity:  line.Quantity,
			})
		}
		//明細が失敗したらヘッダもロールバック
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return dbError(u.log, "order_items.create_bulk", err)
		}

		if u.opts.ReserveStock {
			orderID := order.ID
			for _, line := range quote.Items {
				if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
					ProductID:   line.ProductID,
					OrderID:     &orderID,
					ActorUserID: order.UserID,
					Delta:       -line.Quantity,
					Reason:      fmt.Sprintf("order #%d", orderID),
				}); err != nil {
					return dbError(u.log, "inventory.create_adjustment", err)
				}
			}
		}

		//レスポンス用に商品情報を付ける
		for i := range items {
			p := quote.Items[i].product
			items[i].Product = &p
		}
		order.OrderItems = items
		out = toOrderOutput(order)
		return nil
	})
	if err != nil {
		//競合（同時に同じキーが入った等）は別トランザクションで取り直す
		if createErr != nil && key != "" {
			return u.findExistingByKey(ctx, actor, key, err)
		}
		return OrderOutput{}, err
	}

	u.log.Info("order created",
		zap.Int64("order_id", out.ID),
		zap.Int64("grand_total", out.GrandTotal),
		zap.String("payment_status", out.PaymentStatus),
	)
	return out, nil
}

// 見つからなければ元のエラーをそのまま返す
func (u *OrderUsecase) findExistingByKey(ctx context.Context, actor model.Actor, key string, cause error) (OrderOutput, error) {
	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, key)
		if err != nil || !found {
			return cause
		}
		if !sameOwner(existing.UserID, actor) {
			return NewHTTPError(http.StatusConflict, "idempotency key already used")
		}
		out = toOrderOutput(existing)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.Info("order create raced; returning existing order",
		zap.Int64("order_id", out.ID),
	)
	return out, nil
}

// 管理者か本人だけ。他人の注文は403（本文は返さない）
func (u *OrderUsecase) Get(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	if err := authorize(actor.IsAuthenticated(), true); err != nil {
		return OrderOutput{}, err
	}
	if orderID <= 0 {
		return OrderOutput{}, validationError("invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFoundError("order not found")
		}
		if err != nil {
			return dbError(u.log, "orders.find_by_id", err)
		}
		if err := authorize(true, actor.IsAdmin() || o.IsOwnedBy(actor.UserID)); err != nil {
			return err
		}
		out = toOrderOutput(o)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 一般ユーザーは指定に関係なく自分の注文だけ
func (u *OrderUsecase) List(ctx context.Context, actor model.Actor, in ListOrdersInput) (OrderListOutput, error) {
	if err := authorize(actor.IsAuthenticated(), true); err != nil {
		return OrderListOutput{}, err
	}
	if err := validatePage(in.Page, in.Limit); err != nil {
		return OrderListOutput{}, err
	}

	f := repo.OrderListFilter{Page: in.Page, Limit: in.Limit}
	if s := strings.TrimSpace(in.Status); s != "" {
		st, ok := model.ParseOrderStatus(s)
		if !ok {
			return OrderListOutput{}, validationError("invalid status")
		}
		f.Status = &st
	}
	if !actor.IsAdmin() {
		uid := actor.UserID
		f.UserID = &uid
	}

	var out OrderListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().List(ctx, f)
		if err != nil {
			return dbError(u.log, "orders.list", err)
		}
		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			outs = append(outs, toOrderOutput(o))
		}
		out = OrderListOutput{Orders: outs, Pagination: newPagination(in.Page, in.Limit, total)}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// 管理者の部分更新。遷移の制限はなし（model.ValidateOrderTransition に集約）
func (u *OrderUsecase) Patch(ctx context.Context, actor model.Actor, orderID int64, in PatchOrderInput) (OrderOutput, error) {
	o, err := u.patch(ctx, actor, orderID, in)
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o), nil
}

func (u *OrderUsecase) patch(ctx context.Context, actor model.Actor, orderID int64, in PatchOrderInput) (model.Order, error) {
	if err := authorize(actor.IsAuthenticated(), actor.IsAdmin()); err != nil {
		return model.Order{}, err
	}
	if orderID <= 0 {
		return model.Order{}, validationError("invalid id")
	}

	var patch repo.OrderPatch
	if in.Status != nil {
		st, ok := model.ParseOrderStatus(strings.TrimSpace(*in.Status))
		if !ok {
			return model.Order{}, validationError("invalid status")
		}
		patch.Status = &st
	}
	if in.TransactionID != nil {
		tid := strings.TrimSpace(*in.TransactionID)
		patch.TransactionID = &tid
	}

	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFoundError("order not found")
		}
		if err != nil {
			return dbError(u.log, "orders.find_by_id", err)
		}

		if in.PaymentStatus != nil {
			ps, err := u.payments.Override(o.PaymentStatus, *in.PaymentStatus)
			if err != nil {
				return err
			}
			patch.PaymentStatus = &ps
		}
		if patch.IsEmpty() {
			out = o
			return nil
		}
		if patch.Status != nil {
			if err := model.ValidateOrderTransition(o.Status, *patch.Status); err != nil {
				return validationError(err.Error())
			}
		}

		if err := r.Orders().Update(ctx, orderID, patch); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFoundError("order not found")
			}
			return dbError(u.log, "orders.update", err)
		}

		now := u.clock.Now()
		after := applyOrderPatch(o, patch, now)
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   orderAuditJSON(o),
			AfterJSON:    orderAuditJSON(after),
			CreatedAt:    now,
		}); err != nil {
			return dbError(u.log, "audit_logs.create", err)
		}

		out = after
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	return out, nil
}

func validateCustomer(in CreateOrderInput) error {
	required := []struct {
		field string
		value string
	}{
		{"name", in.Name},
		{"phone_number", in.PhoneNumber},
		{"country", in.Country},
		{"district", in.District},
		{"area", in.Area},
		{"address_details", in.AddressDetails},
		{"payment_method", in.PaymentMethod},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return validationError(r.field + " is required")
		}
	}
	if e := strings.TrimSpace(in.Email); e != "" && !strings.Contains(e, "@") {
		return validationError("invalid email")
	}
	return nil
}

func applyOrderPatch(o model.Order, p repo.OrderPatch, now time.Time) model.Order {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.TransactionID != nil {
		tid := *p.TransactionID
		o.TransactionID = &tid
	}
	o.UpdatedAt = now
	return o
}

func sameOwner(owner *int64, actor model.Actor) bool {
	if owner == nil {
		return !actor.IsAuthenticated()
	}
	return actor.IsAuthenticated() && *owner == actor.UserID
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func failureReason(err error) string {
	he, ok := AsHTTPError(err)
	if !ok {
		return "internal"
	}
	switch he.Status {
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "db_error"
	default:
		return "other"
	}
}

func toOrderOutput(o model.Order) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(o.OrderItems))
	for _, it := range o.OrderItems {
		item := OrderItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			Price:     it.Price,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		}
		if it.Product != nil {
			item.Name = it.Product.Name
			item.Image = it.Product.Image
		}
		outItems = append(outItems, item)
	}

	return OrderOutput{
		ID:             o.ID,
		UserID:         o.UserID,
		Name:           o.Name,
		Email:          o.Email,
		PhoneNumber:    o.PhoneNumber,
		AltPhoneNumber: o.AltPhoneNumber,
		Country:        o.Country,
		District:       o.District,
		Area:           o.Area,
		AddressDetails: o.AddressDetails,
		Total:          o.Total,
		ShippingCost:   o.ShippingCost,
		GrandTotal:     o.GrandTotal,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  string(o.PaymentStatus),
		TransactionID:  o.TransactionID,
		Image:          o.Image,
		Status:         string(o.Status),
		OrderItems:     outItems,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

type OrderHistoryOutput struct {
	Order     []model.AuditLog `json:"order"`
	Shipments []model.AuditLog `json:"shipments"`
}

// 注文と配送の変更履歴（新しい順、各100件まで）
func (u *OrderUsecase) History(ctx context.Context, actor model.Actor, orderID int64) (OrderHistoryOutput, error) {
	if err := authorize(actor.IsAuthenticated(), actor.IsAdmin()); err != nil {
		return OrderHistoryOutput{}, err
	}
	if orderID <= 0 {
		return OrderHistoryOutput{}, validationError("invalid id")
	}

	var out OrderHistoryOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFoundError("order not found")
			}
			return dbError(u.log, "orders.find_by_id", err)
		}

		orderLogs, _, err := r.AuditLogs().List(ctx, repo.AuditLogFilter{
			ResourceType: model.AuditResourceOrder,
			ResourceIDs:  []int64{orderID},
			Page:         1,
			Limit:        100,
		})
		if err != nil {
			return dbError(u.log, "audit_logs.list", err)
		}

		shipments, _, err := r.Shipments().List(ctx, repo.ShipmentListFilter{OrderID: &orderID, Page: 1, Limit: 100})
		if err != nil {
			return dbError(u.log, "shipments.list", err)
		}
		shipmentLogs := []model.AuditLog{}
		if len(shipments) > 0 {
			ids := make([]int64, 0, len(shipments))
			for _, s := range shipments {
				ids = append(ids, s.ID)
			}
			shipmentLogs, _, err = r.AuditLogs().List(ctx, repo.AuditLogFilter{
				ResourceType: model.AuditResourceShipment,
				ResourceIDs:  ids,
				Page:         1,
				Limit:        100,
			})
			if err != nil {
				return dbError(u.log, "audit_logs.list", err)
			}
		}

		out = OrderHistoryOutput{Order: orderLogs, Shipments: shipmentLogs}
		return nil
	})
	if err != nil {
		return OrderHistoryOutput{}, err
	}
	return out, nil
}
