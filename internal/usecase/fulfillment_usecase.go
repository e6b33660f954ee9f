package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

const (
	FulfillmentStepOrder     = "order"
	FulfillmentStepShipment  = "shipment"
	FulfillmentStepReconcile = "reconcile"
)

// 管理画面の「まとめて保存」。
// 各段階は別トランザクションで、後の段階が失敗しても前の段階は戻さない
type FulfillmentUsecase struct {
	orders    *OrderUsecase
	shipments *ShipmentUsecase
	sync      *OrderStatusSynchronizer
	store     repo.IdempotencyStore
	ttl       time.Duration
	ids       IDGenerator
	metrics   Metrics
	log       *zap.Logger
}

func NewFulfillmentUsecase(
	orders *OrderUsecase,
	shipments *ShipmentUsecase,
	sync *OrderStatusSynchronizer,
	store repo.IdempotencyStore,
	ttl time.Duration,
	ids IDGenerator,
	metrics Metrics,
	log *zap.Logger,
) *FulfillmentUsecase {
	return &FulfillmentUsecase{
		orders:    orders,
		shipments: shipments,
		sync:      sync,
		store:     store,
		ttl:       ttl,
		ids:       ids,
		metrics:   metrics,
		log:       log,
	}
}

type SaveFulfillmentInput struct {
	Order          PatchOrderInput
	Shipment       ShipmentFields
	IdempotencyKey string
}

type FulfillmentView struct {
	OperationID string          `json:"operationId,omitempty"`
	Order       OrderOutput     `json:"order"`
	Shipment    *model.Shipment `json:"shipment"`
}

func (u *FulfillmentUsecase) Save(ctx context.Context, actor model.Actor, orderID int64, in SaveFulfillmentInput) (FulfillmentView, error) {
	if err := authorize(actor.IsAuthenticated(), actor.IsAdmin()); err != nil {
		return FulfillmentView{}, err
	}
	if orderID <= 0 {
		return FulfillmentView{}, validationError("invalid id")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return FulfillmentView{}, validationError("invalid idempotency key")
	}
	cacheKey := ""
	if key != "" {
		cacheKey = fmt.Sprintf("fulfillment:%d:%s", orderID, key)
		if v, ok := u.replay(ctx, cacheKey); ok {
			u.metrics.FulfillmentSaved("replayed")
			return v, nil
		}
	}

	opID := u.ids.NewID()
	log := u.log.With(zap.String("operation_id", opID), zap.Int64("order_id", orderID))
	committed := []string{}

	// 1. 注文
	order, err := u.orders.patch(ctx, actor, orderID, in.Order)
	if err != nil {
		return FulfillmentView{}, u.fail(log, FulfillmentStepOrder, committed, err)
	}
	committed = append(committed, FulfillmentStepOrder)

	// 2. 配送（なければ作る。空入力なら作らない）
	var shipment *model.Shipment
	current, found, err := u.shipments.FindByOrder(ctx, orderID)
	if err == nil {
		switch {
		case found:
			var s model.Shipment
			s, err = u.shipments.patch(ctx, actor, current.ID, in.Shipment)
			shipment = &s
		case !in.Shipment.IsDefault():
			var s model.Shipment
			s, err = u.shipments.create(ctx, actor, orderID, in.Shipment)
			shipment = &s
		}
	}
	if err != nil {
		return FulfillmentView{}, u.fail(log, FulfillmentStepShipment, committed, err)
	}
	if shipment != nil {
		committed = append(committed, FulfillmentStepShipment)

		// 3. 書いたばかりの配送状態で注文をそろえる
		order, err = u.sync.Reconcile(ctx, actor.UserID, order, *shipment)
		if err != nil {
			return FulfillmentView{}, u.fail(log, FulfillmentStepReconcile, committed, err)
		}
	}

	view := FulfillmentView{
		OperationID: opID,
		Order:       toOrderOutput(order),
		Shipment:    shipment,
	}
	u.metrics.FulfillmentSaved("ok")
	log.Info("fulfillment saved", zap.Strings("committed", committed))

	if cacheKey != "" {
		u.remember(ctx, cacheKey, view)
	}
	return view, nil
}

// 注文と（あれば）最初の配送
func (u *FulfillmentUsecase) View(ctx context.Context, actor model.Actor, orderID int64) (FulfillmentView, error) {
	if err := authorize(actor.IsAuthenticated(), actor.IsAdmin()); err != nil {
		return FulfillmentView{}, err
	}
	order, err := u.orders.Get(ctx, actor, orderID)
	if err != nil {
		return FulfillmentView{}, err
	}
	s, found, err := u.shipments.FindByOrder(ctx, orderID)
	if err != nil {
		return FulfillmentView{}, err
	}
	view := FulfillmentView{Order: order}
	if found {
		view.Shipment = &s
	}
	return view, nil
}

func (u *FulfillmentUsecase) fail(log *zap.Logger, step string, committed []string, err error) error {
	u.metrics.FulfillmentSaved(step + "_failed")
	log.Warn("fulfillment save stopped",
		zap.String("step", step),
		zap.Strings("committed", committed),
		zap.Error(err),
	)
	return &FulfillmentError{Step: step, Committed: committed, Err: err}
}

// ストアの障害は保存自体を止めない
func (u *FulfillmentUsecase) replay(ctx context.Context, key string) (FulfillmentView, bool) {
	raw, ok, err := u.store.Get(ctx, key)
	if err != nil {
		u.log.Warn("idempotency store get failed", zap.String("key", key), zap.Error(err))
		return FulfillmentView{}, false
	}
	if !ok {
		return FulfillmentView{}, false
	}
	var v FulfillmentView
	if err := json.Unmarshal(raw, &v); err != nil {
		u.log.Warn("idempotency entry unreadable", zap.String("key", key), zap.Error(err))
		return FulfillmentView{}, false
	}
	return v, true
}

func (u *FulfillmentUsecase) remember(ctx context.Context, key string, v FulfillmentView) {
	raw, err := json.Marshal(v)
	if err != nil {
		u.log.Warn("idempotency entry encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := u.store.Save(ctx, key, raw, u.ttl); err != nil {
		u.log.Warn("idempotency store save failed", zap.String("key", key), zap.Error(err))
	}
}
