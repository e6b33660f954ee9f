package usecase

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

// 配送がDELIVEREDになったら注文もDELIVEREDにそろえる。
// 逆方向（配送CANCELLED/RETURNEDで注文キャンセル）はしない
type OrderStatusSynchronizer struct {
	tx      repo.TransactionManager
	clock   Clock
	metrics Metrics
	log     *zap.Logger
}

func NewOrderStatusSynchronizer(tx repo.TransactionManager, clock Clock, metrics Metrics, log *zap.Logger) *OrderStatusSynchronizer {
	return &OrderStatusSynchronizer{tx: tx, clock: clock, metrics: metrics, log: log}
}

// 副作用なし。changed=false なら何もしなくてよい
func (s *OrderStatusSynchronizer) Decide(order model.Order, shipment model.Shipment) (model.OrderStatus, bool) {
	if shipment.Status == model.ShipmentStatusDelivered && order.Status != model.OrderStatusDelivered {
		return model.OrderStatusDelivered, true
	}
	return order.Status, false
}

// 失敗しても配送の書き込みは取り消さない（呼び出し側に返すだけ）
func (s *OrderStatusSynchronizer) Reconcile(ctx context.Context, actorUserID int64, order model.Order, shipment model.Shipment) (model.Order, error) {
	target, changed := s.Decide(order, shipment)
	if !changed {
		return order, nil
	}

	now := s.clock.Now()
	err := s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().Update(ctx, order.ID, repo.OrderPatch{Status: &target}); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFoundError("order not found")
			}
			return dbError(s.log, "orders.update", err)
		}

		after := order
		after.Status = target
		after.UpdatedAt = now
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionSyncOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   order.ID,
			BeforeJSON:   orderAuditJSON(order),
			AfterJSON:    orderAuditJSON(after),
			CreatedAt:    now,
		}); err != nil {
			return dbError(s.log, "audit_logs.create", err)
		}
		return nil
	})
	if err != nil {
		s.metrics.Reconciled("failed")
		s.log.Warn("order status sync failed; shipment write kept",
			zap.Int64("order_id", order.ID),
			zap.Int64("shipment_id", shipment.ID),
			zap.Error(err),
		)
		return order, err
	}

	s.metrics.Reconciled("applied")
	s.log.Info("order status synced from shipment",
		zap.Int64("order_id", order.ID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(target)),
	)

	order.Status = target
	order.UpdatedAt = now
	return order, nil
}

// 配送単体の更新（/shipments）から呼ぶ用。注文を読み直してから同期する
func (s *OrderStatusSynchronizer) ReconcileShipment(ctx context.Context, actorUserID int64, shipment model.Shipment) (model.Order, error) {
	if shipment.Status != model.ShipmentStatusDelivered {
		return model.Order{}, nil
	}

	var order model.Order
	err := s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, shipment.OrderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFoundError("order not found")
		}
		if err != nil {
			return dbError(s.log, "orders.find_by_id", err)
		}
		order = o
		return nil
	})
	if err != nil {
		s.metrics.Reconciled("failed")
		return model.Order{}, err
	}
	return s.Reconcile(ctx, actorUserID, order, shipment)
}
