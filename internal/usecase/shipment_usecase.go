package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

type ShipmentUsecase struct {
	tx    repo.TransactionManager
	sync  *OrderStatusSynchronizer
	clock Clock
	log   *zap.Logger
}

func NewShipmentUsecase(tx repo.TransactionManager, sync *OrderStatusSynchronizer, clock Clock, log *zap.Logger) *ShipmentUsecase {
	return &ShipmentUsecase{tx: tx, sync: sync, clock: clock, log: log}
}

// 配送の入力。nilは未指定
type ShipmentFields struct {
	Courier        *string
	TrackingNumber *string
	Status         *string
	ShippedAt      *time.Time
	ExpectedDate   *time.Time
	DeliveredAt    *time.Time
}

// 何も入っていない（または既定値だけ）の入力なら配送は作らない
func (f ShipmentFields) IsDefault() bool {
	if f.Courier != nil && strings.TrimSpace(*f.Courier) != "" {
		return false
	}
	if f.TrackingNumber != nil && strings.TrimSpace(*f.TrackingNumber) != "" {
		return false
	}
	if f.Status != nil {
		s := strings.TrimSpace(*f.Status)
		if s != "" && s != string(model.ShipmentStatusPending) {
			return false
		}
	}
	return f.ShippedAt == nil && f.ExpectedDate == nil && f.DeliveredAt == nil
}

type CreateShipmentInput struct {
	OrderID int64
	ShipmentFields
}

type ListShipmentsInput struct {
	OrderID *int64
	Page    int
	Limit   int
}

type ShipmentListOutput struct {
	Shipments  []model.Shipment `json:"shipments"`
	Pagination Pagination       `json:"pagination"`
}

// 同じ注文に複数あっても作成順で最初の1件
func (u *ShipmentUsecase) FindByOrder(ctx context.Context, orderID int64) (model.Shipment, bool, error) {
	var (
		s     model.Shipment
		found bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		s, found, err = r.Shipments().FindFirstByOrderID(ctx, orderID)
		if err != nil {
			return dbError(u.log, "shipments.find_first_by_order_id", err)
		}
		return nil
	})
	if err != nil {
		return model.Shipment{}, false, err
	}
	return s, found, nil
}

// 管理者は全件。一般ユーザーは自分の注文のorderId指定が必須
func (u *ShipmentUsecase) List(ctx context.Context, actor model.Actor, in ListShipmentsInput) (ShipmentListOutput, error) {
	if err := authorize(actor.IsAuthenticated(), true); err != nil {
		return ShipmentListOutput{}, err
	}
	if err := validatePage(in.Page, in.Limit); err != nil {
		return ShipmentListOutput{}, err
	}
	if in.OrderID != nil && *in.OrderID <= 0 {
		return ShipmentListOutput{}, validationError("invalid orderId")
	}
	if !actor.IsAdmin() && in.OrderID == nil {
		return ShipmentListOutput{}, authorize(true, false)
	}

	var out ShipmentListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if !actor.IsAdmin() {
			o, err := r.Orders().FindByID(ctx, *in.OrderID)
			if errors.Is(err, repo.ErrNotFound) {
				return notFoundError("order not found")
			}
			if err != nil {
				return dbError(u.log, "orders.find_by_id", err)
			}
			if !o.IsOwnedBy(actor.UserID) {
				return authorize(true, false)
			}
		}

		list, total, err := r.Shipments().List(ctx, repo.ShipmentListFilter{
			OrderID: in.OrderID,
			Page:    in.Page,
			Limit:   in.Limit,
		})
		if err != nil {
			return dbError(u.log, "shipments.list", err)
		}
		out = ShipmentListOutput{Shipments: list, Pagination: newPagination(in.Page, in.Limit, total)}
		return nil
	})
	if err != nil {
		return ShipmentListOutput{}, err
	}
	return out, nil
}

// 作成後にDELIVEREDなら注文も同期（同期失敗でも配送は残す）
func (u *ShipmentUsecase) Create(ctx context.Context, actor model.Actor, in CreateShipmentInput) (model.Shipment, error) {
	s, err := u.create(ctx, actor, in.OrderID, in.ShipmentFields)
	if err != nil {
		return model.Shipment{}, err
	}
	u.syncOrder(ctx, actor, s)
	return s, nil
}

func (u *ShipmentUsecase) Patch(ctx context.Context, actor model.Actor, shipmentID int64, f ShipmentFields) (model.Shipment, error) {
	s, err := u.patch(ctx, actor, shipmentID, f)
	if err != nil {
		return model.Shipment{}, err
	}
	u.syncOrder(ctx, actor, s)
	return s, nil
}

func (u *ShipmentUsecase) syncOrder(ctx context.Context, actor model.Actor, s model.Shipment) {
	if _, err := u.sync.ReconcileShipment(ctx, actor.UserID, s); err != nil {
		u.log.Warn("shipment saved but order status sync failed",
			zap.Int64("shipment_id", s.ID),
			zap.Int64("order_id", s.OrderID),
			zap.Error(err),
		)
	}
}

func (u *ShipmentUsecase) create(ctx context.Context, actor model.Actor, orderID int64, f ShipmentFields) (model.Shipment, error) {
	if err := authorize(actor.IsAuthenticated(), actor.IsAdmin()); err != nil {
		return model.Shipment{}, err
	}
	if orderID <= 0 {
		return model.Shipment{}, validationError("invalid orderId")
	}

	patch, err := toShipmentPatch(f)
	if err != nil {
		return model.Shipment{}, err
	}

	status := model.ShipmentStatusPending
	if patch.Status != nil {
		status = *patch.Status
	}
	s := model.Shipment{
		OrderID:        orderID,
		Courier:        patch.Courier,
		TrackingNumber: patch.TrackingNumber,
		Status:         status,
		ShippedAt:      patch.ShippedAt,
		ExpectedDate:   patch.ExpectedDate,
		DeliveredAt:    patch.DeliveredAt,
	}
	u.stampDates(&s, model.Shipment{})

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFoundError("order not found")
			}
			return dbError(u.log, "orders.find_by_id", err)
		}

		if err := r.Shipments().Create(ctx, &s); err != nil {
			return dbError(u.log, "shipments.create", err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionCreateShipment,
			ResourceType: model.AuditResourceShipment,
			ResourceID:   s.ID,
			AfterJSON:    shipmentAuditJSON(s),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError(u.log, "audit_logs.create", err)
		}
		return nil
	})
	if err != nil {
		return model.Shipment{}, err
	}
	return s, nil
}

func (u *ShipmentUsecase) patch(ctx context.Context, actor model.Actor, shipmentID int64, f ShipmentFields) (model.Shipment, error) {
	if err := authorize(actor.IsAuthenticated(), actor.IsAdmin()); err != nil {
		return model.Shipment{}, err
	}
	if shipmentID <= 0 {
		return model.Shipment{}, validationError("invalid id")
	}

	patch, err := toShipmentPatch(f)
	if err != nil {
		return model.Shipment{}, err
	}

	var out model.Shipment
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		current, err := r.Shipments().FindByID(ctx, shipmentID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFoundError("shipment not found")
		}
		if err != nil {
			return dbError(u.log, "shipments.find_by_id", err)
		}
		if patch.IsEmpty() {
			out = current
			return nil
		}
		if patch.Status != nil {
			if err := model.ValidateShipmentTransition(current.Status, *patch.Status); err != nil {
				return validationError(err.Error())
			}
		}

		after := applyShipmentPatch(current, patch)
		u.stampDates(&after, current)
		//自動で埋めた日付も保存する
		patch.ShippedAt = after.ShippedAt
		patch.DeliveredAt = after.DeliveredAt

		if err := r.Shipments().Update(ctx, shipmentID, patch); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFoundError("shipment not found")
			}
			return dbError(u.log, "shipments.update", err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateShipment,
			ResourceType: model.AuditResourceShipment,
			ResourceID:   shipmentID,
			BeforeJSON:   shipmentAuditJSON(current),
			AfterJSON:    shipmentAuditJSON(after),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError(u.log, "audit_logs.create", err)
		}

		out = after
		return nil
	})
	if err != nil {
		return model.Shipment{}, err
	}
	return out, nil
}

// 段階に到達した日付が空なら今の時刻を入れる
func (u *ShipmentUsecase) stampDates(s *model.Shipment, before model.Shipment) {
	now := u.clock.Now()
	if s.Status.HasLeftWarehouse() && s.ShippedAt == nil && before.ShippedAt == nil {
		s.ShippedAt = &now
	}
	if s.Status == model.ShipmentStatusDelivered && s.DeliveredAt == nil && before.DeliveredAt == nil {
		s.DeliveredAt = &now
	}
}

func toShipmentPatch(f ShipmentFields) (repo.ShipmentPatch, error) {
	var p repo.ShipmentPatch
	if f.Courier != nil {
		c := strings.TrimSpace(*f.Courier)
		p.Courier = &c
	}
	if f.TrackingNumber != nil {
		t := strings.TrimSpace(*f.TrackingNumber)
		p.TrackingNumber = &t
	}
	//空文字は未指定扱い（IsDefault と合わせる）
	if f.Status != nil && strings.TrimSpace(*f.Status) != "" {
		st, ok := model.ParseShipmentStatus(strings.TrimSpace(*f.Status))
		if !ok {
			return repo.ShipmentPatch{}, validationError("invalid shipment status")
		}
		p.Status = &st
	}
	p.ShippedAt = f.ShippedAt
	p.ExpectedDate = f.ExpectedDate
	p.DeliveredAt = f.DeliveredAt
	return p, nil
}

func applyShipmentPatch(s model.Shipment, p repo.ShipmentPatch) model.Shipment {
	if p.Courier != nil {
		c := *p.Courier
		s.Courier = &c
	}
	if p.TrackingNumber != nil {
		t := *p.TrackingNumber
		s.TrackingNumber = &t
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.ShippedAt != nil {
		s.ShippedAt = p.ShippedAt
	}
	if p.ExpectedDate != nil {
		s.ExpectedDate = p.ExpectedDate
	}
	if p.DeliveredAt != nil {
		s.DeliveredAt = p.DeliveredAt
	}
	return s
}
