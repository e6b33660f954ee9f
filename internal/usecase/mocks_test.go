package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	shipments  repo.ShipmentRepository
	products   repo.ProductRepository
	inventory  repo.InventoryRepository
	auditLogs  repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) Shipments() repo.ShipmentRepository   { return r.shipments }
func (r *TxReposMock) Products() repo.ProductRepository     { return r.products }
func (r *TxReposMock) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	if err := args.Error(0); err != nil {
		return err
	}
	// DBが採番したことにする
	if order.ID == 0 {
		order.ID = 100
	}
	return nil
}

func (m *OrderRepoMock) Update(ctx context.Context, orderID int64, patch repo.OrderPatch) error {
	args := m.Called(ctx, orderID, patch)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, key string) (model.Order, bool, error) {
	args := m.Called(ctx, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

type ShipmentRepoMock struct{ mock.Mock }

func (m *ShipmentRepoMock) FindByID(ctx context.Context, shipmentID int64) (model.Shipment, error) {
	args := m.Called(ctx, shipmentID)
	s, _ := args.Get(0).(model.Shipment)
	return s, args.Error(1)
}

func (m *ShipmentRepoMock) FindFirstByOrderID(ctx context.Context, orderID int64) (model.Shipment, bool, error) {
	args := m.Called(ctx, orderID)
	s, _ := args.Get(0).(model.Shipment)
	return s, args.Bool(1), args.Error(2)
}

func (m *ShipmentRepoMock) List(ctx context.Context, f repo.ShipmentListFilter) ([]model.Shipment, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]model.Shipment)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *ShipmentRepoMock) Create(ctx context.Context, shipment *model.Shipment) error {
	args := m.Called(ctx, shipment)
	if err := args.Error(0); err != nil {
		return err
	}
	if shipment.ID == 0 {
		shipment.ID = 500
	}
	return nil
}

func (m *ShipmentRepoMock) Update(ctx context.Context, shipmentID int64, patch repo.ShipmentPatch) error {
	args := m.Called(ctx, shipmentID, patch)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	list, _ := args.Get(0).([]model.Product)
	return list, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

// =====================
// 部品
// =====================

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixedIDs struct{ id string }

func (g fixedIDs) NewID() string { return g.id }

// ラベルごとの回数だけ数える
type metricsSpy struct {
	created      map[model.PaymentStatus]int
	createFailed map[string]int
	fulfillment  map[string]int
	reconciled   map[string]int
}

func newMetricsSpy() *metricsSpy {
	return &metricsSpy{
		created:      map[model.PaymentStatus]int{},
		createFailed: map[string]int{},
		fulfillment:  map[string]int{},
		reconciled:   map[string]int{},
	}
}

func (m *metricsSpy) OrderCreated(s model.PaymentStatus) { m.created[s]++ }
func (m *metricsSpy) OrderCreateFailed(r string)         { m.createFailed[r]++ }
func (m *metricsSpy) FulfillmentSaved(r string)          { m.fulfillment[r]++ }
func (m *metricsSpy) Reconciled(r string)                { m.reconciled[r]++ }

var _ usecase.Metrics = (*metricsSpy)(nil)

var (
	admin    = model.Actor{UserID: 1, Role: model.RoleAdmin}
	customer = model.Actor{UserID: 7, Role: model.RoleUser}
	stranger = model.Actor{UserID: 8, Role: model.RoleUser}
	guest    = model.Actor{}
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "want HTTPError, got %v", err) {
		assert.Equal(t, want, he.Status)
	}
}
