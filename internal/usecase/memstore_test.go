package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

// メモリ上のDB。WithinTxが失敗したら中身を戻す
type memStore struct {
	mu sync.Mutex

	orders    map[int64]model.Order
	shipments map[int64]model.Shipment
	audits    []model.AuditLog
	nextID    int64

	// 失敗させたい書き込み
	failShipmentWrite error
	failOrderUpdate   func(p repo.OrderPatch) error
}

func newMemStore() *memStore {
	return &memStore{
		orders:    map[int64]model.Order{},
		shipments: map[int64]model.Shipment{},
		nextID:    1000,
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make(map[int64]model.Order, len(s.orders))
	for k, v := range s.orders {
		orders[k] = v
	}
	shipments := make(map[int64]model.Shipment, len(s.shipments))
	for k, v := range s.shipments {
		shipments[k] = v
	}
	audits := append([]model.AuditLog(nil), s.audits...)

	if err := fn(memRepos{s}); err != nil {
		s.orders, s.shipments, s.audits = orders, shipments, audits
		return err
	}
	return nil
}

func (s *memStore) order(id int64) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

func (s *memStore) shipmentsOf(orderID int64) []model.Shipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Shipment
	for _, sh := range s.shipments {
		if sh.OrderID == orderID {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) auditActions() []model.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditAction, 0, len(s.audits))
	for _, a := range s.audits {
		out = append(out, a.Action)
	}
	return out
}

type memRepos struct{ s *memStore }

func (r memRepos) Orders() repo.OrderRepository         { return memOrders{r.s} }
func (r memRepos) OrderItems() repo.OrderItemRepository { return nil }
func (r memRepos) Shipments() repo.ShipmentRepository   { return memShipments{r.s} }
func (r memRepos) Products() repo.ProductRepository     { return nil }
func (r memRepos) Inventory() repo.InventoryRepository  { return nil }
func (r memRepos) AuditLogs() repo.AuditLogRepository   { return memAudits{r.s} }

type memOrders struct{ s *memStore }

func (m memOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	o, ok := m.s.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m memOrders) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	panic("not used")
}

func (m memOrders) Create(ctx context.Context, o *model.Order) error {
	m.s.nextID++
	o.ID = m.s.nextID
	m.s.orders[o.ID] = *o
	return nil
}

func (m memOrders) Update(ctx context.Context, id int64, p repo.OrderPatch) error {
	if m.s.failOrderUpdate != nil {
		if err := m.s.failOrderUpdate(p); err != nil {
			return err
		}
	}
	o, ok := m.s.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
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
	m.s.orders[id] = o
	return nil
}

func (m memOrders) FindByIdempotencyKey(ctx context.Context, key string) (model.Order, bool, error) {
	panic("not used")
}

type memShipments struct{ s *memStore }

func (m memShipments) FindByID(ctx context.Context, id int64) (model.Shipment, error) {
	sh, ok := m.s.shipments[id]
	if !ok {
		return model.Shipment{}, repo.ErrNotFound
	}
	return sh, nil
}

func (m memShipments) FindFirstByOrderID(ctx context.Context, orderID int64) (model.Shipment, bool, error) {
	var (
		first model.Shipment
		found bool
	)
	for _, sh := range m.s.shipments {
		if sh.OrderID == orderID && (!found || sh.ID < first.ID) {
			first, found = sh, true
		}
	}
	return first, found, nil
}

func (m memShipments) List(ctx context.Context, f repo.ShipmentListFilter) ([]model.Shipment, int64, error) {
	panic("not used")
}

func (m memShipments) Create(ctx context.Context, sh *model.Shipment) error {
	if m.s.failShipmentWrite != nil {
		return m.s.failShipmentWrite
	}
	m.s.nextID++
	sh.ID = m.s.nextID
	m.s.shipments[sh.ID] = *sh
	return nil
}

func (m memShipments) Update(ctx context.Context, id int64, p repo.ShipmentPatch) error {
	if m.s.failShipmentWrite != nil {
		return m.s.failShipmentWrite
	}
	sh, ok := m.s.shipments[id]
	if !ok {
		return repo.ErrNotFound
	}
	if p.Courier != nil {
		sh.Courier = p.Courier
	}
	if p.TrackingNumber != nil {
		sh.TrackingNumber = p.TrackingNumber
	}
	if p.Status != nil {
		sh.Status = *p.Status
	}
	if p.ShippedAt != nil {
		sh.ShippedAt = p.ShippedAt
	}
	if p.ExpectedDate != nil {
		sh.ExpectedDate = p.ExpectedDate
	}
	if p.DeliveredAt != nil {
		sh.DeliveredAt = p.DeliveredAt
	}
	m.s.shipments[id] = sh
	return nil
}

type memAudits struct{ s *memStore }

func (m memAudits) Create(ctx context.Context, l model.AuditLog) error {
	m.s.audits = append(m.s.audits, l)
	return nil
}

func (m memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	panic("not used")
}

// memIdempotencyStore は Redis の代わり
type memIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{entries: map[string][]byte{}}
}

func (s *memIdempotencyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *memIdempotencyStore) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}
