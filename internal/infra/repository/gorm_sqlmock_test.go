package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestOrderGormRepository_Update(t *testing.T) {
	ctx := context.Background()
	delivered := model.OrderStatusDelivered

	t.Run("updates only given columns", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE "orders" SET .*"status"=.* WHERE id = `).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewOrderGormRepository(db).Update(ctx, 10, repo.OrderPatch{Status: &delivered})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE "orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewOrderGormRepository(db).Update(ctx, 10, repo.OrderPatch{Status: &delivered})
		assert.ErrorIs(t, err, repo.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty patch skips the query", func(t *testing.T) {
		db, mock := newMockDB(t)

		require.NoError(t, NewOrderGormRepository(db).Update(ctx, 10, repo.OrderPatch{}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE "orders" SET`).WillReturnError(errors.New("conn reset"))

		err := NewOrderGormRepository(db).Update(ctx, 10, repo.OrderPatch{Status: &delivered})
		require.Error(t, err)
		assert.NotErrorIs(t, err, repo.ErrNotFound)
	})
}

func TestShipmentGormRepository_FindFirstByOrderID(t *testing.T) {
	ctx := context.Background()
	cols := []string{"id", "order_id", "courier", "tracking_number", "status", "shipped_at", "expected_date", "delivered_at", "created_at", "updated_at"}

	t.Run("first by creation", func(t *testing.T) {
		db, mock := newMockDB(t)
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT \* FROM "shipments" WHERE order_id = \$1 ORDER BY created_at asc,id asc`).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(20, 10, "Pathao", "TRK-1", "IN_TRANSIT", now, nil, nil, now, now))

		s, found, err := NewShipmentGormRepository(db).FindFirstByOrderID(ctx, 10)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, int64(20), s.ID)
		assert.Equal(t, model.ShipmentStatusInTransit, s.Status)
		assert.Equal(t, "Pathao", *s.Courier)
		assert.Nil(t, s.DeliveredAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("none", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(sqlmock.NewRows(cols))

		_, found, err := NewShipmentGormRepository(db).FindFirstByOrderID(ctx, 10)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestShipmentGormRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "shipments" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewShipmentGormRepository(db).FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestShipmentGormRepository_Update_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "shipments" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	courier := "Pathao"
	err := NewShipmentGormRepository(db).Update(context.Background(), 99, repo.ShipmentPatch{Courier: &courier})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestAuditLogGormRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE resource_type = \$1 AND resource_id IN \(\$2,\$3\)`).
		WithArgs("shipment", int64(20), int64(21)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE resource_type = \$1 AND resource_id IN \(\$2,\$3\) ORDER BY created_at desc,id desc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_user_id", "action", "resource_type", "resource_id", "before_json", "after_json", "created_at"}).
			AddRow(2, 1, "UPDATE_SHIPMENT", "shipment", 21, "{}", "{}", now).
			AddRow(1, 1, "CREATE_SHIPMENT", "shipment", 20, "", "{}", now))

	logs, total, err := NewAuditLogGormRepository(db).List(context.Background(), repo.AuditLogFilter{
		ResourceType: model.AuditResourceShipment,
		ResourceIDs:  []int64{20, 21},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 2)
	assert.Equal(t, model.AuditActionUpdateShipment, logs[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryGormRepository_DecreaseStockIfEnough(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1`).WillReturnResult(sqlmock.NewResult(0, 0))

	r := NewInventoryGormRepository(db)

	ok, err := r.DecreaseStockIfEnough(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.DecreaseStockIfEnough(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 20},
		{2, 50, 2, 50},
		{3, 101, 3, 20},
		{-1, -5, 1, 20},
	}
	for _, tt := range tests {
		p, l := normalizePage(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantLimit, l)
	}
}
