package metrics

import (
	"testing"

	"bookstore/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.OrderCreated(model.PaymentStatusUnpaid)
	c.OrderCreated(model.PaymentStatusUnpaid)
	c.OrderCreated(model.PaymentStatusPaid)
	c.OrderCreateFailed("invalid_input")
	c.FulfillmentSaved("ok")
	c.FulfillmentSaved("shipment_failed")
	c.Reconciled("applied")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ordersCreated.WithLabelValues("UNPAID")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ordersCreated.WithLabelValues("PAID")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.orderCreateFailures.WithLabelValues("invalid_input")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fulfillmentSaves.WithLabelValues("shipment_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reconciliations.WithLabelValues("applied")))

	n, err := testutil.GatherAndCount(reg, "bookstore_fulfillment_saves_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}
