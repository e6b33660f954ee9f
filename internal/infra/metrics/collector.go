package metrics

import (
	"bookstore/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

// 注文・配送まわりの指標
type Collector struct {
	ordersCreated       *prometheus.CounterVec
	orderCreateFailures *prometheus.CounterVec
	fulfillmentSaves    *prometheus.CounterVec
	reconciliations     *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ordersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookstore_orders_created_total",
				Help: "Orders created, by initial payment status",
			},
			[]string{"payment_status"},
		),
		orderCreateFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookstore_order_create_failures_total",
				Help: "Rejected order creations, by reason",
			},
			[]string{"reason"},
		),
		fulfillmentSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookstore_fulfillment_saves_total",
				Help: "Admin fulfillment saves, by outcome",
			},
			[]string{"result"},
		),
		reconciliations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookstore_order_reconciliations_total",
				Help: "Order status reconciliations triggered by delivered shipments",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(c.ordersCreated, c.orderCreateFailures, c.fulfillmentSaves, c.reconciliations)
	return c
}

func (c *Collector) OrderCreated(status model.PaymentStatus) {
	c.ordersCreated.WithLabelValues(string(status)).Inc()
}

func (c *Collector) OrderCreateFailed(reason string) {
	c.orderCreateFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) FulfillmentSaved(result string) {
	c.fulfillmentSaves.WithLabelValues(result).Inc()
}

func (c *Collector) Reconciled(result string) {
	c.reconciliations.WithLabelValues(result).Inc()
}
