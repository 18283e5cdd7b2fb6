// Package metrics exposes prometheus instrumentation for engine
// outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type EngineMetrics struct {
	CommissionsCreated *prometheus.CounterVec
	ItemsSkipped       *prometheus.CounterVec
	OrdersSkipped      *prometheus.CounterVec
	PayoutsGenerated   prometheus.Counter
	RecordsClaimed     prometheus.Counter
	PaymentsProcessed  *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		CommissionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_records_created_total",
			Help: "Commission records created, by split type.",
		}, []string{"split_type"}),
		ItemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_items_skipped_total",
			Help: "Order items skipped during commissioning, by reason.",
		}, []string{"reason"}),
		OrdersSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_orders_skipped_total",
			Help: "Orders skipped during commissioning, by reason.",
		}, []string{"reason"}),
		PayoutsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commission_payouts_generated_total",
			Help: "Payouts created by batch generation runs.",
		}),
		RecordsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commission_records_claimed_total",
			Help: "Commission records bound to a payout.",
		}),
		PaymentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_payout_payments_total",
			Help: "Payout payment attempts, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.CommissionsCreated,
		m.ItemsSkipped,
		m.OrdersSkipped,
		m.PayoutsGenerated,
		m.RecordsClaimed,
		m.PaymentsProcessed,
	)
	return m
}

func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

var Module = fx.Module("observability.metrics",
	fx.Provide(
		NewRegistry,
		func(reg *prometheus.Registry) prometheus.Registerer { return reg },
		NewEngineMetrics,
	),
)
