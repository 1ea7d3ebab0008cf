package observability

import (
	"context"
	"net/http"

	"roulette/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed from the event bus
type Metrics struct {
	registry *prometheus.Registry

	BetsTotal                *prometheus.CounterVec
	BetAmountTotal           prometheus.Counter
	PayoutTotal              prometheus.Counter
	BonusesTotal             *prometheus.CounterVec
	BalanceChangesTotal      *prometheus.CounterVec
	AccountsCreatedTotal     prometheus.Counter
	PersistenceFailuresTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		BetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roulette_bets_total",
				Help: "Total number of settled bets by choice and result",
			},
			[]string{"choice", "result"},
		),

		BetAmountTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "roulette_bet_amount_total",
				Help: "Total coins staked on settled bets",
			},
		),

		PayoutTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "roulette_payout_total",
				Help: "Total coins credited to winning bets",
			},
		),

		BonusesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roulette_bonuses_total",
				Help: "Total number of granted rewards by kind",
			},
			[]string{"kind"},
		),

		BalanceChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roulette_balance_changes_total",
				Help: "Total number of balance changes by transaction type",
			},
			[]string{"transaction_type"},
		),

		AccountsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "roulette_accounts_created_total",
				Help: "Total number of lazily created accounts",
			},
		),

		PersistenceFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roulette_persistence_failures_total",
				Help: "Total number of ledger changes that could not be persisted",
			},
			[]string{"operation"},
		),
	}

	m.registry.MustRegister(
		m.BetsTotal,
		m.BetAmountTotal,
		m.PayoutTotal,
		m.BonusesTotal,
		m.BalanceChangesTotal,
		m.AccountsCreatedTotal,
		m.PersistenceFailuresTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Subscribe updates the collectors from ledger events
func (m *Metrics) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBetSettled, func(ctx context.Context, event events.Event) {
		e := event.(events.BetSettledEvent)
		result := "loss"
		if e.Won {
			result = "win"
		}
		m.BetsTotal.WithLabelValues(string(e.Choice), result).Inc()
		m.BetAmountTotal.Add(float64(e.Amount))
		m.PayoutTotal.Add(float64(e.Payout))
	})

	bus.Subscribe(events.EventTypeBonusGranted, func(ctx context.Context, event events.Event) {
		e := event.(events.BonusGrantedEvent)
		m.BonusesTotal.WithLabelValues(string(e.Kind)).Inc()
	})

	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		e := event.(events.BalanceChangeEvent)
		m.BalanceChangesTotal.WithLabelValues(string(e.TransactionType)).Inc()
	})

	bus.Subscribe(events.EventTypeAccountCreated, func(ctx context.Context, event events.Event) {
		m.AccountsCreatedTotal.Inc()
	})

	bus.Subscribe(events.EventTypePersistenceFailed, func(ctx context.Context, event events.Event) {
		e := event.(events.PersistenceFailedEvent)
		m.PersistenceFailuresTotal.WithLabelValues(e.Operation).Inc()
	})
}
