package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EventsAppended  *prometheus.CounterVec
	AppendDuration  prometheus.Histogram
	AppendConflicts prometheus.Counter

	// Expense metrics
	ExpensesRecorded prometheus.Counter
	ExpenseAmount    prometheus.Histogram

	// Settlement metrics
	SettlementsRecorded  prometheus.Counter
	SettlementsConfirmed prometheus.Counter
	SettlementsFailed    prometheus.Counter

	// Balance metrics
	BalanceComputations prometheus.Counter
	BalanceCacheHits    prometheus.Counter
	BalanceCacheMisses  prometheus.Counter
	PlansComputed       prometheus.Counter
	PlanTransferCount   prometheus.Histogram
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Ledger metrics
		EventsAppended: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_events_appended_total",
				Help: "Total number of ledger events appended by kind",
			},
			[]string{"kind"},
		),
		AppendDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_append_duration_seconds",
			Help:    "Duration of ledger append operations",
			Buckets: prometheus.DefBuckets,
		}),
		AppendConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_append_conflicts_total",
			Help: "Total number of idempotency key conflicts on append",
		}),

		// Expense metrics
		ExpensesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_expenses_recorded_total",
			Help: "Total number of expenses recorded",
		}),
		ExpenseAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_expense_amount_minor_units",
			Help:    "Expense amounts in minor currency units",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		}),

		// Settlement metrics
		SettlementsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_settlements_recorded_total",
			Help: "Total number of settlements recorded",
		}),
		SettlementsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_settlements_confirmed_total",
			Help: "Total number of settlements confirmed",
		}),
		SettlementsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_settlements_failed_total",
			Help: "Total number of settlements marked failed",
		}),

		// Balance metrics
		BalanceComputations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_balance_computations_total",
			Help: "Total number of balance sheet computations",
		}),
		BalanceCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_balance_cache_hits_total",
			Help: "Total number of balance snapshot cache hits",
		}),
		BalanceCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_balance_cache_misses_total",
			Help: "Total number of balance snapshot cache misses",
		}),
		PlansComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_plans_computed_total",
			Help: "Total number of settlement plans computed",
		}),
		PlanTransferCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_plan_transfer_count",
			Help:    "Number of transfers per computed settlement plan",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
		}),
	}
}
