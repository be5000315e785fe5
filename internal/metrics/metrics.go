// Package metrics defines the prometheus collectors for the lease engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namePrefix = "stakebank_"

// Metrics holds the engine's prometheus collectors.
type Metrics struct {
	LeasesOpened  *prometheus.CounterVec
	LeasesExpired *prometheus.CounterVec
	Rotations     *prometheus.CounterVec
	IncomeTotal   prometheus.Counter
	ReservedTotal prometheus.Counter
	RefundsTotal  prometheus.Counter
	SweptLeases   prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LeasesOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: namePrefix + "leases_opened_total",
				Help: "Total number of leases opened",
			},
			[]string{"tier"},
		),
		LeasesExpired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: namePrefix + "leases_expired_total",
				Help: "Total number of leases matured and released",
			},
			[]string{"tier"},
		),
		Rotations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: namePrefix + "creditor_rotations_total",
				Help: "Total number of active-creditor promotions",
			},
			[]string{"tier"},
		),
		IncomeTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: namePrefix + "income_total",
				Help: "Total income paid out to creditors",
			},
		),
		ReservedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: namePrefix + "reserved_total",
				Help: "Total reserve retained by the treasury",
			},
		),
		RefundsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: namePrefix + "refunds_total",
				Help: "Total deposits refunded for free-tier leases",
			},
		),
		SweptLeases: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: namePrefix + "swept_leases_total",
				Help: "Total overdue leases collected by bounded sweeps",
			},
		),
	}
	reg.MustRegister(
		m.LeasesOpened, m.LeasesExpired, m.Rotations,
		m.IncomeTotal, m.ReservedTotal, m.RefundsTotal, m.SweptLeases,
	)
	return m
}

// Tier returns the metric label for a lease or creditor tier.
func Tier(free bool) string {
	if free {
		return "free"
	}
	return "paid"
}
