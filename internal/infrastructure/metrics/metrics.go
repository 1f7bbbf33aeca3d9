package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the service counters. A nil *Collector is valid and records nothing.
type Collector struct {
	postings        *prometheus.CounterVec
	matches         *prometheus.CounterVec
	fees            *prometheus.CounterVec
	payments        *prometheus.CounterVec
	integrityFaults prometheus.Counter
}

// New creates the collector and registers it on reg.
func New(namespace string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		postings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_postings_total",
				Help:      "Ledger transfers posted, by category",
			},
			[]string{"category"},
		),
		matches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_runs_total",
				Help:      "Matching runs, by resulting loan status",
			},
			[]string{"status"},
		),
		fees: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fees_charged_total",
				Help:      "Fee charges, by fee type",
			},
			[]string{"fee_type"},
		),
		payments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "installment_payments_total",
				Help:      "Installment payments, by resulting status",
			},
			[]string{"status"},
		),
		integrityFaults: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "integrity_faults_total",
				Help:      "Custody snapshots found diverging from the ledger",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(c.postings, c.matches, c.fees, c.payments, c.integrityFaults)
	}
	return c
}

func (c *Collector) Posting(category string) {
	if c != nil {
		c.postings.WithLabelValues(category).Inc()
	}
}

func (c *Collector) Match(status string) {
	if c != nil {
		c.matches.WithLabelValues(status).Inc()
	}
}

func (c *Collector) Fee(feeType string) {
	if c != nil {
		c.fees.WithLabelValues(feeType).Inc()
	}
}

func (c *Collector) Payment(status string) {
	if c != nil {
		c.payments.WithLabelValues(status).Inc()
	}
}

func (c *Collector) IntegrityFault() {
	if c != nil {
		c.integrityFaults.Inc()
	}
}
