package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the engine's Prometheus metrics.
type Collector struct {
	JobsFired      prometheus.Counter
	JobsFailed     prometheus.Counter
	JobsRecovered  prometheus.Counter
	JobsPending    prometheus.Gauge
	PollsFinalized prometheus.Counter
	MutesActive    prometheus.Gauge
	SessionsActive prometheus.Gauge
	SessionsDone   prometheus.Counter
	LedgerEntries  prometheus.Counter
}

func NewCollector() *Collector {
	return &Collector{
		JobsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guildwarden_jobs_fired_total",
			Help: "Total number of scheduled jobs fired",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guildwarden_jobs_failed_total",
			Help: "Total number of job callbacks that returned an error or panicked",
		}),
		JobsRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guildwarden_jobs_recovered_total",
			Help: "Total number of jobs re-armed from storage at startup",
		}),
		JobsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "guildwarden_jobs_pending",
			Help: "Number of persisted jobs waiting to fire",
		}),
		PollsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guildwarden_polls_finalized_total",
			Help: "Total number of polls finalized",
		}),
		MutesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "guildwarden_mutes_active",
			Help: "Number of active mute records",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "guildwarden_sessions_active",
			Help: "Number of running sessions",
		}),
		SessionsDone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guildwarden_sessions_settled_total",
			Help: "Total number of sessions settled",
		}),
		LedgerEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guildwarden_ledger_entries_total",
			Help: "Total number of ledger entries recorded across sessions",
		}),
	}
}

// Register registers all collectors on the given registry.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.JobsFired,
		c.JobsFailed,
		c.JobsRecovered,
		c.JobsPending,
		c.PollsFinalized,
		c.MutesActive,
		c.SessionsActive,
		c.SessionsDone,
		c.LedgerEntries,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}
