package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridcmd_commands_resolved_total",
		Help: "Total number of command-list resolutions, labelled by record type.",
	}, []string{"record_type"})

	Executions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridcmd_executions_total",
		Help: "Total number of command executions, labelled by command key and status.",
	}, []string{"command", "status"})

	ExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridcmd_execution_duration_ms",
		Help:    "End-to-end command execution latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	DispatchCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridcmd_dispatches_total",
		Help: "Total number of dispatches performed, labelled by action type and status.",
	}, []string{"action_type", "status"})

	ConfigReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridcmd_config_reloads_total",
		Help: "Total number of command-document reloads applied.",
	})

	ConfigErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridcmd_config_errors_total",
		Help: "Total number of command documents rejected and replaced with the empty default.",
	})
)
