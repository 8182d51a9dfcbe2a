package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	modelInitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rembgd",
			Subsystem: "manager",
			Name:      "model_inits_total",
			Help:      "Provider initializations by algorithm and result",
		},
		[]string{"algorithm", "result"},
	)

	gateWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rembgd",
			Subsystem: "gate",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for the accelerator gate",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		},
	)

	gateHolders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rembgd",
			Subsystem: "gate",
			Name:      "holders",
			Help:      "Current holders of the accelerator gate (0 or 1)",
		},
	)

	gateWaiting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rembgd",
			Subsystem: "gate",
			Name:      "waiting",
			Help:      "Requests waiting for the accelerator gate",
		},
	)

	inferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rembgd",
			Subsystem: "manager",
			Name:      "inference_duration_seconds",
			Help:      "Provider inference duration by algorithm and result",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"algorithm", "result"},
	)

	deviceTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rembgd",
			Subsystem: "manager",
			Name:      "device_transitions_total",
			Help:      "Weight placement moves by direction and result",
		},
		[]string{"direction", "result"},
	)

	restoreFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rembgd",
			Subsystem: "manager",
			Name:      "restore_failures_total",
			Help:      "Failed moves of provider weights back to host memory",
		},
		[]string{"algorithm"},
	)
)

func init() {
	prometheus.MustRegister(
		modelInitsTotal,
		gateWaitSeconds,
		gateHolders,
		gateWaiting,
		inferenceDuration,
		deviceTransitionsTotal,
		restoreFailuresTotal,
	)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
