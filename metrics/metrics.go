package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"firealarm/model"
)

const metricPrefix = "firealarm_"

var (
	TelemetryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "telemetry_total",
			Help: "Device telemetry posts by outcome",
		},
		[]string{"outcome"},
	)

	AlarmsRaised = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "alarms_raised_total",
		Help: "Alarm records opened",
	})

	AlarmsAcknowledged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "alarms_acknowledged_total",
		Help: "Alarm records acknowledged by operators",
	})

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{TelemetryTotal, AlarmsRaised, AlarmsAcknowledged, RequestDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func ObserveTelemetry(outcome string) {
	TelemetryTotal.WithLabelValues(outcome).Inc()
}

func ObserveRequest(route string, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	RequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Notifier counts committed alarm changes.
type Notifier struct{}

func (Notifier) AlarmRaised(context.Context, model.AlarmRecord) {
	AlarmsRaised.Inc()
}

func (Notifier) AlarmAcknowledged(context.Context, model.AlarmRecord) {
	AlarmsAcknowledged.Inc()
}
