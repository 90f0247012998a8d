package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// CallEvent records metadata about a single dashboard operation, retries
// included.
type CallEvent struct {
	Op        string
	PlanID    string
	Latency   time.Duration
	Attempts  int
	Success   bool
	ErrorCode string
}

// Observer receives events about dashboard calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// ZapObserver logs call events.
type ZapObserver struct {
	log *zap.Logger
}

// NewZapObserver creates an Observer that logs events to log.
func NewZapObserver(log *zap.Logger) *ZapObserver {
	return &ZapObserver{log: log.Named("remote")}
}

func (o *ZapObserver) OnCallComplete(event CallEvent) {
	fields := []zap.Field{
		zap.String("op", event.Op),
		zap.String("plan_id", event.PlanID),
		zap.Duration("latency", event.Latency),
		zap.Int("attempts", event.Attempts),
	}
	if event.Success {
		o.log.Debug("dashboard call", fields...)
		return
	}
	o.log.Warn("dashboard call failed", append(fields, zap.String("error_code", event.ErrorCode))...)
}

// MetricsObserver counts call events in Prometheus.
type MetricsObserver struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetricsObserver creates the collectors and registers them on reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "termplan",
			Subsystem: "remote",
			Name:      "calls_total",
			Help:      "Dashboard calls by operation and result.",
		}, []string{"op", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "termplan",
			Subsystem: "remote",
			Name:      "call_duration_seconds",
			Help:      "Dashboard call latency including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 12, 15},
		}, []string{"op"}),
	}
	for _, c := range []prometheus.Collector{o.calls, o.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *MetricsObserver) OnCallComplete(event CallEvent) {
	code := event.ErrorCode
	if event.Success {
		code = "OK"
	}
	o.calls.WithLabelValues(event.Op, code).Inc()
	o.latency.WithLabelValues(event.Op).Observe(event.Latency.Seconds())
}

// Observers fans an event out to several observers.
type Observers []Observer

func (obs Observers) OnCallComplete(event CallEvent) {
	for _, o := range obs {
		o.OnCallComplete(event)
	}
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
