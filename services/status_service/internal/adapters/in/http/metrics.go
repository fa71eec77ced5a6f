package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 状态接口的 Prometheus 指标
type Metrics struct {
	reports      *prometheus.CounterVec
	queries      prometheus.Counter
	rejected     *prometheus.CounterVec
	freshDevices prometheus.Gauge
}

// NewMetrics 创建并注册到 reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livestatus",
			Name:      "status_reports_total",
			Help:      "Number of accepted status reports by device.",
		}, []string{"device"}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "livestatus",
			Name:      "status_queries_total",
			Help:      "Number of status queries served.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livestatus",
			Name:      "status_reports_rejected_total",
			Help:      "Number of rejected write requests by reason.",
		}, []string{"reason"}),
		freshDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "livestatus",
			Name:      "fresh_devices",
			Help:      "Number of devices considered fresh by the last query.",
		}),
	}

	for _, c := range []prometheus.Collector{m.reports, m.queries, m.rejected, m.freshDevices} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

const (
	reasonUnauthorized = "unauthorized"
	reasonInvalidBody  = "invalid_body"
	reasonRateLimited  = "rate_limited"
)

func (m *Metrics) reportAccepted(device string) {
	if m != nil {
		m.reports.WithLabelValues(device).Inc()
	}
}

func (m *Metrics) reportRejected(reason string) {
	if m != nil {
		m.rejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) queried(fresh int) {
	if m != nil {
		m.queries.Inc()
		m.freshDevices.Set(float64(fresh))
	}
}
