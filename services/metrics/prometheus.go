package metricsvc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campusgate/outpass/core"
)

// Prometheus counts workflow events on its own registry.
type Prometheus struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	dispatches  *prometheus.CounterVec
	lateMarked  prometheus.Counter
	sweeps      *prometheus.CounterVec
}

var _ core.Metrics = (*Prometheus)(nil)

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outpass",
			Name:      "transitions_total",
			Help:      "Outpass status changes, by previous and new status.",
		}, []string{"from", "to"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outpass",
			Name:      "notification_dispatches_total",
			Help:      "Notification deliveries, by channel and result.",
		}, []string{"channel", "result"}),
		lateMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "outpass",
			Name:      "late_marked_total",
			Help:      "Outpasses marked Late by the sweeper.",
		}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outpass",
			Name:      "late_sweeps_total",
			Help:      "Late sweeps run, by result.",
		}, []string{"result"}),
	}
	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.transitions,
		p.dispatches,
		p.lateMarked,
		p.sweeps,
	)
	return p
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) ObserveTransition(from, to string) {
	if from == "" {
		from = "none"
	}
	p.transitions.WithLabelValues(from, to).Inc()
}

func (p *Prometheus) ObserveDispatch(channel string, err error) {
	p.dispatches.WithLabelValues(channel, result(err)).Inc()
}

func (p *Prometheus) ObserveLateSweep(marked int, err error) {
	p.lateMarked.Add(float64(marked))
	p.sweeps.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
