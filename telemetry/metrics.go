package telemetry

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// This package is how we write metrics in freetime. By default they are no-ops.
// But a user can provide an implementation if they want their metrics to go somewhere.

type Metrics interface {
	SetCount(key string, value int64)
	SetGauge(key string, value float64)
}

type NOPMetrics struct {
}

func (n NOPMetrics) SetCount(key string, value int64) {
}
func (n NOPMetrics) SetGauge(key string, value float64) {
}

// promMetrics registers one gauge per key the first time the key is seen. Keys must be valid
// Prometheus metric names.
type promMetrics struct {
	lock       sync.Mutex
	namespace  string
	registerer prometheus.Registerer
	gauges     map[string]prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer, namespace string) Metrics {
	return &promMetrics{
		namespace:  namespace,
		registerer: registerer,
		gauges:     map[string]prometheus.Gauge{},
	}
}

func (p *promMetrics) gauge(key string) prometheus.Gauge {
	p.lock.Lock()
	defer p.lock.Unlock()

	if g, ok := p.gauges[key]; ok {
		return g
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: p.namespace,
		Name:      key,
	})
	if err := p.registerer.Register(g); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(prometheus.Gauge); ok {
				g = existing
			}
		}
	}
	p.gauges[key] = g
	return g
}

func (p *promMetrics) SetCount(key string, value int64) {
	p.gauge(key).Set(float64(value))
}

func (p *promMetrics) SetGauge(key string, value float64) {
	p.gauge(key).Set(value)
}
