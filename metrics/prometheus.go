// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vechain/statecache/log"
)

const namespace = "statecache"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the registry to prometheus. Meters
// created before the switch stay no-ops. Calling it twice is harmless.
func InitializePrometheusMetrics() {
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = newPrometheusMetrics()
	}
}

type prometheusMetrics struct {
	lock   sync.Mutex
	meters map[string]any
}

func newPrometheusMetrics() Metrics {
	return &prometheusMetrics{meters: make(map[string]any)}
}

// loadOrCreate returns the meter registered under name, building and
// registering it on first use. A collector left registered by an earlier
// registry is adopted. A name reused for a different kind of meter is
// reported and served by a no-op.
func loadOrCreate[T any](
	o *prometheusMetrics,
	name string,
	build func() prometheus.Collector,
	wrap func(prometheus.Collector) T,
) T {
	o.lock.Lock()
	defer o.lock.Unlock()

	if m, ok := o.meters[name]; ok {
		if meter, ok := m.(T); ok {
			return meter
		}
		logger.Warn("metric kind mismatch", "name", name)
		return any(&noopMetric).(T)
	}

	collector := build()
	if err := prometheus.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			logger.Warn("unable to register metric", "name", name, "err", err)
		} else {
			collector = are.ExistingCollector
		}
	}
	meter := wrap(collector)
	o.meters[name] = meter
	return meter
}

func (o *prometheusMetrics) GetOrCreateCountMeter(name string) CountMeter {
	return loadOrCreate(o, name,
		func() prometheus.Collector {
			return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		},
		func(c prometheus.Collector) CountMeter { return &promCountMeter{c.(prometheus.Counter)} },
	)
}

func (o *prometheusMetrics) GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter {
	return loadOrCreate(o, name,
		func() prometheus.Collector {
			return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		},
		func(c prometheus.Collector) CountVecMeter { return &promCountVecMeter{c.(*prometheus.CounterVec)} },
	)
}

func (o *prometheusMetrics) GetOrCreateGaugeMeter(name string) GaugeMeter {
	return loadOrCreate(o, name,
		func() prometheus.Collector {
			return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		},
		func(c prometheus.Collector) GaugeMeter { return &promGaugeMeter{c.(prometheus.Gauge)} },
	)
}

func (o *prometheusMetrics) GetOrCreateHistogramMeter(name string, buckets []int64) HistogramMeter {
	return loadOrCreate(o, name,
		func() prometheus.Collector {
			var floats []float64
			for _, b := range buckets {
				floats = append(floats, float64(b))
			}
			return prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: name, Buckets: floats})
		},
		func(c prometheus.Collector) HistogramMeter { return &promHistogramMeter{c.(prometheus.Histogram)} },
	)
}

func (o *prometheusMetrics) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

type promCountMeter struct{ counter prometheus.Counter }

func (c *promCountMeter) Add(i int64) { c.counter.Add(float64(i)) }

type promCountVecMeter struct{ counter *prometheus.CounterVec }

func (c *promCountVecMeter) AddWithLabel(i int64, labels map[string]string) {
	c.counter.With(labels).Add(float64(i))
}

type promGaugeMeter struct{ gauge prometheus.Gauge }

func (g *promGaugeMeter) Add(i int64) { g.gauge.Add(float64(i)) }
func (g *promGaugeMeter) Set(i int64) { g.gauge.Set(float64(i)) }

type promHistogramMeter struct{ histogram prometheus.Histogram }

func (h *promHistogramMeter) Observe(i int64) { h.histogram.Observe(float64(i)) }
