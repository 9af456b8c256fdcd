// Package metrics exposes the system's operational surface as Prometheus
// metrics: a singleton Collector built once via sync.Once, with
// Namespace/Subsystem/Name label conventions and a thin promhttp.Handler
// for scraping. Scoped to what a market maker actually emits — fills,
// matching latency, book depth, and kill-switch state.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lobmm/internal/feature"
	"lobmm/internal/model"
	"lobmm/internal/replay"
)

var (
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds every metric the market maker publishes.
type Collector struct {
	FillsTotal      *prometheus.CounterVec
	FillVolume      *prometheus.CounterVec
	MatchingLatency prometheus.Histogram
	BookDepth       *prometheus.GaugeVec
	BestSpreadTicks prometheus.Gauge
	Microprice      prometheus.Gauge
	Inventory       prometheus.Gauge
	KillSwitchOn    prometheus.Gauge
}

// GetCollector returns the process-wide singleton Collector, constructing
// and registering it on first use.
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

func newCollector() *Collector {
	c := &Collector{
		FillsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lobmm",
				Subsystem: "fills",
				Name:      "total",
				Help:      "Total number of fills recorded, by maker/taker origin.",
			},
			[]string{"taker_origin", "maker_origin"},
		),
		FillVolume: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lobmm",
				Subsystem: "fills",
				Name:      "volume",
				Help:      "Total filled size, by maker/taker origin.",
			},
			[]string{"taker_origin", "maker_origin"},
		),
		MatchingLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "lobmm",
				Subsystem: "matching",
				Name:      "step_latency_us",
				Help:      "Wall-clock time to process one step, in microseconds.",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
			},
		),
		BookDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "lobmm",
				Subsystem: "book",
				Name:      "depth_levels",
				Help:      "Number of distinct price levels currently resting.",
			},
			[]string{"side"},
		),
		BestSpreadTicks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lobmm",
				Subsystem: "book",
				Name:      "best_spread_ticks",
				Help:      "Best bid/ask spread, in price ticks.",
			},
		),
		Microprice: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lobmm",
				Subsystem: "features",
				Name:      "microprice",
				Help:      "Size-weighted microprice of the best bid/ask.",
			},
		),
		Inventory: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lobmm",
				Subsystem: "strategy",
				Name:      "inventory",
				Help:      "Current net inventory, in base-asset size units.",
			},
		),
		KillSwitchOn: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lobmm",
				Subsystem: "risk",
				Name:      "kill_switch_active",
				Help:      "1 if the inventory guard rail is currently suppressing a quote side, else 0.",
			},
		),
	}
	c.registerAll()
	return c
}

func (c *Collector) registerAll() {
	prometheus.MustRegister(
		c.FillsTotal,
		c.FillVolume,
		c.MatchingLatency,
		c.BookDepth,
		c.BestSpreadTicks,
		c.Microprice,
		c.Inventory,
		c.KillSwitchOn,
	)
}

// RecordFill updates fill counters from a recorded fill.
func (c *Collector) RecordFill(f model.Fill) {
	c.FillsTotal.WithLabelValues(f.TakerOrigin.String(), f.MakerOrigin.String()).Inc()
	c.FillVolume.WithLabelValues(f.TakerOrigin.String(), f.MakerOrigin.String()).Add(f.Size.Decimal().InexactFloat64())
}

// RecordFeatures updates the feature gauges from one step's sample.
func (c *Collector) RecordFeatures(f feature.Features) {
	if f.MicropriceOk {
		c.Microprice.Set(f.Microprice)
	}
}

// SetInventory publishes the strategy's current net position.
func (c *Collector) SetInventory(inventory float64) { c.Inventory.Set(inventory) }

// SetKillSwitch publishes whether the inventory guard rail is active.
func (c *Collector) SetKillSwitch(active bool) {
	if active {
		c.KillSwitchOn.Set(1)
	} else {
		c.KillSwitchOn.Set(0)
	}
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler { return promhttp.Handler() }

// ObservingCollector adapts Collector to replay.Observer, so a Simulator or
// live Loop can publish metrics without knowing Prometheus exists.
type ObservingCollector struct {
	C *Collector
}

var _ replay.Observer = ObservingCollector{}

func (o ObservingCollector) OnFill(f model.Fill) { o.C.RecordFill(f) }

func (o ObservingCollector) OnStep(_ replay.Event, f feature.Features) {
	o.C.RecordFeatures(f)
}

// Timer measures a single step's matching latency.
type Timer struct{ start time.Time }

// NewTimer starts a latency measurement.
func NewTimer() Timer { return Timer{start: time.Now()} }

// ObserveTo records the elapsed time since NewTimer into c's histogram.
func (t Timer) ObserveTo(c *Collector) {
	c.MatchingLatency.Observe(float64(time.Since(t.start).Microseconds()))
}
