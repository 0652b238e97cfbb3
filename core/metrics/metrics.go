package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects import metrics. A nil *Recorder records nothing.
type Recorder struct {
	imports  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	entities *prometheus.CounterVec
}

// NewRecorder registers the import collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_imports_total",
			Help: "Total number of snapshot imports by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classroom_import_duration_seconds",
			Help:    "Duration of snapshot imports.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_import_entities_total",
			Help: "Entities touched by imports, by entity and effect.",
		}, []string{"entity", "effect"}),
	}
	reg.MustRegister(r.imports, r.duration, r.entities)
	return r
}

// ObserveImport records one finished import.
func (r *Recorder) ObserveImport(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.imports.WithLabelValues(outcome).Inc()
	r.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// AddEntities adds n to the entity/effect counter. Zero is ignored.
func (r *Recorder) AddEntities(entity, effect string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.entities.WithLabelValues(entity, effect).Add(float64(n))
}

// Handler exposes the Prometheus scrape endpoint via Fiber.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
