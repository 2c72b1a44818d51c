package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paintersrp/chatseek/internal/search"
)

const namespace = "chatseek"

// Recorder turns search reports into Prometheus series on its own registry.
type Recorder struct {
	registry       *prometheus.Registry
	searches       *prometheus.CounterVec
	filesScanned   prometheus.Counter
	filesSkipped   prometheus.Counter
	metadataErrors prometheus.Counter
	results        prometheus.Histogram
	duration       prometheus.Histogram
}

// New builds a recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Completed searches, labelled by whether the deadline cut them short.",
		}, []string{"partial"}),
		filesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_scanned_total",
			Help:      "Files evaluated across all searches.",
		}),
		filesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Files skipped because they could not be read.",
		}),
		metadataErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "front_matter_errors_total",
			Help:      "Files whose front matter failed to parse.",
		}),
		results: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of matched documents per search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall time of a search.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.searches,
		r.filesScanned,
		r.filesSkipped,
		r.metadataErrors,
		r.results,
		r.duration,
	)
	return r
}

// Observe records one report. It matches archive.Observer.
func (r *Recorder) Observe(report search.Report) {
	if r == nil {
		return
	}
	r.searches.WithLabelValues(strconv.FormatBool(report.Partial)).Inc()
	r.filesScanned.Add(float64(report.Stats.Scanned))
	r.filesSkipped.Add(float64(report.Stats.Skipped))
	r.metadataErrors.Add(float64(report.Stats.MetadataErrors))
	r.results.Observe(float64(len(report.Results)))
	r.duration.Observe(report.Elapsed.Seconds())
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
