package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes.
const (
	outcomeFound = "found"
	outcomeEmpty = "empty"
	outcomeError = "error"
)

var (
	// runsTotal counts pipeline runs by outcome
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adleman_runs_total",
		Help: "Total pipeline runs by outcome",
	}, []string{"outcome"})

	// assemblyProducts tracks the number of maximal assembly products per run
	assemblyProducts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adleman_assembly_products",
		Help:    "Number of assembly products per run",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 to 2048
	})

	// candidateCount tracks length-matching amplicons per run
	candidateCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adleman_candidates",
		Help:    "Number of amplified candidates per run",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	// pathCount tracks filtered path results per run
	pathCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adleman_paths",
		Help:    "Number of Hamiltonian path results per run",
		Buckets: []float64{0, 1, 2, 5, 10, 20},
	})

	// runDuration tracks end-to-end run latency
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adleman_run_duration_seconds",
		Help:    "Pipeline run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	})
)

func observe(r *Result) {
	outcome := outcomeEmpty
	if r.Found() {
		outcome = outcomeFound
	}
	runsTotal.WithLabelValues(outcome).Inc()
	assemblyProducts.Observe(float64(r.Products))
	candidateCount.Observe(float64(len(r.Candidates)))
	pathCount.Observe(float64(len(r.Paths)))
	runDuration.Observe(r.Duration.Seconds())
}
