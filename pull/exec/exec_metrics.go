package exec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/squareup/tilestore/metrics"
)

// logicalSourceLabel labels scans that filter a child executor rather than a table.
const logicalSourceLabel = "logical"

var (
	tuplesExaminedVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilestore_seq_scan_tuples_examined_total",
		Help: "counter of tuples a sequential scan evaluated its predicate against, segmented by source",
	}, []string{"source"})
	tuplesRetainedVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilestore_seq_scan_tuples_retained_total",
		Help: "counter of tuples a sequential scan kept after filtering, segmented by source",
	}, []string{"source"})
	tilesProducedVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilestore_executor_tiles_produced_total",
		Help: "counter of logical tiles produced, segmented by executor",
	}, []string{"executor"})
)

type scanCounters struct {
	examined metrics.Counter
	retained metrics.Counter
	tiles    metrics.Counter
}

func newScanCounters(source string) scanCounters {
	return scanCounters{
		examined: tuplesExaminedVec.WithLabelValues(source),
		retained: tuplesRetainedVec.WithLabelValues(source),
		tiles:    tilesProducedVec.WithLabelValues("seq_scan"),
	}
}
