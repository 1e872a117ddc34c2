// Package mstats wires the distance-contract and dispatch-layer counters
// named in spec §4.3/§4.6 to prometheus/client_golang, and folds in a
// disk-iostat snapshot for background-execution scopes (spec §4.7).
package mstats

import (
	"github.com/lufia/iostat"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names for the four distance-contract tallies, which are never
// incremented by user-supplied LocalObject implementations (spec §4.3).
// The vector registered below does not use these names: Flush publishes
// all four tallies as messif_distance_evaluations_total, one "kind" label
// value each.
const (
	DistanceComputations = "distance_computations_total"
	LowerBoundEvals       = "distance_lower_bound_total"
	UpperBoundEvals       = "distance_upper_bound_total"
	Savings               = "distance_savings_total"
)

var (
	distCounters = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "messif",
		Subsystem: "distance",
		Name:      "evaluations_total",
		Help:      "Distance-contract evaluations, partitioned by kind.",
	}, []string{"kind"})

	answerCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "messif",
		Subsystem: "operation",
		Name:      "answer_count",
		Help:      "Number of objects currently held in a ranking answer.",
	}, []string{"op_id"})

	answerDistance = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "messif",
		Subsystem: "operation",
		Name:      "answer_kth_distance",
		Help:      "Current k-th (worst) distance held in a ranking answer.",
	}, []string{"op_id"})
)

func init() {
	prometheus.MustRegister(distCounters, answerCount, answerDistance)
}

// Registry is the package-level Prometheus registerer; cmd/messifd exposes
// it over /metrics via promhttp.
var Registry = prometheus.DefaultRegisterer

// Counters is an operation-local accumulation scope. Flush publishes it to
// the process-wide vectors when an execution finishes; Merge folds one
// scope into another, which WaitBackground uses to add a background
// operation's tallies to the caller's scope at the join point.
type Counters struct {
	DistanceComputations int64
	LowerBound            int64
	UpperBound            int64
	Savings                int64
}

func (c *Counters) AccessedObjects() int64 { return c.DistanceComputations + c.Savings }

func (c *Counters) Merge(other *Counters) {
	c.DistanceComputations += other.DistanceComputations
	c.LowerBound += other.LowerBound
	c.UpperBound += other.UpperBound
	c.Savings += other.Savings
}

// Flush publishes the scope's tallies to the process-wide Prometheus
// vectors and resets it, ready for reuse by another operation.
func (c *Counters) Flush() {
	distCounters.WithLabelValues("computation").Add(float64(c.DistanceComputations))
	distCounters.WithLabelValues("lower_bound").Add(float64(c.LowerBound))
	distCounters.WithLabelValues("upper_bound").Add(float64(c.UpperBound))
	distCounters.WithLabelValues("savings").Add(float64(c.Savings))
	*c = Counters{}
}

// SetAnswer publishes a ranking operation's live answer size/k-th distance.
func SetAnswer(opID string, count int, kth float64) {
	answerCount.WithLabelValues(opID).Set(float64(count))
	answerDistance.WithLabelValues(opID).Set(kth)
}

// DropAnswer removes a finished operation's gauges so the label set does
// not grow without bound.
func DropAnswer(opID string) {
	answerCount.DeleteLabelValues(opID)
	answerDistance.DeleteLabelValues(opID)
}

// DiskSnapshot folds iostat.DiskStats into a small struct the navigation
// pool attaches to its post-run record; io failures degrade to a zero
// snapshot rather than failing the caller.
type DiskSnapshot struct {
	Device       string
	ReadsPerSec  float64
	WritesPerSec float64
}

func TakeDiskSnapshot() []DiskSnapshot {
	stats, err := iostat.ReadDiskStats()
	if err != nil {
		return nil
	}
	out := make([]DiskSnapshot, 0, len(stats))
	for _, s := range stats {
		out = append(out, DiskSnapshot{Device: s.Device, ReadsPerSec: float64(s.ReadsCompleted), WritesPerSec: float64(s.WritesCompleted)})
	}
	return out
}
