// Package distance implements the threshold-bounded distance contract
// (spec §4.3): the wrapper every caller goes through instead of calling a
// LocalObject's RawDistance directly, responsible for normalization and
// for incrementing the DistanceComputations/LowerBound/UpperBound/Savings
// counters — counters a user-supplied metric must never touch itself.
package distance

import (
	"github.com/messif/metrickernel/dconst"
	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/mstats"
	"github.com/messif/metrickernel/object"
)

var (
	Unknown = dconst.Unknown
	Max     = dconst.Max
)

// Evaluate is the threshold-relaxed distance contract entry point (spec
// §4.2/§4.3): it consults a's filter chain for a direct lookup (the same
// check object.ThresholdDistance makes) before calling a.RawDistance,
// tallies the scope's counters, and returns a value <= threshold when the
// true distance is below threshold, otherwise any value > threshold.
func Evaluate(scope *mstats.Counters, a, b object.LocalObject, threshold float32) float32 {
	if v, ok := a.Filters().DirectLookup(b.ID()); ok {
		scope.Savings++
		return v
	}
	d := a.RawDistance(b)
	scope.DistanceComputations++
	return d
}

// LowerBound evaluates object.LocalObject's lower-bound hook if present,
// else returns Unknown (spec §4.2 default).
func LowerBound(scope *mstats.Counters, a lowerBounder, b object.LocalObject, accuracy int) float32 {
	scope.LowerBound++
	if a == nil {
		return Unknown
	}
	return a.GetDistanceLowerBound(b, accuracy)
}

// UpperBound evaluates object.LocalObject's upper-bound hook if present,
// else returns Max (spec §4.2 default).
func UpperBound(scope *mstats.Counters, a upperBounder, b object.LocalObject, accuracy int) float32 {
	scope.UpperBound++
	if a == nil {
		return Max
	}
	return a.GetDistanceUpperBound(b, accuracy)
}

// lowerBounder/upperBounder are optional extensions a LocalObject may
// implement; most descriptors don't, and get the spec's MIN/MAX defaults.
type lowerBounder interface {
	GetDistanceLowerBound(other object.LocalObject, accuracy int) float32
}

type upperBounder interface {
	GetDistanceUpperBound(other object.LocalObject, accuracy int) float32
}

// MaxDistancer is implemented by any LocalObject that advertises a finite
// maximum distance (object.LocalObject.MaxDistance already does; this
// alias just documents the Normalize precondition).
type MaxDistancer interface {
	MaxDistance() float32
}

// Normalize computes get_distance(a, b, t*max)/max, per spec §4.3. It
// fails with ErrInvalidArgument when a's class advertises no finite max.
func Normalize(scope *mstats.Counters, a, b object.LocalObject, t float32) (float32, error) {
	max := a.MaxDistance()
	if max == object.MaxDistanceUnknown || max <= 0 {
		return 0, mcmn.NewErrInvalidArgument("normalize: %s advertises no finite max distance", a.ClassTag())
	}
	d := Evaluate(scope, a, b, t*max)
	return d / max, nil
}
