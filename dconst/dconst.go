// Package dconst holds the two distance-value sentinels shared by the
// object, filter, and distance-contract packages (spec §3 Invariant 1), in
// one place so neither package needs to import the other just to agree on
// their numeric value.
package dconst

import "math"

// Unknown marks "distance not known" (e.g. an unset answer slot). It is a
// variable because float32(math.Inf(-1)) is not a Go constant expression.
var Unknown = float32(math.Inf(-1))

// Max means "no threshold" — a get_distance call made with this threshold
// must return the true, unbounded distance.
const Max = float32(math.MaxFloat32)
