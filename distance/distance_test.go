package distance_test

import (
	"testing"

	"github.com/messif/metrickernel/distance"
	"github.com/messif/metrickernel/mstats"
	"github.com/messif/metrickernel/object"
)

func TestDistanceSelfZero(t *testing.T) {
	x := object.NewVectorObject([]float32{1, 2, 3}, object.L1)
	scope := &mstats.Counters{}
	if d := distance.Evaluate(scope, x, x, distance.Max); d != 0 {
		t.Fatalf("d(x,x) = %v, want 0", d)
	}
}

func TestThresholdCorrectness(t *testing.T) {
	a := object.NewVectorObject([]float32{0, 0}, object.L1)
	b := object.NewVectorObject([]float32{3, 4}, object.L1)
	scope := &mstats.Counters{}
	trueD := a.RawDistance(b) // 7 under L1

	if v := distance.Evaluate(scope, a, b, trueD+1); v != trueD {
		t.Fatalf("threshold above true distance must return exact value, got %v want %v", v, trueD)
	}
	if v := distance.Evaluate(scope, a, b, trueD-1); !(v > trueD-1) {
		t.Fatalf("threshold below true distance must return a value > threshold, got %v", v)
	}
}

func TestNormalizeRequiresFiniteMax(t *testing.T) {
	a := object.NewVectorObject([]float32{0, 0}, object.L1)
	b := object.NewVectorObject([]float32{1, 1}, object.L1)
	scope := &mstats.Counters{}
	if _, err := distance.Normalize(scope, a, b, 0.5); err == nil {
		t.Fatalf("expected error: VectorObject advertises no finite max")
	}
}
