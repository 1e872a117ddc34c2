package operation_test

import (
	"testing"

	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/operation"
)

func vec(vals ...float32) *object.VectorObject { return object.NewVectorObject(vals, object.L1) }

func TestRankingAnswerCapacityRejectsWorse(t *testing.T) {
	a := operation.NewRankingAnswer(2)
	x := vec(0, 0)
	y := vec(1, 0)
	z := vec(5, 5)

	if !a.Offer(0, x) {
		t.Fatalf("first insert must succeed")
	}
	if !a.Offer(1, y) {
		t.Fatalf("second insert must succeed (size<k)")
	}
	if a.Len() != 2 {
		t.Fatalf("expected len 2, got %d", a.Len())
	}
	if a.KthDistance() != 1 {
		t.Fatalf("expected k-th distance 1, got %v", a.KthDistance())
	}
	// worse than k-th: must be rejected
	if a.Offer(10, z) {
		t.Fatalf("worse-than-kth candidate must be rejected")
	}
	if a.Len() != 2 {
		t.Fatalf("answer must still have capacity-2 size, got %d", a.Len())
	}
}

func TestRankingAnswerMonotonicKth(t *testing.T) {
	a := operation.NewRankingAnswer(1)
	a.Offer(5, vec(5))
	if a.KthDistance() != 5 {
		t.Fatalf("expected kth=5")
	}
	a.Offer(2, vec(2))
	if a.KthDistance() != 2 {
		t.Fatalf("expected kth to drop to 2, got %v", a.KthDistance())
	}
	// worse candidate must not move kth back up
	a.Offer(9, vec(9))
	if a.KthDistance() != 2 {
		t.Fatalf("kth distance must never increase, got %v", a.KthDistance())
	}
}

func TestS1KNNScenario(t *testing.T) {
	// spec.md S1: dataset a=[0,0] b=[1,0] c=[0,1] d=[5,5]; query q=[0,0], k=2.
	q := vec(0, 0)
	dataset := map[string]*object.VectorObject{
		"a": vec(0, 0),
		"b": vec(1, 0),
		"c": vec(0, 1),
		"d": vec(5, 5),
	}
	a := operation.NewRankingAnswer(2)
	for _, o := range dataset {
		a.Offer(q.RawDistance(o), o)
	}
	items := a.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 results, got %d", len(items))
	}
	if items[0].Distance != 0 || items[1].Distance != 1 {
		t.Fatalf("expected [0.0, 1.0], got [%v, %v]", items[0].Distance, items[1].Distance)
	}
}
