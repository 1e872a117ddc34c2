package filter_test

import (
	"strings"
	"testing"

	"github.com/messif/metrickernel/filter"
	"github.com/messif/metrickernel/objid"
)

func TestFixedArrayExcludeInclude(t *testing.T) {
	// S2 from spec.md: pivots p1, p2; x and q both precompute [10, 10].
	x := filter.NewFixedArrayFilter()
	x.AppendAll([]float32{10, 10})
	q := filter.NewFixedArrayFilter()
	q.AppendAll([]float32{10, 10})

	if filter.Exclude(chainOf(q), chainOf(x), 0) {
		t.Fatalf("r=0 should not exclude (true distance is 0)")
	}
	if filter.Include(chainOf(q), chainOf(x), 9.5) {
		t.Fatalf("r=9.5 should not include per S2")
	}
}

func TestFixedArrayRoundTrip(t *testing.T) {
	f := filter.NewFixedArrayFilter()
	f.AppendAll([]float32{0.5, 1.25, 3.0})
	var buf strings.Builder
	if err := f.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	back, err := filter.ReadFixedArrayFilter(buf.String(), false)
	if err != nil {
		t.Fatalf("ReadFixedArrayFilter: %v", err)
	}
	if back.Len() != 3 || back.At(0) != 0.5 || back.At(1) != 1.25 || back.At(2) != 3.0 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestChainAttachReplace(t *testing.T) {
	c := &filter.Chain{}
	f1 := filter.NewFixedArrayFilter()
	f1.Append(1)
	old, err := c.Attach(f1, false)
	if err != nil || old != nil {
		t.Fatalf("first attach should have no old node: %v %v", old, err)
	}
	f2 := filter.NewFixedArrayFilter()
	f2.Append(2)
	old, err = c.Attach(f2, false)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if old != f1 {
		t.Fatalf("attach without replace should return existing node")
	}
	if got, _ := c.Get(filter.KindFixedArray); got != f1 {
		t.Fatalf("chain should still hold f1")
	}

	old, err = c.Attach(f2, true)
	if err != nil {
		t.Fatalf("attach replace: %v", err)
	}
	if old != f1 {
		t.Fatalf("replace should return the old node")
	}
	if got, _ := c.Get(filter.KindFixedArray); got != f2 {
		t.Fatalf("chain should now hold f2")
	}
}

func TestPivotMapNoCloneNoText(t *testing.T) {
	p := filter.NewPivotMapFilter()
	if _, err := p.Clone(); err == nil {
		t.Fatalf("expected clone to be rejected")
	}
	if err := p.WriteText(&strings.Builder{}); err == nil {
		t.Fatalf("expected text serialization to be rejected")
	}
}

func TestPivotMapCommonPivotsOnly(t *testing.T) {
	a := filter.NewPivotMapFilter()
	b := filter.NewPivotMapFilter()
	// a has an entry b lacks: must not be used to decide exclude/include.
	a.Put(objid.NewID(), 100)
	if filter.Exclude(chainOf(a), chainOf(b), 0) {
		t.Fatalf("non-common pivot must not drive exclude")
	}
}

func chainOf(f filter.Filter) *filter.Chain {
	c := &filter.Chain{}
	_, _ = c.Attach(f, false)
	return c
}
