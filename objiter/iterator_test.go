package objiter_test

import (
	"testing"

	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/objiter"
)

func vecs(vals ...float32) []object.LocalObject {
	out := make([]object.LocalObject, len(vals))
	for i, v := range vals {
		out[i] = object.NewVectorObject([]float32{v}, object.L1)
	}
	return out
}

func TestByDataFindsMatch(t *testing.T) {
	items := vecs(1, 2, 3)
	it := objiter.NewSliceIterator(items)
	target := object.NewVectorObject([]float32{2}, object.L1)
	found, ok, err := objiter.ByData(it, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || !found.DataEquals(target) {
		t.Fatalf("expected to find matching object")
	}
}

func TestProvidersIteratorChainsSources(t *testing.T) {
	a := objiter.NewSliceIterator(vecs(1, 2))
	b := objiter.NewSliceIterator(vecs(3, 4))
	p := objiter.NewProvidersIterator(a, b)

	var got []object.LocalObject
	for p.HasNext() {
		obj, err := p.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, obj)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 objects across both sources, got %d", len(got))
	}
}

func TestMatchingObjectListFiltersByPartition(t *testing.T) {
	items := vecs(1, 2, 3, 4, 5, 6)
	src := objiter.NewSliceIterator(items)
	matcher := func(o object.LocalObject) int {
		v := o.(*object.VectorObject)
		return int(v.Values[0]) % 2
	}
	m := objiter.NewMatchingObjectList(src, matcher, 0)

	var count int
	for m.HasNext() {
		obj, err := m.Next()
		if err != nil {
			break
		}
		v := obj.(*object.VectorObject)
		if int(v.Values[0])%2 != 0 {
			t.Fatalf("expected only even-valued vectors, got %v", v.Values[0])
		}
		count++
	}
	if count != 3 {
		t.Fatalf("expected 3 even-valued vectors, got %d", count)
	}
}
