package objid_test

import (
	"testing"

	"github.com/messif/metrickernel/objid"
)

func TestCompareTotalOrder(t *testing.T) {
	a := objid.NewID()
	b := objid.NewID()
	if objid.Compare(a, a) != 0 {
		t.Fatalf("equal ids must compare equal")
	}
	if a != b {
		cab := objid.Compare(a, b)
		cba := objid.Compare(b, a)
		if cab == 0 {
			t.Fatalf("distinct ids compared equal")
		}
		if (cab < 0) == (cba < 0) {
			t.Fatalf("compare not antisymmetric: %d vs %d", cab, cba)
		}
	}
}

func TestKeyCrossTypeIncomparable(t *testing.T) {
	b := objid.NewBasicKey("u/1")
	i := objid.NewIntKey("u/1", 5)
	if got := b.CompareKey(i); got != objid.Incomparable {
		t.Fatalf("expected Incomparable, got %v", got)
	}
	if got := i.CompareKey(b); got != objid.Incomparable {
		t.Fatalf("expected Incomparable, got %v", got)
	}
}

func TestKeyOrdering(t *testing.T) {
	lo := objid.NewLongKey("x", 1)
	hi := objid.NewLongKey("x", 2)
	if lo.CompareKey(hi) != objid.Less {
		t.Fatalf("expected Less")
	}
	if hi.CompareKey(lo) != objid.Greater {
		t.Fatalf("expected Greater")
	}
	if lo.CompareKey(lo) != objid.Equal {
		t.Fatalf("expected Equal")
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	k := objid.NewIntKey("u/7", 42)
	text := k.WriteText()
	parsed, err := objid.ParseKey(objid.TypeTag(k), text)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if parsed.CompareKey(k) != objid.Equal {
		t.Fatalf("round-tripped key not equal to original")
	}
}

func TestNullBasicKeyIncomparable(t *testing.T) {
	n := objid.NullBasicKey()
	o := objid.NewBasicKey("u/1")
	if n.CompareKey(o) != objid.Incomparable {
		t.Fatalf("null key must be incomparable, not ordered")
	}
}
