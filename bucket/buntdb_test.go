package bucket_test

import (
	"context"
	"testing"

	"github.com/messif/metrickernel/bucket"
	"github.com/messif/metrickernel/mcmn/tassert"
)

func TestBuntStoreRoundTrip(t *testing.T) {
	store, err := bucket.OpenBunt(":memory:")
	tassert.CheckFatal(t, err)
	defer store.Close()

	ctx := context.Background()
	tassert.CheckFatal(t, store.Put(ctx, "obj/1", []byte("hello")))

	got, err := store.Get(ctx, "obj/1")
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, string(got) == "hello", "expected %q, got %q", "hello", got)

	keys, err := store.List(ctx, "obj/")
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, len(keys) == 1 && keys[0] == "obj/1", "unexpected list result: %v", keys)

	tassert.CheckFatal(t, store.Delete(ctx, "obj/1"))
	_, err = store.Get(ctx, "obj/1")
	tassert.Fatalf(t, err != nil, "expected error after delete")
}

func TestOpenDispatchesOnScheme(t *testing.T) {
	s, err := bucket.Open(context.Background(), "buntdb://:memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*bucket.BuntStore); !ok {
		t.Fatalf("expected a *bucket.BuntStore for the buntdb scheme")
	}
}
