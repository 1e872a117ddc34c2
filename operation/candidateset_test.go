package operation_test

import (
	"context"
	"testing"
	"time"

	"github.com/messif/metrickernel/operation"
)

func TestCandidateSetProducerConsumer(t *testing.T) {
	op := operation.NewCandidateSetOperation(4, 1024)
	ctx := context.Background()

	if err := op.Put(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	// "a" is a duplicate and must be dropped, leaving only "c" fresh.
	if err := op.Put(ctx, []string{"a", "c"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	op.Close()

	var got []string
	for {
		batch, ok, err := op.Take(ctx)
		if err != nil {
			t.Fatalf("take: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, batch...)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 distinct locators, got %v", got)
	}
}

func TestCandidateSetTakeHonorsCancellation(t *testing.T) {
	op := operation.NewCandidateSetOperation(1, 16)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok, err := op.Take(ctx)
	if ok || err == nil {
		t.Fatalf("expected cancellation error on an empty, never-closed operation")
	}
}
