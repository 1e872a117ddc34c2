package algorithm_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/messif/metrickernel/algorithm"
	"github.com/messif/metrickernel/mstats"
	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/operation"
)

func newKNN() *operation.RankKNNOperation {
	q := object.NewVectorObject([]float32{0, 0}, object.L1)
	return operation.NewRankKNNOperation(q, 1, operation.FullData)
}

func TestExecuteDispatchesRegisteredMethod(t *testing.T) {
	a := algorithm.New("seqscan-test", 4)
	called := false
	a.Register(reflect.TypeOf((*operation.RankKNNOperation)(nil)), func(ctx context.Context, scope *mstats.Counters, op operation.Operation) error {
		called = true
		op.EndOperation(operation.ResponseReturned)
		return nil
	})

	op := newKNN()
	if err := a.Execute(context.Background(), op); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("registered method was not invoked")
	}
	if !op.WasSuccessful() {
		t.Fatalf("expected successful terminal code, got %v", op.ErrorCode())
	}
}

func TestExecuteUnregisteredReturnsNotSupported(t *testing.T) {
	a := algorithm.New("empty", 4)
	op := newKNN()
	err := a.Execute(context.Background(), op)
	if err == nil {
		t.Fatalf("expected error for unregistered operation type")
	}
	if op.ErrorCode() != operation.NotSupported {
		t.Fatalf("expected NotSupported, got %v", op.ErrorCode())
	}
}

func TestBackgroundExecuteAndWaitMergesStats(t *testing.T) {
	a := algorithm.New("bg-test", 4)
	a.Register(reflect.TypeOf((*operation.RankKNNOperation)(nil)), func(ctx context.Context, scope *mstats.Counters, op operation.Operation) error {
		scope.DistanceComputations += 7
		scope.Savings += 3
		op.EndOperation(operation.ResponseReturned)
		return nil
	})

	op := newKNN()
	h := a.BackgroundExecute(context.Background(), op)

	caller := &mstats.Counters{}
	_, err := a.WaitBackground(h, caller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caller.DistanceComputations != 7 || caller.Savings != 3 {
		t.Fatalf("expected merged stats 7/3, got %d/%d", caller.DistanceComputations, caller.Savings)
	}

	// A second StatsFor for the same operation id must come back empty:
	// WaitBackground already drained it.
	if _, ok := a.StatsFor(op.ID()); ok {
		t.Fatalf("expected stats to be consumed after WaitBackground")
	}
}

func TestTerminateOperationCancelsRunCtx(t *testing.T) {
	a := algorithm.New("cancel-test", 4)
	started := make(chan struct{})
	sawCancel := make(chan struct{})
	a.Register(reflect.TypeOf((*operation.RankKNNOperation)(nil)), func(ctx context.Context, scope *mstats.Counters, op operation.Operation) error {
		close(started)
		<-ctx.Done()
		close(sawCancel)
		op.EndOperation(operation.Interrupted)
		return ctx.Err()
	})

	op := newKNN()
	h := a.BackgroundExecute(context.Background(), op)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatalf("method never started")
	}

	if !a.TerminateOperation(op.ID()) {
		t.Fatalf("expected TerminateOperation to find the running op")
	}

	select {
	case <-sawCancel:
	case <-time.After(time.Second):
		t.Fatalf("method never observed cancellation")
	}

	a.WaitBackground(h, nil)

	if a.TerminateOperation(op.ID()) {
		t.Fatalf("terminating an already-finished operation must report false")
	}
}

func TestSemaphoreBoundsConcurrentExecutions(t *testing.T) {
	a := algorithm.New("bounded", 1)
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	a.Register(reflect.TypeOf((*operation.RankKNNOperation)(nil)), func(ctx context.Context, scope *mstats.Counters, op operation.Operation) error {
		entered <- struct{}{}
		<-release
		op.EndOperation(operation.ResponseReturned)
		return nil
	})

	h1 := a.BackgroundExecute(context.Background(), newKNN())
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	blockedOp := newKNN()
	err := a.Execute(ctx, blockedOp)
	if err == nil {
		t.Fatalf("expected the second execution to block on the single-permit semaphore")
	}

	close(release)
	a.WaitBackground(h1, nil)
}
