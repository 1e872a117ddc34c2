package navproc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/messif/metrickernel/navproc"
	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/operation"
)

type fakeStep struct {
	op  operation.Operation
	err error
}

func (f *fakeStep) ProcessStep(ctx context.Context) (operation.Operation, error) {
	return f.op, f.err
}

func newOp() operation.Operation {
	return operation.NewRankKNNOperation(object.NewVectorObject([]float32{0}, object.L1), 1, operation.FullData)
}

func TestSequentialRunStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	steps := []navproc.Processor{
		&fakeStep{op: newOp()},
		&fakeStep{err: boom},
		&fakeStep{op: newOp()},
	}
	p := navproc.NewPool(1)
	report, err := p.Run(context.Background(), steps)
	if !errors.Is(err, boom) && err == nil {
		t.Fatalf("expected an error from the second step")
	}
	if len(report.Results) != 1 {
		t.Fatalf("expected exactly 1 recorded result before failure, got %d", len(report.Results))
	}
}

func TestSequentialRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	steps := []navproc.Processor{&fakeStep{op: newOp()}}
	p := navproc.NewPool(1)
	_, err := p.Run(ctx, steps)
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}

type fakeAsyncStep struct {
	op  operation.Operation
	err error
}

func (f *fakeAsyncStep) ProcessStep(ctx context.Context) (operation.Operation, error) {
	return f.op, f.err
}

func (f *fakeAsyncStep) ProcessStepAsync(ctx context.Context) func() (operation.Operation, error) {
	return func() (operation.Operation, error) { return f.op, f.err }
}

func TestAsyncBatchRunsAllSteps(t *testing.T) {
	steps := []navproc.Processor{
		&fakeAsyncStep{op: newOp()},
		&fakeAsyncStep{op: newOp()},
		&fakeAsyncStep{op: newOp()},
	}
	p := navproc.NewPool(4)
	report, err := p.Run(context.Background(), steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}
}
