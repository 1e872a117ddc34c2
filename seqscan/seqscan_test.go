package seqscan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/operation"
	"github.com/messif/metrickernel/seqscan"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.msf")
	content := "v 2 0 0\nv 2 1 0\nv 2 0 1\nv 2 5 5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestScanSingleKNN(t *testing.T) {
	path := writeFixture(t)
	src := seqscan.NewFileSource(path, object.L1)
	alg := seqscan.New("seq", 4, src)

	q := object.NewVectorObject([]float32{0, 0}, object.L1)
	op := operation.NewRankKNNOperation(q, 2, operation.FullData)

	if err := alg.Execute(context.Background(), op); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !op.WasSuccessful() {
		t.Fatalf("expected success, got %v", op.ErrorCode())
	}
	items := op.Answer.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 results, got %d", len(items))
	}
	if items[0].Distance != 0 || items[1].Distance != 1 {
		t.Fatalf("expected [0,1], got [%v,%v]", items[0].Distance, items[1].Distance)
	}
}

func TestScanBatchAllSubOpsComplete(t *testing.T) {
	path := writeFixture(t)
	src := seqscan.NewFileSource(path, object.L1)
	alg := seqscan.New("seq-batch", 4, src)

	var subs []operation.Evaluator
	for i := 0; i < 5; i++ {
		q := object.NewVectorObject([]float32{float32(i), 0}, object.L1)
		subs = append(subs, operation.NewRankKNNOperation(q, 1, operation.FullData))
	}
	batch := operation.NewBatchOperation(subs)

	if err := alg.Execute(context.Background(), batch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !batch.AllTerminated() {
		t.Fatalf("expected every sub-operation to have terminated")
	}
	for i, sub := range subs {
		if !sub.WasSuccessful() {
			t.Fatalf("sub-op %d did not succeed: %v", i, sub.ErrorCode())
		}
	}
}

func TestScanSingleRewindsBetweenExecutions(t *testing.T) {
	path := writeFixture(t)
	src := seqscan.NewFileSource(path, object.L1)
	alg := seqscan.New("seq-rewind", 4, src)

	for i := 0; i < 2; i++ {
		q := object.NewVectorObject([]float32{0, 0}, object.L1)
		op := operation.NewRankKNNOperation(q, 1, operation.FullData)
		if err := alg.Execute(context.Background(), op); err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if op.Answer.Len() != 1 {
			t.Fatalf("iteration %d: expected 1 result, got %d", i, op.Answer.Len())
		}
	}
}
