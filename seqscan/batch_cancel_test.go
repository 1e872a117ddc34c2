package seqscan_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/messif/metrickernel/mstats"
	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/operation"
	"github.com/messif/metrickernel/seqscan"
)

// writeManyFixture writes n distinct 2D vectors, one per line; a batch
// scan sees multiple chunks only when n exceeds its chunkSize.
func writeManyFixture(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.msf")
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "v 2 %d %d\n", i, n-i)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// signalEvaluator wraps a RankKNNOperation's Evaluate to signal once on
// its first invocation and then block until the test lets it proceed, so
// a test can deterministically terminate the sub-operation mid-scan —
// after the worker has observed it but before it finishes its chunk —
// instead of racing on a sleep.
type signalEvaluator struct {
	*operation.RankKNNOperation
	once    sync.Once
	signal  chan struct{}
	proceed chan struct{}
}

func newSignalEvaluator(q object.LocalObject, k int) *signalEvaluator {
	return &signalEvaluator{
		RankKNNOperation: operation.NewRankKNNOperation(q, k, operation.FullData),
		signal:           make(chan struct{}),
		proceed:          make(chan struct{}),
	}
}

func (s *signalEvaluator) Evaluate(scope *mstats.Counters, candidate object.LocalObject) {
	s.RankKNNOperation.Evaluate(scope, candidate)
	s.once.Do(func() {
		close(s.signal)
		<-s.proceed
	})
}

var _ operation.Evaluator = (*signalEvaluator)(nil)

// TestScanBatchTerminatesSingleSubQuery exercises spec §8 S5: canceling
// one sub-query by id inside a running batch ends only that sub-query
// Interrupted, while its siblings finish ResponseReturned.
func TestScanBatchTerminatesSingleSubQuery(t *testing.T) {
	path := writeManyFixture(t, 400)
	src := seqscan.NewFileSource(path, object.L1)
	alg := seqscan.New("seq-cancel", 4, src)

	target := newSignalEvaluator(object.NewVectorObject([]float32{0, 0}, object.L1), 3)
	var others []operation.Evaluator
	for i := 0; i < 3; i++ {
		q := object.NewVectorObject([]float32{float32(i + 1), 0}, object.L1)
		others = append(others, operation.NewRankKNNOperation(q, 3, operation.FullData))
	}
	subs := append([]operation.Evaluator{target}, others...)
	batch := operation.NewBatchOperation(subs)

	h := alg.BackgroundExecute(context.Background(), batch)

	<-target.signal
	if !alg.TerminateOperation(target.ID()) {
		t.Fatalf("expected to find target sub-operation running")
	}
	close(target.proceed)

	if _, err := alg.WaitBackground(h, nil); err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}

	if target.ErrorCode() != operation.Interrupted {
		t.Fatalf("expected target sub-operation Interrupted, got %v", target.ErrorCode())
	}
	for i, ev := range others {
		if !ev.WasSuccessful() {
			t.Fatalf("sibling %d expected to succeed, got %v", i, ev.ErrorCode())
		}
	}
	if batch.ErrorCode() != operation.ResponseReturned {
		t.Fatalf("expected whole batch to finish ResponseReturned, got %v", batch.ErrorCode())
	}
}

// TestScanBatchPoolSizeDeterminism exercises spec §8 S4: the per-query
// ranking answer does not depend on how many workers the batch pool
// uses, since every worker observes the source in the same order
// regardless of how sub-queries are grouped across it.
func TestScanBatchPoolSizeDeterminism(t *testing.T) {
	path := writeManyFixture(t, 300)

	run := func(poolSize int) [][]float32 {
		src := seqscan.NewFileSource(path, object.L1)
		alg := seqscan.New("seq-pool", 4, src)

		var subs []operation.Evaluator
		for i := 0; i < 6; i++ {
			q := object.NewVectorObject([]float32{float32(i * 7), 0}, object.L1)
			subs = append(subs, operation.NewRankKNNOperation(q, 5, operation.FullData))
		}
		batch := operation.NewBatchOperation(subs)
		scope := &mstats.Counters{}
		if err := alg.ScanBatch(context.Background(), scope, batch, poolSize, 17); err != nil {
			t.Fatalf("ScanBatch(poolSize=%d): %v", poolSize, err)
		}

		out := make([][]float32, len(subs))
		for i, ev := range subs {
			items := ev.(*operation.RankKNNOperation).Answer.Items()
			dists := make([]float32, len(items))
			for j, it := range items {
				dists[j] = it.Distance
			}
			out[i] = dists
		}
		return out
	}

	seq := run(1)
	par := run(8)

	if len(seq) != len(par) {
		t.Fatalf("sub-op count mismatch: %d vs %d", len(seq), len(par))
	}
	for i := range seq {
		if len(seq[i]) != len(par[i]) {
			t.Fatalf("sub-op %d: answer length mismatch: %d vs %d", i, len(seq[i]), len(par[i]))
		}
		for j := range seq[i] {
			if seq[i][j] != par[i][j] {
				t.Fatalf("sub-op %d item %d: distance mismatch between pool sizes: %v vs %v", i, j, seq[i][j], par[i][j])
			}
		}
	}
}
