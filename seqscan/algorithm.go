package seqscan

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"

	"github.com/messif/metrickernel/algorithm"
	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/mconfig"
	"github.com/messif/metrickernel/mstats"
	"github.com/messif/metrickernel/navproc"
	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/operation"
)

// errReaderFailed is the cause wrapped into the ErrIOFailure returned
// when the batch scanner's reader goroutine hit an I/O error mid-stream.
var errReaderFailed = errors.New("seqscan: data-reader worker failed")

// Algorithm is the sequential-scan reference algorithm (spec §4.8): it
// registers its three handlers with the shared dispatch base instead of
// overriding virtual methods, per the corpus's Register-keyed approach.
type Algorithm struct {
	*algorithm.Algorithm
	source *Source
	nav    *navproc.Pool
}

// New wraps source behind the dispatch base named name, registering
// handlers for single k-NN, single range, and batch operations.
func New(name string, maxRunning int64, source *Source) *Algorithm {
	a := &Algorithm{Algorithm: algorithm.New(name, maxRunning), source: source, nav: navproc.NewPool(1)}
	a.Register(reflect.TypeOf((*operation.RankKNNOperation)(nil)), a.handleSingle)
	a.Register(reflect.TypeOf((*operation.RankRangeOperation)(nil)), a.handleSingle)
	a.Register(reflect.TypeOf((*operation.BatchOperation)(nil)), a.handleBatch)
	return a
}

func (a *Algorithm) handleSingle(ctx context.Context, scope *mstats.Counters, op operation.Operation) error {
	ev, ok := op.(operation.Evaluator)
	if !ok {
		op.EndOperation(operation.NotSupported)
		return nil
	}
	return a.ScanSingle(ctx, scope, ev)
}

func (a *Algorithm) handleBatch(ctx context.Context, scope *mstats.Counters, op operation.Operation) error {
	batch, ok := op.(*operation.BatchOperation)
	if !ok {
		op.EndOperation(operation.NotSupported)
		return nil
	}
	cfg := mconfig.GCO.Get().Scan
	return a.ScanBatch(ctx, scope, batch, cfg.PoolSize, cfg.ChunkSize)
}

// ScanSingle performs the "single query" path of spec §4.8: rewind the
// source, then invoke ev.Evaluate once per object in file order. The two
// steps run through a.nav, the same navproc.Pool a multi-step algorithm
// would use (spec §2/§5's "the algorithm either runs its own
// operation-specific method or delegates to a navigation processor"),
// with seqscan's pool bounded to run them sequentially.
func (a *Algorithm) ScanSingle(ctx context.Context, scope *mstats.Counters, ev operation.Evaluator) error {
	defer a.source.Close()
	_, err := a.nav.Run(ctx, []navproc.Processor{
		&seekStep{source: a.source},
		&funcStep{op: ev, run: func(ctx context.Context) error { return a.scanSingleBody(ctx, scope, ev) }},
	})
	return err
}

func (a *Algorithm) scanSingleBody(ctx context.Context, scope *mstats.Counters, ev operation.Evaluator) error {
	for {
		if ctx.Err() != nil {
			ev.EndOperation(operation.Interrupted)
			return ctx.Err()
		}
		obj, err := a.source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		ev.Evaluate(scope, obj)
	}
	ev.EndOperation(operation.ResponseReturned)
	return nil
}

// seekStep rewinds a Source to its first object; the navigation pool's
// first step ahead of any scan body (spec §5).
type seekStep struct{ source *Source }

func (s *seekStep) ProcessStep(context.Context) (operation.Operation, error) {
	return nil, s.source.Seek(0)
}

// funcStep adapts a plain scan body into a navproc.Processor, reporting
// op as the step's result operation once run has finished.
type funcStep struct {
	op  operation.Operation
	run func(ctx context.Context) error
}

func (s *funcStep) ProcessStep(ctx context.Context) (operation.Operation, error) {
	return s.op, s.run(ctx)
}

// ScanBatch implements the exact producer/consumer design of spec §4.8:
// one reader goroutine broadcasting D-sized chunks to every query
// worker's capacity-3 channel, ⌈N/⌈N/T⌉⌉ workers each owning a
// contiguous group of sub-queries, an empty-chunk EOF sentinel, and a
// reader-failure flag workers observe instead of blocking forever.
func (a *Algorithm) ScanBatch(ctx context.Context, scope *mstats.Counters, batch *operation.BatchOperation, poolSize, chunkSize int) error {
	defer a.source.Close()
	_, err := a.nav.Run(ctx, []navproc.Processor{
		&seekStep{source: a.source},
		&funcStep{op: batch, run: func(ctx context.Context) error {
			return a.scanBatchBody(ctx, scope, batch, poolSize, chunkSize)
		}},
	})
	return err
}

func (a *Algorithm) scanBatchBody(ctx context.Context, scope *mstats.Counters, batch *operation.BatchOperation, poolSize, chunkSize int) error {
	if poolSize < 1 {
		poolSize = 1
	}
	if chunkSize < 1 {
		chunkSize = 1000
	}

	subOps := batch.SubOperations()
	n := len(subOps)
	if n == 0 {
		batch.EndOperation(operation.ResponseReturned)
		return nil
	}

	groupsPerWorker := ceilDiv(n, poolSize)
	numWorkers := ceilDiv(n, groupsPerWorker)

	groups := make([][]int, 0, numWorkers)
	for i := 0; i < n; i += groupsPerWorker {
		end := i + groupsPerWorker
		if end > n {
			end = n
		}
		idxs := make([]int, end-i)
		for j := range idxs {
			idxs[j] = i + j
		}
		groups = append(groups, idxs)
	}

	channels := make([]chan []object.LocalObject, len(groups))
	for i := range channels {
		channels[i] = make(chan []object.LocalObject, 3)
	}

	var readerWG sync.WaitGroup
	readerWG.Add(1)
	go a.readChunks(ctx, channels, chunkSize, &readerWG, batch)

	var workersWG sync.WaitGroup
	workerScopes := make([]*mstats.Counters, len(groups))
	for i, indices := range groups {
		workerScopes[i] = &mstats.Counters{}
		workersWG.Add(1)
		go func(ch chan []object.LocalObject, indices []int, ws *mstats.Counters) {
			defer workersWG.Done()
			runWorker(ctx, ch, indices, subOps, ws, batch)
		}(channels[i], indices, workerScopes[i])
	}

	workersWG.Wait()
	readerWG.Wait()

	for _, ws := range workerScopes {
		scope.Merge(ws)
	}

	switch {
	case batch.ReaderFailed():
		batch.EndOperation(operation.Failed)
		return mcmn.NewErrIOFailure(errReaderFailed)
	case ctx.Err() != nil:
		batch.EndOperation(operation.Interrupted)
		return ctx.Err()
	default:
		batch.EndOperation(operation.ResponseReturned)
		return nil
	}
}

// readChunks is the single data-reader worker (spec §4.8 step 2/4): it
// reads the source in fixed-size chunks, broadcasting a shared reference
// to every worker channel, and broadcasts the nil sentinel at EOF. A read
// error marks the batch reader-failed so workers waiting on an otherwise
// starved channel can observe it and exit instead of hanging forever.
func (a *Algorithm) readChunks(ctx context.Context, channels []chan []object.LocalObject, chunkSize int, wg *sync.WaitGroup, batch *operation.BatchOperation) {
	defer wg.Done()
	defer func() {
		for _, ch := range channels {
			ch <- nil
		}
	}()

	chunk := make([]object.LocalObject, 0, chunkSize)
	for {
		if ctx.Err() != nil {
			return
		}
		obj, err := a.source.Next()
		if err == io.EOF {
			if len(chunk) > 0 {
				broadcast(channels, chunk)
			}
			return
		}
		if err != nil {
			batch.MarkReaderFailed()
			return
		}
		chunk = append(chunk, obj)
		if len(chunk) == chunkSize {
			broadcast(channels, chunk)
			chunk = make([]object.LocalObject, 0, chunkSize)
		}
	}
}

func broadcast(channels []chan []object.LocalObject, chunk []object.LocalObject) {
	for _, ch := range channels {
		ch <- chunk
	}
}

// runWorker is one query worker (spec §4.8 step 5): it consumes chunks
// from its channel, evaluating every sub-query in its group against every
// object in the chunk, until the nil sentinel or a reader failure. Each
// sub-query in indices also carries its own context (batch.SubContext),
// so canceling one sub-query's id via algorithm.Algorithm.TerminateOperation
// ends just that sub-query Interrupted while its group siblings keep
// running to ResponseReturned (spec §8 S5).
func runWorker(ctx context.Context, ch chan []object.LocalObject, indices []int, subOps []operation.Evaluator, scope *mstats.Counters, batch *operation.BatchOperation) {
	endAll := func(code operation.ErrCode) {
		for _, idx := range indices {
			ev := subOps[idx]
			if ev.ErrorCode().IsTerminal() {
				continue
			}
			if sc := batch.SubContext(idx); sc.Err() != nil {
				ev.EndOperation(operation.Interrupted)
				continue
			}
			ev.EndOperation(code)
		}
	}
	for {
		if batch.ReaderFailed() {
			endAll(operation.Failed)
			return
		}
		chunk := <-ch
		if chunk == nil {
			code := operation.ResponseReturned
			if batch.ReaderFailed() {
				code = operation.Failed
			} else if ctx.Err() != nil {
				code = operation.Interrupted
			}
			endAll(code)
			return
		}
		if ctx.Err() != nil {
			endAll(operation.Interrupted)
			return
		}
		for _, idx := range indices {
			ev := subOps[idx]
			if ev.ErrorCode().IsTerminal() {
				continue
			}
			if sc := batch.SubContext(idx); sc.Err() != nil {
				ev.EndOperation(operation.Interrupted)
				continue
			}
			for _, obj := range chunk {
				ev.Evaluate(scope, obj)
			}
		}
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
