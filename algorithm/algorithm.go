// Package algorithm implements the name-bound operation dispatch layer
// (spec §4.6): algorithms publish the operation types they support, a
// bounded semaphore caps concurrently running operations, a live registry
// enables cooperative termination, and background execution hands back a
// handle the caller can join on later.
//
// The teacher dispatches xactions by kind string through its xreg
// registry and tracks per-xaction state machines (see xact/xs/tcb.go);
// per spec's Design Notes the reflective "constructor that takes a
// concrete operation subtype" pattern is replaced here with an explicit
// Register call keyed on reflect.Type — no runtime method-shape scanning.
package algorithm

import (
	"context"
	"reflect"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/mconfig"
	"github.com/messif/metrickernel/mlog"
	"github.com/messif/metrickernel/mstats"
	"github.com/messif/metrickernel/objid"
	"github.com/messif/metrickernel/operation"
)

// MethodFunc executes one concrete operation type against the algorithm.
// ctx carries cancellation for cooperative termination; scope accumulates
// the distance-contract counters for this one execution.
type MethodFunc func(ctx context.Context, scope *mstats.Counters, op operation.Operation) error

// Algorithm is the base every concrete algorithm (e.g. seqscan.Algorithm)
// embeds.
type Algorithm struct {
	name       string
	maxRunning int64

	mu      sync.RWMutex
	methods map[reflect.Type]MethodFunc

	sem *semaphore.Weighted

	runMu   sync.Mutex
	running map[objid.ID]context.CancelFunc

	statsMu sync.Mutex
	stats   map[objid.ID]*mstats.Counters
}

// New builds a dispatch base named name, with the given running-operation
// weight cap (0 selects the spec default of 1024).
func New(name string, maxRunning int64) *Algorithm {
	if maxRunning <= 0 {
		maxRunning = mconfig.GCO.Get().Dispatch.MaxRunningOps
	}
	return &Algorithm{
		name:       name,
		maxRunning: maxRunning,
		methods:    make(map[reflect.Type]MethodFunc),
		sem:        semaphore.NewWeighted(maxRunning),
		running:    make(map[objid.ID]context.CancelFunc),
		stats:      make(map[objid.ID]*mstats.Counters),
	}
}

func (a *Algorithm) Name() string { return a.name }

// Register binds opType (typically reflect.TypeOf((*SomeOp)(nil))) to fn.
// Called at construction time by the concrete algorithm, building the
// type->method map the spec describes — never via reflection over method
// signatures.
func (a *Algorithm) Register(opType reflect.Type, fn MethodFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.methods[opType] = fn
}

// SupportedOperations introspects the registry, returning every
// registered operation type (spec §4.6 "supported-operation
// introspection").
func (a *Algorithm) SupportedOperations() []reflect.Type {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]reflect.Type, 0, len(a.methods))
	for t := range a.methods {
		out = append(out, t)
	}
	return out
}

func (a *Algorithm) lookup(op operation.Operation) (MethodFunc, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t := reflect.TypeOf(op)
	if fn, ok := a.methods[t]; ok {
		return fn, true
	}
	// Fall back to any registered method whose declared parameter type op
	// satisfies via assignability (the Go analogue of "walks the
	// operation's declared supertype chain" in spec's Design Notes, since
	// Go has no class hierarchy to walk).
	for rt, fn := range a.methods {
		if rt.Kind() == reflect.Interface && t.Implements(rt) {
			return fn, true
		}
	}
	return nil, false
}

// Execute runs op synchronously on the calling goroutine, respecting the
// bounded running-operation semaphore (spec §4.6).
func (a *Algorithm) Execute(ctx context.Context, op operation.Operation) error {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return mcmn.Wrap(err, "algorithm: semaphore acquire")
	}
	defer a.sem.Release(1)

	fn, ok := a.lookup(op)
	if !ok {
		op.EndOperation(operation.NotSupported)
		return mcmn.NewErrNotSupported(a.name, reflect.TypeOf(op).String())
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.publish(op.ID(), cancel)
	defer a.unpublish(op.ID())

	subIDs := a.publishSubOperations(runCtx, op)
	defer a.unpublishAll(subIDs)

	scope := &mstats.Counters{}
	err := fn(runCtx, scope, op)
	a.recordStats(op.ID(), scope)

	switch {
	case err != nil && runCtx.Err() == context.Canceled:
		op.EndOperation(operation.Interrupted)
		return mcmn.NewErrInterrupted(op.ID().String())
	case err != nil:
		op.EndOperation(operation.Failed)
		return err
	}
	if !op.ErrorCode().IsTerminal() {
		op.EndOperation(operation.ResponseReturned)
	}
	return nil
}

// publishSubOperations gives every sub-operation of a BatchOperation its
// own context derived from parent and registers it under its own id in
// the running table, so TerminateOperation(subID) can interrupt a single
// sub-query inside a running batch without canceling its siblings (spec
// §8 S5). Non-batch operations are unaffected and return nil.
func (a *Algorithm) publishSubOperations(parent context.Context, op operation.Operation) []objid.ID {
	batch, ok := op.(*operation.BatchOperation)
	if !ok {
		return nil
	}
	subOps := batch.SubOperations()
	ctxs := make([]context.Context, len(subOps))
	ids := make([]objid.ID, len(subOps))
	for i, sub := range subOps {
		subCtx, subCancel := context.WithCancel(parent)
		ctxs[i] = subCtx
		ids[i] = sub.ID()
		a.publish(sub.ID(), subCancel)
	}
	batch.SetSubContexts(ctxs)
	return ids
}

func (a *Algorithm) unpublishAll(ids []objid.ID) {
	for _, id := range ids {
		a.unpublish(id)
	}
}

func (a *Algorithm) publish(id objid.ID, cancel context.CancelFunc) {
	a.runMu.Lock()
	a.running[id] = cancel
	a.runMu.Unlock()
}

func (a *Algorithm) unpublish(id objid.ID) {
	a.runMu.Lock()
	delete(a.running, id)
	a.runMu.Unlock()
}

// RunningSnapshot returns a copy of the currently-running operation ids
// (spec §5: "readers copy the live subset").
func (a *Algorithm) RunningSnapshot() []objid.ID {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	out := make([]objid.ID, 0, len(a.running))
	for id := range a.running {
		out = append(out, id)
	}
	return out
}

// TerminateOperation cooperatively interrupts a running operation by id
// (spec §4.6/§5). Returns false if no such operation is currently
// running.
func (a *Algorithm) TerminateOperation(id objid.ID) bool {
	a.runMu.Lock()
	cancel, ok := a.running[id]
	a.runMu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

func (a *Algorithm) recordStats(id objid.ID, scope *mstats.Counters) {
	cp := *scope
	a.statsMu.Lock()
	a.stats[id] = &cp
	a.statsMu.Unlock()
	if mlog.FastV(5) {
		mlog.Infof("%s: op %s accessed=%d", a.name, id, scope.AccessedObjects())
	}
	scope.Flush() // publishes to the process-wide Prometheus vectors and zeroes scope
}

// StatsFor returns (and removes) the accumulated per-operation counters,
// used by WaitBackground to merge them onto the caller's scope (spec
// §4.6 statistics_before/statistics_after).
func (a *Algorithm) StatsFor(id objid.ID) (*mstats.Counters, bool) {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()
	s, ok := a.stats[id]
	delete(a.stats, id)
	return s, ok
}

// Handle is returned by BackgroundExecute; the caller joins on it with
// WaitBackground.
type Handle struct {
	op   operation.Operation
	done chan error
}

// BackgroundExecute runs op on a new goroutine and returns immediately
// with a Handle (spec §4.6).
func (a *Algorithm) BackgroundExecute(ctx context.Context, op operation.Operation) *Handle {
	h := &Handle{op: op, done: make(chan error, 1)}
	go func() {
		h.done <- a.Execute(ctx, op)
	}()
	return h
}

// WaitBackground blocks until h's execution finishes, merges its
// per-operation statistics onto the calling thread's scope, and returns
// the execution error (if any).
func (a *Algorithm) WaitBackground(h *Handle, callerScope *mstats.Counters) (operation.Operation, error) {
	err := <-h.done
	if s, ok := a.StatsFor(h.op.ID()); ok && callerScope != nil {
		callerScope.Merge(s)
	}
	return h.op, err
}
