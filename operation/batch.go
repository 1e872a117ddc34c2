package operation

import (
	"context"
	"sync"
	"sync/atomic"
)

// BatchOperation holds N ranking sub-operations processed as a unit (spec
// §4.5); termination requires every sub-operation to have reached a
// terminal error code.
type BatchOperation struct {
	Base
	subOps []Evaluator
	failed atomic.Bool

	subCtxMu sync.RWMutex
	subCtx   []context.Context
}

var _ Operation = (*BatchOperation)(nil)

func NewBatchOperation(subOps []Evaluator) *BatchOperation {
	return &BatchOperation{Base: NewBase(), subOps: subOps}
}

func (b *BatchOperation) NOperations() int { return len(b.subOps) }

func (b *BatchOperation) GetOperation(i int) Evaluator { return b.subOps[i] }

func (b *BatchOperation) SubOperations() []Evaluator { return b.subOps }

// SetSubContexts installs one independently-cancelable context per
// sub-operation (same length and order as SubOperations), letting a
// runner end a single sub-query without tearing down the whole batch
// (spec §8 S5). Called once by algorithm.Algorithm.Execute before the
// batch is handed to its evaluating algorithm.
func (b *BatchOperation) SetSubContexts(ctxs []context.Context) {
	b.subCtxMu.Lock()
	defer b.subCtxMu.Unlock()
	b.subCtx = ctxs
}

// SubContext returns the per-sub-operation context registered for index
// i, or context.Background() if none was installed — meaning that
// sub-operation's lifetime is governed solely by whatever shared context
// the runner was given.
func (b *BatchOperation) SubContext(i int) context.Context {
	b.subCtxMu.RLock()
	defer b.subCtxMu.RUnlock()
	if i >= 0 && i < len(b.subCtx) && b.subCtx[i] != nil {
		return b.subCtx[i]
	}
	return context.Background()
}

// MarkReaderFailed flags the batch as failed due to a data-source I/O
// error (spec §4.8 failure policy); query workers observe this and end
// with Failed rather than hanging on a starved channel forever.
func (b *BatchOperation) MarkReaderFailed() { b.failed.Store(true) }

func (b *BatchOperation) ReaderFailed() bool { return b.failed.Load() }

// AllTerminated reports whether every sub-operation has ended.
func (b *BatchOperation) AllTerminated() bool {
	for _, op := range b.subOps {
		if !op.ErrorCode().IsTerminal() {
			return false
		}
	}
	return true
}

func (b *BatchOperation) Clone() Operation {
	cloned := make([]Evaluator, len(b.subOps))
	for i, op := range b.subOps {
		cloned[i] = op.Clone().(Evaluator)
	}
	return &BatchOperation{Base: b.CloneBase(), subOps: cloned}
}

func (b *BatchOperation) ClearSurplusData() {
	for _, op := range b.subOps {
		op.ClearSurplusData()
	}
}

func (b *BatchOperation) UpdateFrom(other Operation) error {
	o, ok := other.(*BatchOperation)
	if !ok {
		return errWrongType("BatchOperation", other)
	}
	if len(o.subOps) != len(b.subOps) {
		return errWrongType("BatchOperation with matching sub-operation count", other)
	}
	for i := range b.subOps {
		if err := b.subOps[i].UpdateFrom(o.subOps[i]); err != nil {
			return err
		}
	}
	b.MergeParams(o.Params())
	return nil
}
