// Package operation implements the operation and answer model (spec
// §4.5): the base operation contract, ranking/singleton query variants,
// ranked-answer collection with capacity and k-NN truncation, batch
// operations, and the candidate-set producer/consumer queue.
package operation

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/messif/metrickernel/objid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrCode is the operation's terminal error-code enum (spec §4.5/§6).
type ErrCode int

const (
	// Pending means end_operation has not yet been called.
	Pending ErrCode = iota
	ObjectInserted
	SoftCapacityExceeded
	ResponseReturned
	NotSupported
	Interrupted
	Failed
)

// IsTerminal reports whether c marks a finished operation (spec §6: "Each
// has a terminal flag").
func (c ErrCode) IsTerminal() bool { return c != Pending }

func (c ErrCode) String() string {
	switch c {
	case Pending:
		return "PENDING"
	case ObjectInserted:
		return "OBJECT_INSERTED"
	case SoftCapacityExceeded:
		return "SOFTCAPACITY_EXCEEDED"
	case ResponseReturned:
		return "RESPONSE_RETURNED"
	case NotSupported:
		return "NOT_SUPPORTED"
	case Interrupted:
		return "INTERRUPTED"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// AnswerType controls how much of an object a ranking answer carries back
// to the caller, for bandwidth control (spec §4.5).
type AnswerType int

const (
	FullData AnswerType = iota
	NoFilters
	RemoteHandlesOnly
	IdsOnly
)

// Operation is the contract every operation (query or otherwise)
// satisfies (spec §4.5).
type Operation interface {
	ID() objid.ID
	ErrorCode() ErrCode
	WasSuccessful() bool
	EndOperation(ErrCode)
	Clone() Operation
	ClearSurplusData()
	UpdateFrom(Operation) error
	Params() map[string]any
}

// WasSuccessful reports whether code is a terminal, non-failure code;
// shared by every Base embedder.
func WasSuccessful(code ErrCode) bool {
	switch code {
	case ObjectInserted, ResponseReturned:
		return true
	default:
		return false
	}
}

// Base is embedded by every concrete Operation; it owns identity, error
// code, and the parameter map (spec §4.5).
type Base struct {
	mu     sync.Mutex
	id     objid.ID
	code   ErrCode
	params map[string]any
}

func NewBase() Base { return Base{id: objid.NewID(), params: map[string]any{}} }

func (b *Base) ID() objid.ID { return b.id }

func (b *Base) ErrorCode() ErrCode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.code
}

// EndOperation must be called exactly once (spec §6); a second call is a
// caller bug but is tolerated here as a last-write-wins rather than a
// panic, since cooperative-cancellation races can plausibly double-call
// it (e.g. Interrupted racing ResponseReturned).
func (b *Base) EndOperation(code ErrCode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.code = code
}

func (b *Base) WasSuccessful() bool { return WasSuccessful(b.ErrorCode()) }

func (b *Base) Params() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params
}

func (b *Base) SetParam(k string, v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.params[k] = v
}

// cloneBase copies identity and params but resets the error code — a
// clone represents a not-yet-run copy of the request.
func (b *Base) cloneBase() Base {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := Base{id: b.id, params: make(map[string]any, len(b.params))}
	for k, v := range b.params {
		cp.params[k] = v
	}
	return cp
}

func (b *Base) CloneBase() Base { return b.cloneBase() }

// mergeParams folds other's params into b's without overwriting existing
// keys, matching UpdateFrom's "merge partial results from an upstream
// execution" contract (spec §4.5).
func (b *Base) mergeParams(other map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range other {
		if _, exists := b.params[k]; !exists {
			b.params[k] = v
		}
	}
}

func (b *Base) MergeParams(other map[string]any) { b.mergeParams(other) }
