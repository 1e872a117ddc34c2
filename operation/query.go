package operation

import (
	"github.com/messif/metrickernel/mstats"
	"github.com/messif/metrickernel/object"
)

// Evaluator is implemented by every query operation: given a candidate
// object, it decides whether (and at what distance) to offer it to the
// operation's answer. The sequential-scan algorithm (C8) is the main
// caller, invoking Evaluate once per scanned object.
type Evaluator interface {
	Operation
	Evaluate(scope *mstats.Counters, candidate object.LocalObject)
}

// RankKNNOperation is a k-nearest-neighbor ranking query (spec §4.5).
type RankKNNOperation struct {
	Base
	QueryObject object.LocalObject
	K           int
	AnswerKind  AnswerType
	Answer      *RankingAnswer
}

var _ Evaluator = (*RankKNNOperation)(nil)

func NewRankKNNOperation(query object.LocalObject, k int, at AnswerType) *RankKNNOperation {
	op := &RankKNNOperation{Base: NewBase(), QueryObject: query, K: k, AnswerKind: at, Answer: NewRankingAnswer(k)}
	op.Answer.SetOpID(op.ID().String())
	return op
}

func (op *RankKNNOperation) Evaluate(scope *mstats.Counters, candidate object.LocalObject) {
	d := evalDistance(scope, op.QueryObject, candidate, op.Answer.KthDistance())
	op.Answer.Offer(d, candidate)
}

func (op *RankKNNOperation) Clone() Operation {
	cp := &RankKNNOperation{Base: op.CloneBase(), QueryObject: op.QueryObject, K: op.K, AnswerKind: op.AnswerKind, Answer: NewRankingAnswer(op.K)}
	cp.Answer.SetOpID(cp.ID().String())
	return cp
}

func (op *RankKNNOperation) ClearSurplusData() {
	op.QueryObject.ClearSurplusData()
}

func (op *RankKNNOperation) UpdateFrom(other Operation) error {
	o, ok := other.(*RankKNNOperation)
	if !ok {
		return errWrongType("RankKNNOperation", other)
	}
	op.Answer.UpdateFrom(o.Answer)
	op.MergeParams(o.Params())
	return nil
}

// RankRangeOperation is a range query: every object within radius R is a
// hit, truncated only by an optional soft capacity (spec §4.5).
type RankRangeOperation struct {
	Base
	QueryObject object.LocalObject
	Radius      float32
	AnswerKind  AnswerType
	Answer      *RankingAnswer
}

var _ Evaluator = (*RankRangeOperation)(nil)

func NewRankRangeOperation(query object.LocalObject, radius float32, softCap int, at AnswerType) *RankRangeOperation {
	op := &RankRangeOperation{Base: NewBase(), QueryObject: query, Radius: radius, AnswerKind: at, Answer: NewRankingAnswer(softCap)}
	op.Answer.SetOpID(op.ID().String())
	return op
}

func (op *RankRangeOperation) Evaluate(scope *mstats.Counters, candidate object.LocalObject) {
	d := evalDistance(scope, op.QueryObject, candidate, op.Radius)
	if d > op.Radius {
		return
	}
	if !op.Answer.Offer(d, candidate) {
		op.EndOperation(SoftCapacityExceeded)
	}
}

func (op *RankRangeOperation) Clone() Operation {
	cp := &RankRangeOperation{Base: op.CloneBase(), QueryObject: op.QueryObject, Radius: op.Radius, AnswerKind: op.AnswerKind, Answer: NewRankingAnswer(0)}
	cp.Answer.SetOpID(cp.ID().String())
	return cp
}

func (op *RankRangeOperation) ClearSurplusData() { op.QueryObject.ClearSurplusData() }

func (op *RankRangeOperation) UpdateFrom(other Operation) error {
	o, ok := other.(*RankRangeOperation)
	if !ok {
		return errWrongType("RankRangeOperation", other)
	}
	op.Answer.UpdateFrom(o.Answer)
	op.MergeParams(o.Params())
	return nil
}

// SingletonQueryOperation holds zero or one result (spec §4.5) — e.g. an
// exact-match or nearest-neighbor-with-k=1-and-stop-on-first query.
type SingletonQueryOperation struct {
	Base
	QueryObject object.LocalObject
	Answer      SingletonAnswer
}

var _ Evaluator = (*SingletonQueryOperation)(nil)

func NewSingletonQueryOperation(query object.LocalObject) *SingletonQueryOperation {
	return &SingletonQueryOperation{Base: NewBase(), QueryObject: query}
}

func (op *SingletonQueryOperation) Evaluate(scope *mstats.Counters, candidate object.LocalObject) {
	d := evalDistance(scope, op.QueryObject, candidate, object.ThresholdMax)
	op.Answer.Set(d, candidate)
}

func (op *SingletonQueryOperation) Clone() Operation {
	return &SingletonQueryOperation{Base: op.CloneBase(), QueryObject: op.QueryObject}
}

func (op *SingletonQueryOperation) ClearSurplusData() { op.QueryObject.ClearSurplusData() }

func (op *SingletonQueryOperation) UpdateFrom(other Operation) error {
	o, ok := other.(*SingletonQueryOperation)
	if !ok {
		return errWrongType("SingletonQueryOperation", other)
	}
	if d, obj, ok := o.Answer.Get(); ok {
		op.Answer.Set(d, obj)
	}
	op.MergeParams(o.Params())
	return nil
}

func evalDistance(scope *mstats.Counters, query, candidate object.LocalObject, threshold float32) float32 {
	if v, ok := query.Filters().DirectLookup(candidate.ID()); ok {
		scope.Savings++
		return v
	}
	scope.DistanceComputations++
	return query.RawDistance(candidate)
}

func errWrongType(want string, got Operation) error {
	return &wrongTypeError{want: want, got: got}
}

type wrongTypeError struct {
	want string
	got  Operation
}

func (e *wrongTypeError) Error() string {
	return "operation: UpdateFrom expects a " + e.want
}
