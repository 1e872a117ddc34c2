package objiter

import (
	"errors"

	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/object"
)

// ProvidersIterator sequences multiple ObjectIterator sources in
// insertion order, advancing to the next source only when the current
// one is exhausted (spec §4.9 ObjectProvidersIterator).
type ProvidersIterator struct {
	sources []ObjectIterator
	idx     int
	cur     object.LocalObject
}

func NewProvidersIterator(sources ...ObjectIterator) *ProvidersIterator {
	return &ProvidersIterator{sources: sources}
}

func (p *ProvidersIterator) HasNext() bool {
	for p.idx < len(p.sources) {
		if p.sources[p.idx].HasNext() {
			return true
		}
		p.idx++
	}
	return false
}

func (p *ProvidersIterator) Next() (object.LocalObject, error) {
	if !p.HasNext() {
		return nil, mcmn.ErrUnexpectedEnd
	}
	obj, err := p.sources[p.idx].Next()
	if err != nil {
		return nil, err
	}
	p.cur = obj
	return obj, nil
}

func (p *ProvidersIterator) Current() object.LocalObject { return p.cur }

// ErrOccupationLow and ErrFilterReject are the iterator-level checked
// errors a MatchingObjectList surfaces in place of the underlying store's
// own rejection variants (spec §4.9 "must translate checked rejections").
var (
	ErrOccupationLow = errors.New("objiter: underlying store below minimum occupation")
	ErrFilterReject  = errors.New("objiter: underlying store rejected by filter")
)

// ObjectMatcher assigns an integer partition id to an object; used by
// MatchingObjectList to decide which objects belong to the traversal.
type ObjectMatcher func(object.LocalObject) int

// StoreRemover is implemented by a backing iterator that supports
// deleting the object last returned by Next (spec §4.9 "may delete
// matched objects via the iterator's remove()").
type StoreRemover interface {
	Remove() error
}

// translatable is satisfied by a bucket-backed iterator's own checked
// error variants; MatchingObjectList maps them onto this package's
// ErrOccupationLow/ErrFilterReject rather than leaking the bucket
// package's types to callers that only know about objiter.
type translatable interface {
	IsOccupationLow() bool
	IsFilterReject() bool
}

// MatchingObjectList traverses src, yielding only objects whose matcher
// result equals partID (spec §4.9 GenericMatchingObjectList).
type MatchingObjectList struct {
	src     ObjectIterator
	matcher ObjectMatcher
	partID  int
	cur     object.LocalObject
}

func NewMatchingObjectList(src ObjectIterator, matcher ObjectMatcher, partID int) *MatchingObjectList {
	return &MatchingObjectList{src: src, matcher: matcher, partID: partID}
}

func (m *MatchingObjectList) HasNext() bool {
	return m.src.HasNext()
}

func (m *MatchingObjectList) Next() (object.LocalObject, error) {
	for m.src.HasNext() {
		obj, err := m.src.Next()
		if err != nil {
			if t, ok := err.(translatable); ok {
				switch {
				case t.IsOccupationLow():
					return nil, ErrOccupationLow
				case t.IsFilterReject():
					return nil, ErrFilterReject
				}
			}
			return nil, err
		}
		if m.matcher(obj) == m.partID {
			m.cur = obj
			return obj, nil
		}
	}
	return nil, mcmn.ErrUnexpectedEnd
}

func (m *MatchingObjectList) Current() object.LocalObject { return m.cur }

// RemoveCurrent deletes the last-returned object from the backing store,
// if src supports it.
func (m *MatchingObjectList) RemoveCurrent() error {
	remover, ok := m.src.(StoreRemover)
	if !ok {
		return mcmn.NewErrNotSupported("objiter.MatchingObjectList", "Remove")
	}
	return remover.Remove()
}
