// Package objiter implements the iterator and provider-chaining layer
// (spec §4.9): a generic cursor contract, convenience finders that
// consume the cursor looking for a match, a multi-source provider chain,
// and a part-id partitioning view over an external bucket store.
package objiter

import (
	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/objid"
)

// Iterator is a forward-only cursor over a sequence of E (spec §4.9
// GenericObjectIterator<E>).
type Iterator[E any] interface {
	HasNext() bool
	Next() (E, error)
	Current() E
}

// ObjectIterator specializes Iterator for the kernel's own object type,
// since the finder helpers below need LocalObject's identity/data/key
// methods.
type ObjectIterator = Iterator[object.LocalObject]

// SliceIterator adapts a plain slice to ObjectIterator; used by tests and
// by in-memory sources.
type SliceIterator struct {
	items []object.LocalObject
	pos   int
	cur   object.LocalObject
}

func NewSliceIterator(items []object.LocalObject) *SliceIterator {
	return &SliceIterator{items: items}
}

func (s *SliceIterator) HasNext() bool { return s.pos < len(s.items) }

func (s *SliceIterator) Next() (object.LocalObject, error) {
	if !s.HasNext() {
		return nil, mcmn.ErrUnexpectedEnd
	}
	s.cur = s.items[s.pos]
	s.pos++
	return s.cur, nil
}

func (s *SliceIterator) Current() object.LocalObject { return s.cur }

// ByID advances it until an object with the given identity is found (spec
// §4.9 "finders consume the iterator until a match or end").
func ByID(it ObjectIterator, id objid.ID) (object.LocalObject, bool, error) {
	for it.HasNext() {
		obj, err := it.Next()
		if err != nil {
			return nil, false, err
		}
		if obj.ID() == id {
			return obj, true, nil
		}
	}
	return nil, false, nil
}

// ByData advances it until an object whose data equals target's is found.
func ByData(it ObjectIterator, target object.LocalObject) (object.LocalObject, bool, error) {
	for it.HasNext() {
		obj, err := it.Next()
		if err != nil {
			return nil, false, err
		}
		if obj.DataEquals(target) {
			return obj, true, nil
		}
	}
	return nil, false, nil
}

// ByLocator advances it until an object keyed with the given locator is
// found.
func ByLocator(it ObjectIterator, locator string) (object.LocalObject, bool, error) {
	for it.HasNext() {
		obj, err := it.Next()
		if err != nil {
			return nil, false, err
		}
		if k := obj.Key(); k != nil {
			if l, ok := k.Locator(); ok && l == locator {
				return obj, true, nil
			}
		}
	}
	return nil, false, nil
}

// ByAnyLocator advances it collecting every object whose locator is in
// set; removeFound deletes matched locators from set as they're found, so
// a caller can tell which targets were never located once the iterator is
// exhausted.
func ByAnyLocator(it ObjectIterator, set map[string]struct{}, removeFound bool) ([]object.LocalObject, error) {
	var found []object.LocalObject
	for it.HasNext() {
		obj, err := it.Next()
		if err != nil {
			return found, err
		}
		k := obj.Key()
		if k == nil {
			continue
		}
		l, ok := k.Locator()
		if !ok {
			continue
		}
		if _, want := set[l]; !want {
			continue
		}
		found = append(found, obj)
		if removeFound {
			delete(set, l)
		}
	}
	return found, nil
}
