package objiter

import (
	"context"

	"github.com/messif/metrickernel/bucket"
	"github.com/messif/metrickernel/object"
)

// RemoteIterator walks the locators a bucket.Store lists under a prefix,
// resolving each to a full LocalObject only as Next is called — the
// on-demand-resolution consumer of object.RemoteObject (spec §4.2), built
// the same provider shape as ProvidersIterator/MatchingObjectList give
// an in-memory source.
type RemoteIterator struct {
	ctx      context.Context
	store    bucket.Store
	metric   object.Metric
	locators []string
	pos      int
	cur      object.LocalObject
}

var _ ObjectIterator = (*RemoteIterator)(nil)

// NewRemoteIterator lists every locator under prefix once, up front, but
// defers resolving any of them until the caller actually asks for the
// next object.
func NewRemoteIterator(ctx context.Context, store bucket.Store, prefix string, m object.Metric) (*RemoteIterator, error) {
	locators, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return &RemoteIterator{ctx: ctx, store: store, metric: m, locators: locators}, nil
}

func (it *RemoteIterator) HasNext() bool { return it.pos < len(it.locators) }

func (it *RemoteIterator) Next() (object.LocalObject, error) {
	loc := it.locators[it.pos]
	it.pos++
	remote := object.NewRemoteObject(loc, it.store, it.metric)
	obj, err := remote.Resolve(it.ctx)
	if err != nil {
		return nil, err
	}
	it.cur = obj
	return obj, nil
}

func (it *RemoteIterator) Current() object.LocalObject { return it.cur }
