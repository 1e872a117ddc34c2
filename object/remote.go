package object

import (
	"bufio"
	"bytes"
	"context"

	"github.com/messif/metrickernel/bucket"
	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/objid"
)

// RemoteObject is the handle variant of the object hierarchy (spec §4.2):
// it carries only identity, key, and a locator into a bucket.Store,
// never the object's own data, and resolves to a full LocalObject only
// when Resolve is called. Unlike LocalObject, RemoteObject does not
// itself implement distance/filter methods — a caller that needs to rank
// a remote object must Resolve it first, the same way the teacher's own
// on-demand bucket-backed object metadata defers a full fetch until the
// data is actually needed.
type RemoteObject struct {
	Base
	store  bucket.Store
	metric Metric
}

// NewRemoteObject builds a handle for locator, to be resolved against
// store on demand.
func NewRemoteObject(locator string, store bucket.Store, m Metric) *RemoteObject {
	return &RemoteObject{Base: NewBaseWithKey(objid.NewBasicKey(locator)), store: store, metric: m}
}

// Locator returns the handle's backing locator.
func (r *RemoteObject) Locator() string {
	loc, _ := r.Key().Locator()
	return loc
}

// Resolve fetches the object's encoded text form (spec §6) from the
// backing store and decodes it into a full LocalObject, using the same
// DecodeText the sequential-scan Source reads its own stream with. A
// resolved object that carries no key of its own inherits the handle's
// locator.
func (r *RemoteObject) Resolve(ctx context.Context) (LocalObject, error) {
	loc, ok := r.Key().Locator()
	if !ok {
		return nil, mcmn.NewErrInvalidArgument("remote object: no locator to resolve")
	}
	data, err := r.store.Get(ctx, loc)
	if err != nil {
		return nil, mcmn.Wrap(err, "remote object: fetch "+loc)
	}
	obj, err := DecodeText(bufio.NewReader(bytes.NewReader(data)), r.metric)
	if err != nil {
		return nil, err
	}
	if obj.Key() == nil {
		obj.SetKey(r.Key())
	}
	return obj, nil
}
