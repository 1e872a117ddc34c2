package algorithm

import (
	"bytes"
	"context"

	"github.com/tinylib/msgp/msgp"

	"github.com/messif/metrickernel/mcmn"
)

// Snap is the opaque blob an algorithm instance serializes to
// after quiescing (spec §4.6/§6). Only the non-transient identity of the
// algorithm is persisted; the semaphore, running-operation registry, and
// any thread pool are reconstructed fresh on Restore.
type Snap struct {
	Name          string
	MaxRunningOps int64
}

// Quiesce acquires every semaphore permit, blocking until no operation is
// currently running, then returns a release func the caller must invoke
// once done snapshotting.
func (a *Algorithm) Quiesce(ctx context.Context) (release func(), err error) {
	full := a.maxRunning
	if err := a.sem.Acquire(ctx, full); err != nil {
		return nil, mcmn.Wrap(err, "algorithm: quiesce")
	}
	return func() { a.sem.Release(full) }, nil
}

// Snapshot quiesces the algorithm and msgpack-encodes its persistent
// identity (spec §4.6 Persistence: "written only after quiescing").
func (a *Algorithm) Snapshot(ctx context.Context) ([]byte, error) {
	release, err := a.Quiesce(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var buf bytes.Buffer
	w := msgp.NewWriter(&buf)
	if err := w.WriteMapHeader(2); err != nil {
		return nil, err
	}
	if err := w.WriteString("name"); err != nil {
		return nil, err
	}
	if err := w.WriteString(a.name); err != nil {
		return nil, err
	}
	if err := w.WriteString("max_running_ops"); err != nil {
		return nil, err
	}
	if err := w.WriteInt64(a.maxRunning); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Restore decodes a blob written by Snapshot into a fresh Snap; the
// transient concurrency primitives (semaphore, registry, stats map) are
// rebuilt by calling New(snap.Name, snap.MaxRunningOps) afterward, exactly
// as the teacher reconstructs its thread pool and executor map on load
// rather than persisting them.
func Restore(blob []byte) (*Snap, error) {
	r := msgp.NewReader(bytes.NewReader(blob))
	n, err := r.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	snap := &Snap{}
	for i := uint32(0); i < n; i++ {
		key, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		switch key {
		case "name":
			if snap.Name, err = r.ReadString(); err != nil {
				return nil, err
			}
		case "max_running_ops":
			if snap.MaxRunningOps, err = r.ReadInt64(); err != nil {
				return nil, err
			}
		default:
			if err := r.Skip(); err != nil {
				return nil, err
			}
		}
	}
	return snap, nil
}

// RestoreAlgorithm decodes blob and rebuilds a fresh dispatch base with the
// persisted name and running-op cap. The caller must Register its
// MethodFuncs again afterward, same as on first construction; only the
// identity survives a restart.
func RestoreAlgorithm(blob []byte) (*Algorithm, error) {
	snap, err := Restore(blob)
	if err != nil {
		return nil, err
	}
	return New(snap.Name, snap.MaxRunningOps), nil
}
