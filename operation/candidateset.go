package operation

import (
	"context"
	"sync"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

// CandidateSetOperation is a queue-backed operation of bounded capacity c
// (spec §4.5): producers insert locator strings proposed by an index,
// consumers drain them for refinement. A cuckoo filter gives producers an
// O(1) approximate "already seen" check so near-duplicate locators never
// occupy a channel slot, without the operation itself needing an
// unbounded dedup set.
type CandidateSetOperation struct {
	Base
	ch     chan []string
	seen   *cuckoo.Filter
	seenMu sync.Mutex
	done   bool
	doneMu sync.Mutex
}

var _ Operation = (*CandidateSetOperation)(nil)

// NewCandidateSetOperation builds an operation whose channel holds up to
// capacity batches of locators; seenCapacity sizes the cuckoo filter.
func NewCandidateSetOperation(capacity int, seenCapacity uint) *CandidateSetOperation {
	return &CandidateSetOperation{
		Base: NewBase(),
		ch:   make(chan []string, capacity),
		seen: cuckoo.NewFilter(seenCapacity),
	}
}

// Put blocks until there is room, or ctx is done. Locators already
// reported by a prior Put are dropped rather than enqueued again.
func (c *CandidateSetOperation) Put(ctx context.Context, locators []string) error {
	fresh := make([]string, 0, len(locators))
	c.seenMu.Lock()
	for _, l := range locators {
		b := []byte(l)
		if c.seen.Lookup(b) {
			continue
		}
		c.seen.Insert(b)
		fresh = append(fresh, l)
	}
	c.seenMu.Unlock()
	if len(fresh) == 0 {
		return nil
	}
	select {
	case c.ch <- fresh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals producer completion by pushing the terminal empty-list
// sentinel (spec §4.5).
func (c *CandidateSetOperation) Close() {
	c.doneMu.Lock()
	defer c.doneMu.Unlock()
	if c.done {
		return
	}
	c.done = true
	c.ch <- nil
}

// Take blocks for the next batch; ok is false once the terminal sentinel
// has been observed.
func (c *CandidateSetOperation) Take(ctx context.Context) (locators []string, ok bool, err error) {
	select {
	case batch := <-c.ch:
		if batch == nil {
			return nil, false, nil
		}
		return batch, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (c *CandidateSetOperation) Clone() Operation {
	return NewCandidateSetOperation(cap(c.ch), 1024)
}

func (c *CandidateSetOperation) ClearSurplusData() {}

func (c *CandidateSetOperation) UpdateFrom(other Operation) error {
	_, ok := other.(*CandidateSetOperation)
	if !ok {
		return errWrongType("CandidateSetOperation", other)
	}
	return nil
}
