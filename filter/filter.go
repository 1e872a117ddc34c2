// Package filter implements precomputed-distance filters (spec §4.4): a
// per-object chain of triangle-inequality caches that can exclude or
// include a candidate without evaluating the full distance function.
//
// The teacher's equivalent structures (xact's BckJog, the LOM's attached
// metadata) are built as singly-linked chains keyed by concrete type; per
// spec's Design Notes this is re-architected as a small tagged-union slice
// instead, since Go has no natural "nextFilter field" idiom.
package filter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/messif/metrickernel/dconst"
	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/objid"
)

// UnknownDistance is the sentinel meaning "no usable value here" (spec §3
// Invariant 1).
var UnknownDistance = dconst.Unknown

func IsUnknown(d float32) bool { return d == UnknownDistance }

// Kind names the concrete filter type, used both as the chain's
// discriminant and as the wire class tag.
type Kind string

const (
	KindFixedArray           Kind = "FixedArrayFilter"
	KindPerforatedFixedArray Kind = "PerforatedFixedArrayFilter"
	KindPivotMap             Kind = "PivotMapFilter"
)

// Filter is implemented by every precomputed-distance filter variant.
type Filter interface {
	Kind() Kind
	// Exclude reports whether the triangle inequality proves the true
	// distance exceeds r; Include reports whether it proves the true
	// distance is at most r. A filter that cannot relate to other (wrong
	// concrete type) returns false, false — "cannot decide" (spec §7
	// ClassMismatch).
	Exclude(other Filter, r float32) bool
	Include(other Filter, r float32) bool
	// IsGetterSupported reports whether Get can answer a direct lookup
	// for a specific other-object identity (only the pivot-map variant
	// can).
	IsGetterSupported() bool
	Get(other objid.ID) (float32, bool)
	Clone() (Filter, error)
	WriteText(w io.Writer) error
}

// Chain is the ordered, per-object collection of attached filters; no two
// entries share a Kind.
type Chain struct {
	entries []Filter
}

func (c *Chain) indexOf(k Kind) int {
	for i, f := range c.entries {
		if f.Kind() == k {
			return i
		}
	}
	return -1
}

// Attach inserts f into the chain. If a filter of the same Kind already
// exists: when replace is false the existing node is returned unchanged;
// when replace is true the old node is swapped out and returned (spec
// §3/§4.4 state machine). f must not already belong to another chain —
// callers are expected to construct a fresh Filter value per object.
func (c *Chain) Attach(f Filter, replace bool) (old Filter, err error) {
	idx := c.indexOf(f.Kind())
	if idx < 0 {
		c.entries = append(c.entries, f)
		return nil, nil
	}
	if !replace {
		return c.entries[idx], nil
	}
	old = c.entries[idx]
	c.entries[idx] = f
	return old, nil
}

// Detach removes the filter of the given kind, if any.
func (c *Chain) Detach(k Kind) (removed Filter) {
	idx := c.indexOf(k)
	if idx < 0 {
		return nil
	}
	removed = c.entries[idx]
	c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	return removed
}

func (c *Chain) Get(k Kind) (Filter, bool) {
	idx := c.indexOf(k)
	if idx < 0 {
		return nil, false
	}
	return c.entries[idx], true
}

func (c *Chain) Len() int { return len(c.entries) }

// Entries returns the chain's filters in attach order, for callers that
// need to enumerate them (e.g. writing "#filter" comment lines). Filters
// that reject text serialization are the caller's responsibility to skip.
func (c *Chain) Entries() []Filter { return c.entries }

// Reset drops every attached filter.
func (c *Chain) Reset() { c.entries = nil }

// Clone deep-copies every attached filter; a filter that forbids cloning
// aborts the whole chain clone (spec §7 CloneUnsupported).
func (c *Chain) Clone() (*Chain, error) {
	out := &Chain{entries: make([]Filter, 0, len(c.entries))}
	for _, f := range c.entries {
		cf, err := f.Clone()
		if err != nil {
			return nil, err
		}
		out.entries = append(out.entries, cf)
	}
	return out, nil
}

// DirectLookup walks the chain in order and returns the first value from a
// getter-supporting filter that isn't UnknownDistance (spec §4.4 "Chain
// walk for direct lookup").
func (c *Chain) DirectLookup(other objid.ID) (float32, bool) {
	for _, f := range c.entries {
		if !f.IsGetterSupported() {
			continue
		}
		if v, ok := f.Get(other); ok && !IsUnknown(v) {
			return v, true
		}
	}
	return 0, false
}

// Exclude walks a and b in lockstep, advancing only where the two chains
// currently line up on the same Kind (spec §4.4 "Chain walk for
// filtering"). On the first mismatch the walk stops — the remaining
// entries cannot be related — and the function returns what it has
// concluded so far (false if nothing decided yet).
func Exclude(a, b *Chain, r float32) bool {
	return walk(a, b, r, Filter.Exclude)
}

func Include(a, b *Chain, r float32) bool {
	return walk(a, b, r, Filter.Include)
}

func walk(a, b *Chain, r float32, test func(Filter, Filter, float32) bool) bool {
	n := len(a.entries)
	if m := len(b.entries); m < n {
		n = m
	}
	for i := 0; i < n; i++ {
		fa, fb := a.entries[i], b.entries[i]
		if fa.Kind() != fb.Kind() {
			return false
		}
		if test(fa, fb, r) {
			return true
		}
	}
	return false
}

// ---- FixedArrayFilter ----

// FixedArrayFilter holds a dense vector of distances to a shared,
// caller-maintained pivot list, indexed by pivot rank.
type FixedArrayFilter struct {
	values     []float32
	perforated bool
}

func NewFixedArrayFilter() *FixedArrayFilter { return &FixedArrayFilter{} }

// NewPerforatedFixedArrayFilter builds a variant whose Exclude/Include
// additionally skip indices where either side holds UnknownDistance.
func NewPerforatedFixedArrayFilter() *FixedArrayFilter {
	return &FixedArrayFilter{perforated: true}
}

func (f *FixedArrayFilter) Kind() Kind {
	if f.perforated {
		return KindPerforatedFixedArray
	}
	return KindFixedArray
}

func (f *FixedArrayFilter) Append(d float32)         { f.values = append(f.values, d) }
func (f *FixedArrayFilter) Len() int                 { return len(f.values) }
func (f *FixedArrayFilter) At(i int) float32         { return f.values[i] }
func (f *FixedArrayFilter) Set(i int, d float32)      { f.values[i] = d }
func (f *FixedArrayFilter) Truncate(n int)            { f.values = f.values[:n] }
func (f *FixedArrayFilter) Reset()                    { f.values = nil }

// AppendAll appends one distance per pivot, in iteration order.
func (f *FixedArrayFilter) AppendAll(ds []float32) {
	f.values = append(f.values, ds...)
}

// InsertAt shifts the tail right and inserts d at position i.
func (f *FixedArrayFilter) InsertAt(i int, d float32) {
	f.values = append(f.values, 0)
	copy(f.values[i+1:], f.values[i:])
	f.values[i] = d
}

// RemoveAt removes the entry at position i, shifting the tail left.
func (f *FixedArrayFilter) RemoveAt(i int) {
	f.values = append(f.values[:i], f.values[i+1:]...)
}

func (f *FixedArrayFilter) IsGetterSupported() bool { return false }

func (f *FixedArrayFilter) Get(objid.ID) (float32, bool) { return 0, false }

func (f *FixedArrayFilter) skip(a, b float32) bool {
	return f.perforated && (IsUnknown(a) || IsUnknown(b))
}

// Exclude tests, per spec §4.4: exists i : |a[i]-b[i]| > r.
func (f *FixedArrayFilter) Exclude(other Filter, r float32) bool {
	o, ok := other.(*FixedArrayFilter)
	if !ok {
		return false
	}
	n := min(len(f.values), len(o.values))
	for i := 0; i < n; i++ {
		a, b := f.values[i], o.values[i]
		if f.skip(a, b) {
			continue
		}
		if abs32(a-b) > r {
			return true
		}
	}
	return false
}

// Include tests, per spec §4.4: exists i : a[i]+b[i] <= r.
func (f *FixedArrayFilter) Include(other Filter, r float32) bool {
	o, ok := other.(*FixedArrayFilter)
	if !ok {
		return false
	}
	n := min(len(f.values), len(o.values))
	for i := 0; i < n; i++ {
		a, b := f.values[i], o.values[i]
		if f.skip(a, b) {
			continue
		}
		if a+b <= r {
			return true
		}
	}
	return false
}

func (f *FixedArrayFilter) Clone() (Filter, error) {
	cp := &FixedArrayFilter{perforated: f.perforated, values: append([]float32(nil), f.values...)}
	return cp, nil
}

// WriteText serializes the distances as space-separated floats, per
// spec §6.
func (f *FixedArrayFilter) WriteText(w io.Writer) error {
	parts := make([]string, len(f.values))
	for i, v := range f.values {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}

// ReadFixedArrayFilter parses the space-separated-floats text form
// produced by WriteText.
func ReadFixedArrayFilter(line string, perforated bool) (*FixedArrayFilter, error) {
	f := &FixedArrayFilter{perforated: perforated}
	line = strings.TrimSpace(line)
	if line == "" {
		return f, nil
	}
	for _, tok := range strings.Fields(line) {
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, mcmn.NewErrInvalidArgument("fixed-array filter: bad value %q: %v", tok, err)
		}
		f.values = append(f.values, float32(v))
	}
	return f, nil
}

// ---- PivotMapFilter ----

// PivotMapFilter holds a mapping from pivot-object identity to distance.
// It rejects text serialization (a pivot identity has no stable textual
// form) and rejects cloning (spec §4.4).
type PivotMapFilter struct {
	m map[objid.ID]float32
}

func NewPivotMapFilter() *PivotMapFilter { return &PivotMapFilter{m: map[objid.ID]float32{}} }

func (f *PivotMapFilter) Kind() Kind { return KindPivotMap }

func (f *PivotMapFilter) Put(pivot objid.ID, d float32) { f.m[pivot] = d }

func (f *PivotMapFilter) IsGetterSupported() bool { return true }

func (f *PivotMapFilter) Get(pivot objid.ID) (float32, bool) {
	v, ok := f.m[pivot]
	return v, ok
}

// Exclude/Include iterate one side's entries and apply the triangle
// inequality only where both sides have the same pivot. The source's
// inner guard skipped exactly the case where the other side *did* have
// the entry — almost certainly a bug (spec's Design Notes); this
// implementation applies the intended "use only when both sides have it"
// semantics.
func (f *PivotMapFilter) Exclude(other Filter, r float32) bool {
	o, ok := other.(*PivotMapFilter)
	if !ok {
		return false
	}
	for pivot, a := range f.m {
		b, has := o.m[pivot]
		if !has {
			continue
		}
		if abs32(a-b) > r {
			return true
		}
	}
	return false
}

func (f *PivotMapFilter) Include(other Filter, r float32) bool {
	o, ok := other.(*PivotMapFilter)
	if !ok {
		return false
	}
	for pivot, a := range f.m {
		b, has := o.m[pivot]
		if !has {
			continue
		}
		if a+b <= r {
			return true
		}
	}
	return false
}

func (f *PivotMapFilter) Clone() (Filter, error) {
	return nil, mcmn.NewErrCloneUnsupported(string(KindPivotMap))
}

func (f *PivotMapFilter) WriteText(io.Writer) error {
	return mcmn.NewErrInvalidArgument("pivot-map filter: text serialization not supported")
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ReadFilterLine parses a "#filter <FilterClassName> <filter-text>" line's
// already-split class tag and text into a concrete Filter.
func ReadFilterLine(classTag, text string) (Filter, error) {
	switch Kind(classTag) {
	case KindFixedArray:
		return ReadFixedArrayFilter(text, false)
	case KindPerforatedFixedArray:
		return ReadFixedArrayFilter(text, true)
	case KindPivotMap:
		return nil, mcmn.NewErrInvalidArgument("pivot-map filter: text parsing not supported")
	default:
		return nil, mcmn.NewErrInvalidArgument("unknown filter class %q", classTag)
	}
}
