// Package object implements the metric-object kernel's object hierarchy
// (spec §3-4.2): identity + optional key, local handles carrying real data,
// remote handles that resolve on demand, and composite meta-objects.
//
// The teacher builds its object layer (cluster.LOM) by reflecting on a
// constructor that takes a line-buffered stream and mutating shared state
// behind clone()-based copy-on-write. Per spec's Design Notes this is
// re-architected as explicit ownership (Base owns its data/filter chain by
// value, Clone is a deep-copy constructor) and a type-tag factory registry
// instead of reflection.
package object

import (
	"bufio"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/messif/metrickernel/dconst"
	"github.com/messif/metrickernel/filter"
	"github.com/messif/metrickernel/objid"
)

// MaxDistanceUnknown marks an object class that advertises no finite
// maximum distance; Normalize fails for such classes (spec §4.3).
const MaxDistanceUnknown = float32(-1)

// ThresholdMax is the distance contract's "no threshold" sentinel,
// re-exported here for convenience (spec §3 Invariant 1).
const ThresholdMax = dconst.Max

// LocalObject is the full contract every concrete descriptor type
// satisfies (spec §4.2).
type LocalObject interface {
	ID() objid.ID
	Key() objid.Key
	SetKey(objid.Key)

	// RawDistance is the type-specific metric, invoked by the shared
	// ThresholdDistance helper once filter short-circuiting has been
	// ruled out. Implementations must return 0 for d(x, x).
	RawDistance(other LocalObject) float32
	MaxDistance() float32 // MaxDistanceUnknown if unbounded

	Filters() *filter.Chain

	DataEquals(other LocalObject) bool
	DataHashCode() uint64

	Clone(cloneFilterChain bool) (LocalObject, error)
	ClearSurplusData()

	WriteText(w io.Writer) error

	// ClassTag is the wire type tag used in the "#objectKey"-less data
	// line and in factory lookups.
	ClassTag() string
}

// Base is embedded by every concrete LocalObject implementation; it owns
// identity, key, filter chain, and the "surplus data" slot (any cloneable
// supplemental cache, e.g. a memoized descriptor).
type Base struct {
	id         objid.ID
	key        objid.Key
	chain      filter.Chain
	supplement Cloneable
}

// Cloneable is implemented by an object's optional supplemental cache.
type Cloneable interface {
	CloneData() Cloneable
}

func NewBase() Base { return Base{id: objid.NewID()} }

// NewBaseWithKey constructs a Base carrying the given key from the start
// (e.g. when parsing an object off the wire, whose key was just read).
func NewBaseWithKey(k objid.Key) Base {
	b := NewBase()
	b.key = k
	return b
}

func (b *Base) ID() objid.ID        { return b.id }
func (b *Base) Key() objid.Key      { return b.key }
func (b *Base) SetKey(k objid.Key)  { b.key = k }
func (b *Base) Filters() *filter.Chain { return &b.chain }

func (b *Base) Supplement() Cloneable        { return b.supplement }
func (b *Base) SetSupplement(c Cloneable)    { b.supplement = c }

// ClearSurplusData drops the supplemental slot, drops every attached
// filter, and collapses a typed key down to its basic (locator-only) form
// (spec §3 Lifecycle).
func (b *Base) ClearSurplusData() {
	b.supplement = nil
	b.chain.Reset()
	if b.key != nil {
		if loc, ok := b.key.Locator(); ok {
			b.key = objid.NewBasicKey(loc)
		} else {
			b.key = objid.NullBasicKey()
		}
	}
}

// cloneBase produces a copy of b for Clone implementations: a fresh
// identity unless the caller wants copy-construction semantics (spec §3:
// "copy-construction preserves the identifier; explicit cloning assigns a
// fresh one" — Clone always means the latter here).
func (b *Base) cloneBase(cloneFilterChain bool) (Base, error) {
	out := Base{id: objid.NewID(), key: b.key}
	if cloneFilterChain {
		c, err := b.chain.Clone()
		if err != nil {
			return Base{}, err
		}
		out.chain = *c
	}
	if b.supplement != nil {
		out.supplement = b.supplement.CloneData()
	}
	return out, nil
}

// CloneBase is the exported form of cloneBase for use by concrete types
// in other files of this package's object zoo (VectorObject, MetaObject).
func (b *Base) CloneBase(cloneFilterChain bool) (Base, error) {
	return b.cloneBase(cloneFilterChain)
}

// ThresholdDistance implements the threshold-relaxed get_distance
// contract shared by every concrete LocalObject (spec §4.2): it first
// consults self's filter chain for a direct lookup keyed on other's
// identity, and only falls back to the type-specific metric when the
// chain can't answer.
func ThresholdDistance(self LocalObject, other LocalObject, threshold float32) float32 {
	if v, ok := self.Filters().DirectLookup(other.ID()); ok {
		return v
	}
	return self.RawDistance(other)
}

// StorePrecomputed computes ThresholdDistance and, if factory produces a
// filter that supports direct storage (a PivotMapFilter), records the
// result under other's identity before returning it (spec §4.2
// get_distance_store_precomputed).
func StorePrecomputed(self LocalObject, other LocalObject, factory func() *filter.PivotMapFilter, threshold float32) float32 {
	d := ThresholdDistance(self, other, threshold)
	created := factory()
	old, _ := self.Filters().Attach(created, false)
	target := created
	if old != nil {
		if pm, ok := old.(*filter.PivotMapFilter); ok {
			target = pm
		}
	}
	target.Put(other.ID(), d)
	return d
}

// DataEqualObject adapts a LocalObject for use as a map key by content
// rather than identity (spec §4.2).
type DataEqualObject struct {
	Obj LocalObject
}

func (d DataEqualObject) Equal(other DataEqualObject) bool {
	return d.Obj.DataEquals(other.Obj)
}

// HashCode uses the object's own DataHashCode directly for classes with
// a well-distributed natural hash (e.g. VectorObject's xxhash over its
// raw bytes). MetaObject's natural hash XOR-folds its sub-objects'
// hashes together, which is weak — two sub-objects with equal hashes
// cancel out, and swapping two siblings' values is invisible to it — so
// that case is re-mixed through blake2b before use as a map key's hash.
func (d DataEqualObject) HashCode() uint64 {
	if _, ok := d.Obj.(*MetaObject); ok {
		return mixWeakHash(d.Obj.DataHashCode())
	}
	return d.Obj.DataHashCode()
}

func mixWeakHash(h uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], h)
	sum := blake2b.Sum256(buf[:])
	return binary.LittleEndian.Uint64(sum[:8])
}

// writeKeyComment writes the "#objectKey ..." comment line, if a key is
// set, per spec §6.
func writeKeyComment(w io.Writer, k objid.Key) error {
	if k == nil {
		return nil
	}
	_, err := io.WriteString(w, "#objectKey "+objid.TypeTag(k)+" "+k.WriteText()+"\n")
	return err
}

// writeFilterComments writes one "#filter ..." comment line per attached
// filter that supports text serialization; filters that reject text form
// (PivotMapFilter) are silently skipped, matching their own WriteText
// error contract rather than failing the whole object write.
func writeFilterComments(w io.Writer, c *filter.Chain) error {
	for _, f := range c.Entries() {
		var buf bufioBuilder
		if err := f.WriteText(&buf); err != nil {
			continue
		}
		if _, err := io.WriteString(w, "#filter "+string(f.Kind())+" "+buf.String()); err != nil {
			return err
		}
	}
	return nil
}

// bufioBuilder is a minimal io.Writer backed by a growable byte slice,
// used to capture a filter's WriteText output before prefixing it with
// the comment tag.
type bufioBuilder struct{ b []byte }

func (w *bufioBuilder) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

func (w *bufioBuilder) String() string { return string(w.b) }

// ReadLine is a small helper for concrete readers: strips the trailing
// newline from a bufio.Reader line.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	if err == io.EOF && line == "" {
		return "", io.EOF
	}
	return line, nil
}
