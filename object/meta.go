package object

import (
	"fmt"
	"io"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/messif/metrickernel/dconst"
	"github.com/messif/metrickernel/filter"
	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/objid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MetaObjectClassTag is the wire type tag for MetaObject.
const MetaObjectClassTag = "MetaObject"

// Aggregator combines per-descriptor sub-distances into one meta-object
// distance (spec §4.2). UNKNOWN_DISTANCE entries (filter.UnknownDistance)
// are expected to already have been filtered out by the caller.
type Aggregator func(d []float32) float32

func SumAggregator(d []float32) float32 {
	var s float32
	for _, v := range d {
		s += v
	}
	return s
}

func MaxAggregator(d []float32) float32 {
	var m float32
	for i, v := range d {
		if i == 0 || v > m {
			m = v
		}
	}
	return m
}

func MinAggregator(d []float32) float32 {
	var m float32
	for i, v := range d {
		if i == 0 || v < m {
			m = v
		}
	}
	return m
}

func AvgAggregator(d []float32) float32 {
	if len(d) == 0 {
		return 0
	}
	return SumAggregator(d) / float32(len(d))
}

// MetaObject is a local object composed of named sub-objects, all sharing
// the parent's key (spec §3/§4.2).
type MetaObject struct {
	Base
	names      []string // declared order, for stable iteration/text form
	subObjects map[string]LocalObject
	aggregator Aggregator
}

var _ LocalObject = (*MetaObject)(nil)

// NewMetaObject builds a meta-object over the given named sub-objects,
// aggregated with agg. A nil agg falls back to the locator-hash-difference
// placeholder described in spec §4.2, which is meaningful only for
// locator-based routing, never for ranking — concrete deployments should
// always pass a real Aggregator.
func NewMetaObject(subs map[string]LocalObject, names []string, agg Aggregator) *MetaObject {
	m := &MetaObject{
		Base:       NewBase(),
		names:      append([]string(nil), names...),
		subObjects: make(map[string]LocalObject, len(subs)),
		aggregator: agg,
	}
	for k, v := range subs {
		m.subObjects[k] = v
	}
	return m
}

func (m *MetaObject) ClassTag() string { return MetaObjectClassTag }

func (m *MetaObject) GetObject(name string) (LocalObject, bool) {
	o, ok := m.subObjects[name]
	return o, ok
}

func (m *MetaObject) GetObjectNames() []string { return append([]string(nil), m.names...) }

func (m *MetaObject) GetObjects() []LocalObject {
	out := make([]LocalObject, 0, len(m.names))
	for _, n := range m.names {
		out = append(out, m.subObjects[n])
	}
	return out
}

func (m *MetaObject) GetObjectCount() int { return len(m.subObjects) }

func (m *MetaObject) ContainsObject(name string) bool {
	_, ok := m.subObjects[name]
	return ok
}

// SubDistances fills one threshold-evaluated distance per declared name;
// where either side lacks the sub-object, the slot is filter.UnknownDistance
// (spec §4.2).
func (m *MetaObject) SubDistances(other *MetaObject, threshold float32) []float32 {
	out := make([]float32, len(m.names))
	for i, name := range m.names {
		a, haveA := m.subObjects[name]
		b, haveB := other.subObjects[name]
		if !haveA || !haveB {
			out[i] = filter.UnknownDistance
			continue
		}
		out[i] = ThresholdDistance(a, b, threshold)
	}
	return out
}

// RawDistance aggregates declared sub-object distances; with no declared
// aggregator, falls back to the locator-hash-difference placeholder
// (non-metric, routing-only; see spec §4.2 and its Open Question).
func (m *MetaObject) RawDistance(other LocalObject) float32 {
	o, ok := other.(*MetaObject)
	if !ok {
		return 0
	}
	if m.aggregator == nil {
		return placeholderDistance(m.Key(), o.Key())
	}
	all := m.SubDistances(o, dconst.Max)
	filtered := all[:0:0]
	for _, d := range all {
		if !filter.IsUnknown(d) {
			filtered = append(filtered, d)
		}
	}
	return m.aggregator(filtered)
}

func placeholderDistance(a, b objid.Key) float32 {
	la, lb := "", ""
	if a != nil {
		if loc, ok := a.Locator(); ok {
			la = loc
		}
	}
	if b != nil {
		if loc, ok := b.Locator(); ok {
			lb = loc
		}
	}
	ha := hashLocator(la)
	hb := hashLocator(lb)
	if ha > hb {
		return float32(ha - hb)
	}
	return float32(hb - ha)
}

func hashLocator(s string) uint64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func (m *MetaObject) MaxDistance() float32 { return MaxDistanceUnknown }

func (m *MetaObject) DataEquals(other LocalObject) bool {
	o, ok := other.(*MetaObject)
	if !ok || len(m.subObjects) != len(o.subObjects) {
		return false
	}
	for name, sub := range m.subObjects {
		osub, ok := o.subObjects[name]
		if !ok || !sub.DataEquals(osub) {
			return false
		}
	}
	return true
}

func (m *MetaObject) DataHashCode() uint64 {
	var h uint64
	names := append([]string(nil), m.names...)
	sort.Strings(names)
	for _, n := range names {
		h ^= m.subObjects[n].DataHashCode()
	}
	return h
}

func (m *MetaObject) Clone(cloneFilterChain bool) (LocalObject, error) {
	base, err := m.CloneBase(cloneFilterChain)
	if err != nil {
		return nil, err
	}
	out := &MetaObject{Base: base, names: append([]string(nil), m.names...), subObjects: make(map[string]LocalObject, len(m.subObjects)), aggregator: m.aggregator}
	for name, sub := range m.subObjects {
		cp, err := sub.Clone(cloneFilterChain)
		if err != nil {
			return nil, err
		}
		out.subObjects[name] = cp
	}
	return out, nil
}

func (m *MetaObject) ClearSurplusData() {
	m.Base.ClearSurplusData()
	for _, sub := range m.subObjects {
		sub.ClearSurplusData()
	}
}

// WriteText writes the header line "<locator>;<name1>;<Class1>;..." per
// spec §6, followed by each sub-object's own text form.
func (m *MetaObject) WriteText(w io.Writer) error {
	loc := ""
	if k := m.Key(); k != nil {
		if l, ok := k.Locator(); ok {
			loc = l
		}
	}
	fields := []string{loc}
	for _, name := range m.names {
		fields = append(fields, name, m.subObjects[name].ClassTag())
	}
	if _, err := fmt.Fprintln(w, strings.Join(fields, ";")); err != nil {
		return err
	}
	for _, name := range m.names {
		if err := m.subObjects[name].WriteText(w); err != nil {
			return err
		}
	}
	return nil
}

// ParseMetaHeader parses the header line of the MetaObject text format
// (spec §6): "<locator-or-empty>;<name1>;<ClassName1>;...". When the
// leading field count is odd, the first field is the locator; an empty
// first field with an odd count means "no locator".
func ParseMetaHeader(line string) (locator string, names []string, classTags []string, err error) {
	fields := strings.Split(line, ";")
	if len(fields)%2 == 1 {
		locator = fields[0]
		fields = fields[1:]
	}
	if len(fields)%2 != 0 {
		return "", nil, nil, mcmn.NewErrInvalidArgument("meta object: malformed header %q", line)
	}
	for i := 0; i < len(fields); i += 2 {
		names = append(names, fields[i])
		classTags = append(classTags, fields[i+1])
	}
	return locator, names, classTags, nil
}

// ParametricMetaObject additionally carries a string->serializable
// parameter map (spec §3).
type ParametricMetaObject struct {
	MetaObject
	Params map[string]any
}

func NewParametricMetaObject(subs map[string]LocalObject, names []string, agg Aggregator, params map[string]any) *ParametricMetaObject {
	return &ParametricMetaObject{MetaObject: *NewMetaObject(subs, names, agg), Params: params}
}

func (p *ParametricMetaObject) ParamsJSON() (string, error) {
	b, err := json.Marshal(p.Params)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func ParseParamsJSON(s string) (map[string]any, error) {
	var out map[string]any
	if s == "" {
		return map[string]any{}, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}
