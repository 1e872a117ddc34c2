package object

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/messif/metrickernel/mcmn"
)

// Metric selects the Lp-style norm a VectorObject uses for RawDistance.
type Metric int

const (
	L1 Metric = iota
	L2
	LInf
)

// VectorObjectClassTag is the wire type tag written/read for VectorObject,
// e.g. in MetaObject sub-object headers.
const VectorObjectClassTag = "VectorObject"

// VectorObject is the reference LocalObject implementation: a fixed-length
// float32 vector with an Lp distance, used by the sequential-scan
// algorithm and throughout the test suite (spec.md's end-to-end scenarios
// all use L1 vectors).
type VectorObject struct {
	Base
	Values []float32
	metric Metric
}

var _ LocalObject = (*VectorObject)(nil)

func NewVectorObject(values []float32, m Metric) *VectorObject {
	return &VectorObject{Base: NewBase(), Values: append([]float32(nil), values...), metric: m}
}

func (v *VectorObject) ClassTag() string { return VectorObjectClassTag }

func (v *VectorObject) RawDistance(other LocalObject) float32 {
	o, ok := other.(*VectorObject)
	if !ok {
		return 0
	}
	n := len(v.Values)
	if len(o.Values) < n {
		n = len(o.Values)
	}
	switch v.metric {
	case L2:
		var sum float64
		for i := 0; i < n; i++ {
			d := float64(v.Values[i] - o.Values[i])
			sum += d * d
		}
		return float32(sqrt(sum))
	case LInf:
		var m float32
		for i := 0; i < n; i++ {
			d := absf(v.Values[i] - o.Values[i])
			if d > m {
				m = d
			}
		}
		return m
	default: // L1
		var sum float32
		for i := 0; i < n; i++ {
			sum += absf(v.Values[i] - o.Values[i])
		}
		return sum
	}
}

func (v *VectorObject) MaxDistance() float32 { return MaxDistanceUnknown }

func (v *VectorObject) DataEquals(other LocalObject) bool {
	o, ok := other.(*VectorObject)
	if !ok || len(o.Values) != len(v.Values) {
		return false
	}
	for i := range v.Values {
		if v.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

func (v *VectorObject) DataHashCode() uint64 {
	h := xxhash.New()
	for _, f := range v.Values {
		bits := math.Float32bits(f)
		var buf [4]byte
		buf[0] = byte(bits)
		buf[1] = byte(bits >> 8)
		buf[2] = byte(bits >> 16)
		buf[3] = byte(bits >> 24)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func (v *VectorObject) Clone(cloneFilterChain bool) (LocalObject, error) {
	base, err := v.CloneBase(cloneFilterChain)
	if err != nil {
		return nil, err
	}
	return &VectorObject{Base: base, Values: append([]float32(nil), v.Values...), metric: v.metric}, nil
}

// WriteText writes "v <n> <values...>" as the opaque data line, after any
// key/filter comment lines (spec §6).
func (v *VectorObject) WriteText(w io.Writer) error {
	if err := writeKeyComment(w, v.Key()); err != nil {
		return err
	}
	if err := writeFilterComments(w, v.Filters()); err != nil {
		return err
	}
	parts := make([]string, len(v.Values))
	for i, f := range v.Values {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	_, err := fmt.Fprintf(w, "v %d %s\n", len(v.Values), strings.Join(parts, " "))
	return err
}

// ReadVectorObject parses one "v <n> <values...>" data line. Any preceding
// "#objectKey"/"#filter" comment lines must already have been consumed by
// the caller (DecodeText does this generically for every text reader, the
// sequential-scan Source included, since the comment block precedes any
// concrete type's data line).
func ReadVectorObject(dataLine string, m Metric) (*VectorObject, error) {
	fields := strings.Fields(dataLine)
	if len(fields) < 2 || fields[0] != "v" {
		return nil, mcmn.NewErrInvalidArgument("vector object: malformed data line %q", dataLine)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, mcmn.NewErrInvalidArgument("vector object: bad count in %q", dataLine)
	}
	if len(fields)-2 < n {
		return nil, mcmn.ErrUnexpectedEnd
	}
	values := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[2+i], 32)
		if err != nil {
			return nil, mcmn.NewErrInvalidArgument("vector object: bad value %q", fields[2+i])
		}
		values[i] = float32(f)
	}
	return NewVectorObject(values, m), nil
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sqrt(x float64) float64 { return math.Sqrt(x) }
