// Package objid implements the metric-object kernel's identity and key
// types (spec §3, §4.1): 128-bit unique object/operation identifiers and
// the locator-URI key hierarchy attached to objects.
package objid

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// ID is a 128-bit identifier, totally ordered lexicographically over its
// two 64-bit halves (most-significant half first), used only for identity
// equality and tie-breaking in ranked answers (spec §3).
type ID [16]byte

// Nil is the zero identifier; never produced by NewID.
var Nil ID

// NewID returns a fresh random 128-bit identifier.
func NewID() ID {
	u := uuid.New()
	var id ID
	copy(id[:], u[:])
	return id
}

func (id ID) hi() uint64 { return binary.BigEndian.Uint64(id[0:8]) }
func (id ID) lo() uint64 { return binary.BigEndian.Uint64(id[8:16]) }

// Compare implements the total order: high half first, then low half.
// Returns -1, 0, or 1.
func Compare(a, b ID) int {
	if ah, bh := a.hi(), b.hi(); ah != bh {
		if ah < bh {
			return -1
		}
		return 1
	}
	if al, bl := a.lo(), b.lo(); al != bl {
		if al < bl {
			return -1
		}
		return 1
	}
	return 0
}

// Equal reports identity equality.
func Equal(a, b ID) bool { return a == b }

// Hash folds both 64-bit halves via XOR of their high/low 32-bit pieces,
// per spec §4.1.
func (id ID) Hash() uint32 {
	hi := id.hi()
	lo := id.lo()
	return uint32(hi>>32) ^ uint32(hi) ^ uint32(lo>>32) ^ uint32(lo)
}

func (id ID) String() string {
	var u uuid.UUID
	copy(u[:], id[:])
	return u.String()
}

func (id ID) IsNil() bool { return id == Nil }
