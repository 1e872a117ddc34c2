package operation

import (
	"math"
	"sort"
	"sync"

	"github.com/messif/metrickernel/mstats"
	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/objid"
)

// entry is one ⟨distance, object⟩ pair held by a RankingAnswer.
type entry struct {
	dist float32
	obj  object.LocalObject
}

// RankingAnswer is a capacity-k ordered multiset keyed on ⟨distance,
// object_id⟩ (spec §4.5). Insertion is serialized by an internal lock, so
// concurrent query workers (C8 batch k-NN) can share one answer safely.
type RankingAnswer struct {
	mu       sync.Mutex
	k        int
	entries  []entry // kept sorted ascending by (dist, id)
	opID     string   // for mstats gauge labels; empty disables publishing
}

// NewRankingAnswer builds an answer with capacity k. k<=0 means
// unbounded (used by range queries, which cap only by radius).
func NewRankingAnswer(k int) *RankingAnswer {
	return &RankingAnswer{k: k}
}

func (a *RankingAnswer) SetOpID(id string) { a.opID = id }

func (a *RankingAnswer) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// KthDistance returns the current worst (capacity-limiting) distance, or
// distance.Max if the answer hasn't reached capacity yet.
func (a *RankingAnswer) KthDistance() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.kthDistanceLocked()
}

func (a *RankingAnswer) kthDistanceLocked() float32 {
	if a.k > 0 && len(a.entries) >= a.k {
		return a.entries[a.k-1].dist
	}
	return math.MaxFloat32
}

func less(a entry, b entry) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return objid.Compare(a.obj.ID(), b.obj.ID()) < 0
}

// Offer attempts to insert obj at distance d, applying the capacity and
// tie-break rules of spec §4.5:
//   - size < k: always insert.
//   - size == k and d < current k-th: insert, then drop everything past
//     position k.
//   - tie-break on equal d: compare object identity.
//
// Returns true if the candidate was kept (even if later truncated out by
// a still-better arrival is impossible since truncation only drops the
// worst entries).
func (a *RankingAnswer) Offer(d float32, obj object.LocalObject) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.k > 0 && len(a.entries) >= a.k {
		kth := a.entries[a.k-1].dist
		if !(d < kth) {
			return false
		}
	}
	e := entry{dist: d, obj: obj}
	idx := sort.Search(len(a.entries), func(i int) bool { return !less(a.entries[i], e) })
	a.entries = append(a.entries, entry{})
	copy(a.entries[idx+1:], a.entries[idx:])
	a.entries[idx] = e

	if a.k > 0 && len(a.entries) > a.k {
		a.entries = a.entries[:a.k]
	}
	if a.opID != "" {
		mstats.SetAnswer(a.opID, len(a.entries), float64(a.kthDistanceLocked()))
	}
	return true
}

// Items returns the answer's current contents in ascending distance
// order.
func (a *RankingAnswer) Items() []struct {
	Distance float32
	Object   object.LocalObject
} {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]struct {
		Distance float32
		Object   object.LocalObject
	}, len(a.entries))
	for i, e := range a.entries {
		out[i] = struct {
			Distance float32
			Object   object.LocalObject
		}{e.dist, e.obj}
	}
	return out
}

// UpdateFrom merges other's entries into a, respecting capacity (spec
// §4.5).
func (a *RankingAnswer) UpdateFrom(other *RankingAnswer) {
	for _, e := range other.Items() {
		a.Offer(e.Distance, e.Object)
	}
}

// SingletonAnswer holds zero or one result with its distance (spec §4.5).
type SingletonAnswer struct {
	mu   sync.Mutex
	has  bool
	dist float32
	obj  object.LocalObject
}

func (s *SingletonAnswer) Set(d float32, obj object.LocalObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.has && d >= s.dist {
		return
	}
	s.has, s.dist, s.obj = true, d, obj
}

func (s *SingletonAnswer) Get() (float32, object.LocalObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dist, s.obj, s.has
}
