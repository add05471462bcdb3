package segment

import (
	"fmt"

	"github.com/kolkov/segkit/internal/seg/accessset"
	"github.com/kolkov/segkit/internal/seg/arena"
	"github.com/kolkov/segkit/internal/seg/rankset"
	"github.com/kolkov/segkit/internal/seg/refset"
	"github.com/kolkov/segkit/internal/seg/traceset"
)

// Generic is the contract both Segment and GCSeg satisfy. seg_of,
// first and next are defined in terms of it so they work across every
// class registered with an arena, not just one.
type Generic interface {
	Base() uintptr
	Limit() uintptr
	Size() uintptr
	Pool() arena.PoolRef
	RankSet() rankset.RankSet
	White() traceset.TraceSet
	Grey() traceset.TraceSet
	Nailed() traceset.TraceSet
	PM() accessset.AccessSet
	SM() accessset.AccessSet
	Depth() int
	SetGrey(traceset.TraceSet)
	SetWhite(traceset.TraceSet)
	SetRankSet(rankset.RankSet)
	Summary() refset.RefSet
	SetSummary(refset.RefSet)
	SetRankAndSummary(rankset.RankSet, refset.RefSet)
	Buffer() any
	SetBuffer(any)
	P() any
	SetP(any)
	Describe() string
}

// SegOf returns the segment covering addr, if any tract at that
// address is bound to one.
func SegOf(a *arena.Arena, addr uintptr) (Generic, bool) {
	t := a.TractOfAddr(addr)
	if t == nil || !t.HasSeg {
		return nil, false
	}
	g, ok := t.Seg.(Generic)
	return g, ok
}

// First returns the lowest-addressed segment in a, if one exists.
func First(a *arena.Arena) (Generic, bool) {
	t := a.TractFirst()
	for t != nil && !t.HasSeg {
		t = a.TractNext(t.Base)
	}
	if t == nil {
		return nil, false
	}
	g, ok := t.Seg.(Generic)
	return g, ok
}

// Next returns the segment immediately above cur, if one exists. It
// skips directly to cur's last tract before scanning forward, so it
// does not step through cur's own tracts one by one. Each TractNext
// call scans the whole tract map, so a full walk costs on the order of
// (segments × tracts), not time linear in the number of tracts.
func Next(a *arena.Arena, cur Generic) (Generic, bool) {
	granule := a.Granularity()
	addr := cur.Limit() - granule

	t := a.TractNext(addr)
	for t != nil {
		if t.HasSeg {
			if g, ok := t.Seg.(Generic); ok && g.Base() == t.Base {
				return g, true
			}
		}
		t = a.TractNext(t.Base)
	}
	return nil, false
}

// Validate checks the structural invariants that hold for every live
// segment regardless of class: a non-empty, granule-aligned address
// range; grey only nonempty while rank_set is nonempty; the shield
// mode always a subset of the protection mode (you cannot shield an
// access you haven't protected); and depth == 0 iff both modes are
// empty. The last check is safe to make unconditional, not just a
// finish-time assertion, because this repo's shield backends derive pm
// from sm directly (gcseg.go's setMode keeps them in lockstep and
// mirrors depth off the same transition) rather than from a separate
// expose/unexpose window this layer doesn't model.
func Validate(s Generic) error {
	if s.Base() >= s.Limit() {
		return fmt.Errorf("segment base %#x is not below limit %#x", s.Base(), s.Limit())
	}
	if s.RankSet().IsEmpty() && !s.Grey().IsEmpty() {
		return fmt.Errorf("segment at %#x has nonempty grey set with an empty rank set", s.Base())
	}
	if !s.SM().IsSubset(s.PM()) {
		return fmt.Errorf("segment at %#x has shield mode %s not a subset of protection mode %s", s.Base(), s.SM(), s.PM())
	}
	quiesced := s.SM() == accessset.Empty && s.PM() == accessset.Empty
	if (s.Depth() == 0) != quiesced {
		return fmt.Errorf("segment at %#x has depth=%d but sm=%s pm=%s", s.Base(), s.Depth(), s.SM(), s.PM())
	}
	return nil
}

func uintptrHex(p uintptr) string {
	return fmt.Sprintf("%#x", p)
}
