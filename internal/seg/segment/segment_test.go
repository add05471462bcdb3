package segment

import (
	"testing"

	"github.com/kolkov/segkit/internal/seg/arena"
	"github.com/kolkov/segkit/internal/seg/rankset"
	"github.com/kolkov/segkit/internal/seg/shield"
)

type fakePool struct{ id uint64 }

func (p *fakePool) PoolID() uint64 { return p.id }

func newArena(t *testing.T) (*arena.Arena, *shield.SimulatedShield) {
	t.Helper()
	return arena.New(arena.DefaultConfig()), shield.NewSimulatedShield()
}

func TestAllocateBindsTractsAndFreeUnbinds(t *testing.T) {
	a, sh := newArena(t)
	size := 4 * a.Granularity()

	seg, err := Allocate(a, sh, SegClass, &fakePool{id: 1}, size)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if seg.Size() != size {
		t.Fatalf("Size() = %d, want %d", seg.Size(), size)
	}

	for addr := seg.Base(); addr < seg.Limit(); addr += a.Granularity() {
		tr := a.TractOfAddr(addr)
		if tr == nil || !tr.HasSeg || tr.Seg.(*Segment) != seg {
			t.Fatalf("tract at %#x not bound to the allocated segment", addr)
		}
	}

	base, limit := seg.Base(), seg.Limit() // read before Free invalidates the signature
	Free(seg)
	for addr := base; addr < limit; addr += a.Granularity() {
		tr := a.TractOfAddr(addr)
		if tr != nil && tr.HasSeg {
			t.Fatalf("tract at %#x still bound after Free", addr)
		}
	}
}

func TestAllocateRejectsMisalignedSize(t *testing.T) {
	a, sh := newArena(t)
	if _, err := Allocate(a, sh, SegClass, &fakePool{id: 1}, a.Granularity()+1); err == nil {
		t.Fatalf("expected an error for a non-granule-aligned size")
	}
}

func TestSummaryNotReachedOnBaseClass(t *testing.T) {
	a, sh := newArena(t)
	seg, err := Allocate(a, sh, SegClass, &fakePool{id: 1}, a.Granularity())
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("Summary() on a base Segment should have panicked as not-reached")
		}
	}()
	seg.Summary()
}

func TestSetRankSetRejectsNonSingleton(t *testing.T) {
	a, sh := newArena(t)
	seg, err := Allocate(a, sh, SegClass, &fakePool{id: 1}, a.Granularity())
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("SetRankSet with two ranks set should have panicked")
		}
	}()
	seg.SetRankSet(rankset.Of(rankset.Exact) | rankset.Of(rankset.Weak))
}

func TestSegOfFirstNextWalkTracts(t *testing.T) {
	a, sh := newArena(t)
	s1, _ := Allocate(a, sh, SegClass, &fakePool{id: 1}, 2*a.Granularity())
	s2, _ := Allocate(a, sh, SegClass, &fakePool{id: 1}, a.Granularity())

	found, ok := SegOf(a, s1.Base())
	if !ok || found.Base() != s1.Base() {
		t.Fatalf("SegOf(s1.Base()) did not find s1")
	}
	found, ok = SegOf(a, s1.Base()+a.Granularity())
	if !ok || found.Base() != s1.Base() {
		t.Fatalf("SegOf on s1's second tract should still resolve to s1")
	}

	first, ok := First(a)
	if !ok {
		t.Fatalf("First() found nothing")
	}
	var bases []uintptr
	for cur, ok := first, true; ok; cur, ok = Next(a, cur) {
		bases = append(bases, cur.Base())
	}
	if len(bases) != 2 || bases[0] != s1.Base() || bases[1] != s2.Base() {
		t.Fatalf("walk = %v, want [%#x %#x]", bases, s1.Base(), s2.Base())
	}
}

func TestValidatePassesOnFreshSegment(t *testing.T) {
	a, sh := newArena(t)
	seg, _ := Allocate(a, sh, SegClass, &fakePool{id: 1}, a.Granularity())
	if err := Validate(seg); err != nil {
		t.Fatalf("Validate on a freshly allocated segment: %v", err)
	}
}
