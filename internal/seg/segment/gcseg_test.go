package segment

import (
	"testing"

	"github.com/kolkov/segkit/internal/seg/arena"
	"github.com/kolkov/segkit/internal/seg/accessset"
	poolpkg "github.com/kolkov/segkit/internal/seg/pool"
	"github.com/kolkov/segkit/internal/seg/rankset"
	"github.com/kolkov/segkit/internal/seg/refset"
	"github.com/kolkov/segkit/internal/seg/shield"
	"github.com/kolkov/segkit/internal/seg/traceset"
)

func newGCArena(t *testing.T) (*arena.Arena, *shield.SimulatedShield, *poolpkg.Pool) {
	t.Helper()
	a := arena.New(arena.DefaultConfig())
	return a, shield.NewSimulatedShield(), poolpkg.New(1)
}

func TestAllocateGCAttachesPoolLink(t *testing.T) {
	a, sh, p := newGCArena(t)
	seg, err := AllocateGC(a, sh, p, 4*a.Granularity())
	if err != nil {
		t.Fatalf("AllocateGC: %v", err)
	}
	if p.SegmentCount() != 1 {
		t.Fatalf("pool segment count = %d, want 1", p.SegmentCount())
	}

	FreeGC(seg)
	if p.SegmentCount() != 0 {
		t.Fatalf("pool segment count after free = %d, want 0", p.SegmentCount())
	}
}

func TestSetRankAndSummaryRaisesWriteShield(t *testing.T) {
	a, sh, p := newGCArena(t)
	seg, err := AllocateGC(a, sh, p, a.Granularity())
	if err != nil {
		t.Fatalf("AllocateGC: %v", err)
	}

	seg.SetRankAndSummary(rankset.Of(rankset.Exact), refset.Universal)
	if seg.SM() != accessset.Empty {
		t.Fatalf("sm = %s, want empty: a universal summary needs no write shield", seg.SM())
	}

	seg.SetSummary(refset.Empty)
	if !seg.SM().Has(accessset.Write) {
		t.Fatalf("sm = %s, want write: a nonempty rank set with a non-universal summary needs the write shield", seg.SM())
	}
	if !sh.Barred(seg.Base()).Has(accessset.Write) {
		t.Fatalf("shield backend was not told to raise the write barrier")
	}

	seg.SetRankAndSummary(rankset.Empty, refset.Empty)
	if seg.SM().Has(accessset.Write) {
		t.Fatalf("sm = %s, want no write: clearing rank_set must drop the write shield", seg.SM())
	}
}

func TestSetGreyRaisesReadShieldOnlyWhenFlipped(t *testing.T) {
	a, sh, p := newGCArena(t)
	seg, err := AllocateGC(a, sh, p, a.Granularity())
	if err != nil {
		t.Fatalf("AllocateGC: %v", err)
	}
	seg.SetRankAndSummary(rankset.Of(rankset.Exact), refset.Empty)

	seg.SetGrey(traceset.Of(2))
	if seg.SM().Has(accessset.Read) {
		t.Fatalf("read shield raised before its trace flipped")
	}

	a.SetFlippedTraces(traceset.Of(2))
	seg.SetGrey(traceset.Of(2))
	if !seg.SM().Has(accessset.Read) {
		t.Fatalf("read shield not raised once grey overlaps a flipped trace")
	}
	if !seg.greyLink.IsAttached() {
		t.Fatalf("grey_link not attached while grey is nonempty")
	}

	seg.SetGrey(traceset.Empty)
	if seg.SM().Has(accessset.Read) {
		t.Fatalf("read shield still raised after grey cleared")
	}
	if seg.greyLink.IsAttached() {
		t.Fatalf("grey_link still attached after grey cleared")
	}
}

func TestFreeGCRequiresQuiescedInvariants(t *testing.T) {
	a, sh, p := newGCArena(t)
	seg, err := AllocateGC(a, sh, p, a.Granularity())
	if err != nil {
		t.Fatalf("AllocateGC: %v", err)
	}
	seg.SetRankAndSummary(rankset.Of(rankset.Exact), refset.Empty) // raises the write shield
	seg.SetRankAndSummary(rankset.Empty, refset.Empty)             // lowers it again before free

	FreeGC(seg) // must not panic: depth, sm and pm are all back to empty
}

func TestFreeGCLowersShieldStillRaised(t *testing.T) {
	a, sh, p := newGCArena(t)
	seg, err := AllocateGC(a, sh, p, a.Granularity())
	if err != nil {
		t.Fatalf("AllocateGC: %v", err)
	}
	seg.SetRankAndSummary(rankset.Of(rankset.Exact), refset.Empty) // leaves the write shield raised
	base := seg.Base()                                             // read before FreeGC invalidates the signature

	FreeGC(seg) // Free itself must lower sm/pm/depth to quiesced, not just assert they already are
	if sh.Barred(base).Has(accessset.Write) {
		t.Fatalf("write barrier still raised on the shield backend after Free")
	}
}

func TestFreeGCDetachesGreyLinkStillGrey(t *testing.T) {
	a, sh, p := newGCArena(t)
	seg, err := AllocateGC(a, sh, p, a.Granularity())
	if err != nil {
		t.Fatalf("AllocateGC: %v", err)
	}
	seg.SetRankAndSummary(rankset.Of(rankset.Exact), refset.Empty)
	seg.SetGrey(traceset.Of(0)) // leaves the segment grey and on the grey ring

	FreeGC(seg) // Finish must detach grey_link itself rather than require it already detached
	if seg.greyLink.IsAttached() {
		t.Fatalf("grey_link still attached after Free")
	}
}

func TestValidateOnGCSeg(t *testing.T) {
	a, sh, p := newGCArena(t)
	seg, err := AllocateGC(a, sh, p, a.Granularity())
	if err != nil {
		t.Fatalf("AllocateGC: %v", err)
	}
	seg.SetRankAndSummary(rankset.Of(rankset.Exact), refset.Empty)

	if err := Validate(seg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
