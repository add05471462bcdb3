package pool

import (
	"testing"

	"github.com/kolkov/segkit/internal/seg/greyring"
)

func TestPoolIDAndEmptyRing(t *testing.T) {
	p := New(7)
	if p.PoolID() != 7 {
		t.Fatalf("PoolID() = %d, want 7", p.PoolID())
	}
	if p.SegmentCount() != 0 {
		t.Fatalf("SegmentCount() = %d, want 0 on a fresh pool", p.SegmentCount())
	}
}

func TestPoolRingTracksAttachedLinks(t *testing.T) {
	p := New(1)

	var a, b greyring.Ring
	a.Init()
	b.Init()
	a.InsertAfter(&p.Ring)
	b.InsertAfter(&p.Ring)

	if p.SegmentCount() != 2 {
		t.Fatalf("SegmentCount() = %d, want 2", p.SegmentCount())
	}

	a.Remove()
	if p.SegmentCount() != 1 {
		t.Fatalf("SegmentCount() after Remove = %d, want 1", p.SegmentCount())
	}
}
