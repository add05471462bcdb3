package seg_test

import (
	"fmt"

	"github.com/kolkov/segkit/seg"
)

// Example demonstrates allocating a segment, giving it a rank and a
// restricted summary, and observing the write shield come up.
func Example() {
	ar := seg.NewArena(seg.ArenaConfig{}, nil)
	pool := seg.NewPool(1)

	s, err := seg.Allocate(ar, pool, ar.Granularity())
	if err != nil {
		fmt.Println("allocate:", err)
		return
	}
	defer seg.Free(s)

	seg.SetRankAndSummary(s, seg.RankOf(seg.Exact), seg.RefUniversal)
	fmt.Println("universal summary shielded:", s.PM().Has(seg.Write))

	seg.SetSummary(s, seg.RefEmpty)
	fmt.Println("restricted summary shielded:", s.PM().Has(seg.Write))

	// Output:
	// universal summary shielded: false
	// restricted summary shielded: true
}

// Example_greyAndFlippedTraces demonstrates the read-barrier rule: a
// grey segment only needs its reads trapped once its trace has
// flipped.
func Example_greyAndFlippedTraces() {
	ar := seg.NewArena(seg.ArenaConfig{}, nil)
	pool := seg.NewPool(1)

	s, err := seg.Allocate(ar, pool, ar.Granularity())
	if err != nil {
		fmt.Println("allocate:", err)
		return
	}
	defer seg.Free(s)

	seg.SetRankSet(s, seg.RankOf(seg.Exact))
	seg.SetGrey(s, seg.TraceOf(0))
	fmt.Println("grey before flip, read shield needed:", s.SM().Has(seg.Read))

	ar.SetFlippedTraces(seg.TraceOf(0))
	seg.SetGrey(s, seg.TraceOf(0)) // re-evaluate against the now-flipped trace set
	fmt.Println("grey after flip, read shield needed:", s.SM().Has(seg.Read))

	// Output:
	// grey before flip, read shield needed: false
	// grey after flip, read shield needed: true
}

// Example_iteration demonstrates walking every live segment in an
// arena in address order.
func Example_iteration() {
	ar := seg.NewArena(seg.ArenaConfig{}, nil)
	pool := seg.NewPool(1)

	a, _ := seg.Allocate(ar, pool, ar.Granularity())
	b, _ := seg.Allocate(ar, pool, ar.Granularity())
	defer seg.Free(a)
	defer seg.Free(b)

	count := 0
	for cur, ok := seg.First(ar); ok; cur, ok = seg.Next(ar, cur) {
		count++
	}
	fmt.Println("segments:", count)

	// Output:
	// segments: 2
}
