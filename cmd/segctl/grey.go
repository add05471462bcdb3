package main

import (
	"fmt"

	"github.com/kolkov/segkit/seg"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "grey",
		Short: "Show the read shield coming up only once a grey trace flips",
		Long: `grey exercises I7: a segment grey for a trace that hasn't flipped
carries no read barrier; once the trace flips, the same grey set raises
the read shield.`,
		RunE: runGrey,
	}
	rootCmd.AddCommand(cmd)
}

func runGrey(cmd *cobra.Command, args []string) error {
	ar := seg.NewArena(seg.ArenaConfig{GranuleSize: uintptr(granuleSize)}, nil)
	pool := seg.NewPool(1)

	s, err := seg.Allocate(ar, pool, ar.Granularity())
	if err != nil {
		return fmt.Errorf("alloc: %w", err)
	}
	defer seg.Free(s)

	seg.SetRankSet(s, seg.RankOf(seg.Exact))
	seg.SetGrey(s, seg.TraceOf(0))
	fmt.Println(seg.Describe(s))

	printVerbose("flipping trace 0\n")
	ar.SetFlippedTraces(seg.TraceOf(0))
	seg.SetGrey(s, seg.TraceOf(0)) // re-trigger the read-shield check against the new flipped set

	fmt.Println(seg.Describe(s))
	return nil
}
