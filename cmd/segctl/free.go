package main

import (
	"fmt"

	"github.com/kolkov/segkit/seg"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "free",
		Short: "Free a segment while its write shield is still raised",
		Long: `free demonstrates that Free lowers an outstanding shield itself —
a caller does not have to clear rank_set and summary before calling it.
A segment is allocated, given a rank and a restricted summary (raising
the write shield), then freed directly.`,
		RunE: runFree,
	}
	rootCmd.AddCommand(cmd)
}

func runFree(cmd *cobra.Command, args []string) error {
	ar := seg.NewArena(seg.ArenaConfig{GranuleSize: uintptr(granuleSize)}, nil)
	pool := seg.NewPool(1)

	s, err := seg.Allocate(ar, pool, ar.Granularity())
	if err != nil {
		return fmt.Errorf("alloc: %w", err)
	}

	seg.SetRankAndSummary(s, seg.RankOf(seg.Exact), seg.RefEmpty)
	printVerbose("write shield raised before free\n")

	seg.Free(s) // must not panic: Free lowers the shield itself
	fmt.Println("freed while write-shielded: ok")
	return nil
}
