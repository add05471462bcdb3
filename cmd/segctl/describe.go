package main

import (
	"fmt"

	"github.com/kolkov/segkit/seg"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Allocate a segment, give it state, and print Describe()",
		RunE:  runDescribe,
	}
	rootCmd.AddCommand(cmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	ar := seg.NewArena(seg.ArenaConfig{GranuleSize: uintptr(granuleSize)}, nil)
	pool := seg.NewPool(1)

	s, err := seg.Allocate(ar, pool, 2*ar.Granularity())
	if err != nil {
		return fmt.Errorf("alloc: %w", err)
	}
	defer seg.Free(s)

	seg.SetRankAndSummary(s, seg.RankOf(seg.Exact), seg.RefEmpty)
	seg.SetGrey(s, seg.TraceOf(0))

	if jsonOut {
		return printJSON(map[string]string{"describe": seg.Describe(s)})
	}
	fmt.Println(seg.Describe(s))
	return nil
}
