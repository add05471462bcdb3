package main

import (
	"fmt"

	"github.com/kolkov/segkit/seg"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run Validate after each step of a rank/summary/grey sequence",
		Long: `validate walks the same scenario spec.md §8's concrete end-to-end
test describes: allocate, set rank and a universal summary, restrict the
summary, go grey, clear grey, then clear rank and summary — calling
Validate after every step and reporting the first violation, if any.`,
		RunE: runValidate,
	}
	rootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ar := seg.NewArena(seg.ArenaConfig{GranuleSize: uintptr(granuleSize)}, nil)
	pool := seg.NewPool(1)

	s, err := seg.Allocate(ar, pool, ar.Granularity())
	if err != nil {
		return fmt.Errorf("alloc: %w", err)
	}
	defer seg.Free(s)

	check := func(step string) error {
		err := seg.Validate(s)
		if err != nil {
			fmt.Printf("%-32s FAIL: %v\n", step, err)
			return err
		}
		fmt.Printf("%-32s ok\n", step)
		return nil
	}

	if err := check("after allocate"); err != nil {
		return err
	}

	seg.SetRankAndSummary(s, seg.RankOf(seg.Exact), seg.RefUniversal)
	if err := check("rank=exact summary=universal"); err != nil {
		return err
	}

	seg.SetSummary(s, seg.RefEmpty)
	if err := check("summary restricted"); err != nil {
		return err
	}

	ar.SetFlippedTraces(seg.TraceOf(0))
	seg.SetGrey(s, seg.TraceOf(0))
	if err := check("grey, trace flipped"); err != nil {
		return err
	}

	seg.SetGrey(s, seg.TraceOf(0).Remove(0))
	if err := check("grey cleared"); err != nil {
		return err
	}

	seg.SetRankAndSummary(s, 0, seg.RefEmpty)
	return check("rank and summary cleared")
}
