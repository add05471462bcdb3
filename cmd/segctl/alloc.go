package main

import (
	"fmt"

	"github.com/kolkov/segkit/seg"
	"github.com/spf13/cobra"
)

var allocGranules uint

func init() {
	cmd := &cobra.Command{
		Use:   "alloc",
		Short: "Allocate a segment, describe it, then free it",
		Long: `alloc builds a fresh arena and pool, allocates one segment of
--granules granules, prints its state, then frees it — the round trip
spec.md §8's "Round-trip allocation" property test exercises.

Example:
  segctl alloc --granules 4`,
		RunE: runAlloc,
	}
	cmd.Flags().UintVar(&allocGranules, "granules", 1, "segment size, in arena granules")
	rootCmd.AddCommand(cmd)
}

func runAlloc(cmd *cobra.Command, args []string) error {
	ar := seg.NewArena(seg.ArenaConfig{GranuleSize: uintptr(granuleSize)}, nil)
	pool := seg.NewPool(1)

	size := uintptr(allocGranules) * ar.Granularity()
	printVerbose("allocating %d bytes (%d granules)\n", size, allocGranules)

	s, err := seg.Allocate(ar, pool, size)
	if err != nil {
		return fmt.Errorf("alloc: %w", err)
	}

	result := struct {
		Base  string  `json:"base"`
		Limit string  `json:"limit"`
		Size  uintptr `json:"size"`
		Pool  int     `json:"pool_segment_count"`
	}{
		Base:  fmt.Sprintf("%#x", s.Base()),
		Limit: fmt.Sprintf("%#x", s.Limit()),
		Size:  s.Size(),
		Pool:  pool.SegmentCount(),
	}

	if jsonOut {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		fmt.Printf("allocated: base=%s limit=%s size=%d pool_segments=%d\n",
			result.Base, result.Limit, result.Size, result.Pool)
	}

	printVerbose("freeing segment\n")
	seg.Free(s)
	fmt.Printf("freed: pool_segments=%d\n", pool.SegmentCount())
	return nil
}
