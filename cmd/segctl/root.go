package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	granuleSize uint
	jsonOut     bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "segctl",
	Short: "Exercise the segment subsystem from the shell",
	Long: `segctl drives internal/seg/segment and internal/seg/arena through
a handful of focused scenarios: allocate, free, describe, validate, and
grey-set transitions. The subsystem has no persisted state of its own
(spec.md §6), so every command builds a fresh arena and pool, runs its
scenario, and prints what happened.`,
	Version: segctlVersion,
}

func init() {
	rootCmd.PersistentFlags().UintVar(&granuleSize, "granule-size", 0, "arena granule size in bytes (0 = host page size)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print each step of the scenario")
}

func printVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
