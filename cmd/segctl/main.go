// Command segctl drives the segment subsystem from the shell: it runs
// self-contained allocate/free/describe/validate/grey scenarios against
// a fresh in-process arena, since the subsystem itself keeps no
// persisted state across process runs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
