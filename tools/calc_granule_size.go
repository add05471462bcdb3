//go:build ignore
// +build ignore

// This tool reports the host's page size, the value arena.DefaultConfig
// uses as its granule size. Run with: go run tools/calc_granule_size.go
package main

import (
	"fmt"
	"os"
	"runtime"
)

func main() {
	page := os.Getpagesize()

	fmt.Printf("OS: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("page size: %d bytes\n", page)
	fmt.Printf("\narena.Config.GranuleSize defaults to this value when left at zero.\n")
	fmt.Printf("a 64MiB default arena holds %d granules.\n", (1<<26)/page)
}
