package main

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"github.com/kolkov/segkit/seg"
	"github.com/spf13/cobra"
)

const segctlVersion = "0.1.0"

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print segctl and module version information",
		RunE:  runVersion,
	}
	rootCmd.AddCommand(cmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := seg.GetInfo()

	modPath := "unknown (go.mod not found)"
	if root, err := findModuleRoot(); err == nil {
		if mp, err := moduleImportPath(root); err == nil {
			modPath = mp
		}
	}

	if jsonOut {
		return printJSON(map[string]string{
			"segctl":       segctlVersion,
			"seg":          info.Version,
			"module":       modPath,
			"granule_size": fmt.Sprintf("%d", info.GranuleSize),
		})
	}

	fmt.Printf("segctl %s\n", segctlVersion)
	fmt.Printf("  seg:          %s\n", info.Version)
	fmt.Printf("  module:       %s\n", modPath)
	fmt.Printf("  granule size: %d\n", info.GranuleSize)
	return nil
}

// findModuleRoot walks up from the working directory looking for the
// marker this module's go.mod sits above — internal/seg/segment — the
// same strategy the teacher's runtime.findProjectRoot uses to tell its
// own development tree apart from an installed copy of the package.
func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "internal", "seg", "segment")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("internal/seg/segment marker not found above %s", dir)
		}
		dir = parent
	}
}

// moduleImportPath reads and parses root's go.mod and returns its
// module path, the way runtime.extractReplaceDirectives parses go.mod
// with golang.org/x/mod/modfile rather than scanning it by hand.
func moduleImportPath(root string) (string, error) {
	path := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mf, err := modfile.Parse(path, data, nil)
	if err != nil {
		return "", err
	}
	return mf.Module.Mod.Path, nil
}
