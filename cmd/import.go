package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/madc/lnk/internal/registry"
	"github.com/madc/lnk/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Merge another registry file into this one",
	Long: `Parse a registry file (or stdin, when the path is '-') and merge
every valid entry into the bound registry. Imported entries overwrite
existing entries with the same id; malformed lines in the source are
skipped.

Example:
  lnk import backup.txt
  pbpaste | lnk import -`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := readImportSource(cmd, args[0])
	if err != nil {
		return err
	}

	src := registry.NewCodec().Parse(data)
	if len(src) == 0 {
		return fmt.Errorf("no valid entries in %s", args[0])
	}

	h := boundHandle()
	if h == nil {
		warnUnbound(cmd)
		return nil
	}

	s := store.New()
	if err := mutateWithDiff(cmd, h, func() error {
		return s.Import(h, src)
	}); err != nil {
		return err
	}

	cmd.Printf("imported %d entries\n", len(src))
	return nil
}

func readImportSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied import path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
