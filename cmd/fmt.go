package cmd

import (
	"github.com/spf13/cobra"

	"github.com/madc/lnk/internal/store"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt",
	Short: "Rewrite the registry file in canonical form",
	Long: `Parse and re-serialize the registry file: drop malformed lines, strip
comments and blank lines, and restore the canonical sort order.`,
	Args: cobra.NoArgs,
	RunE: runFmt,
}

func init() {
	rootCmd.AddCommand(fmtCmd)
}

func runFmt(cmd *cobra.Command, _ []string) error {
	h := boundHandle()
	if h == nil {
		warnUnbound(cmd)
		return nil
	}

	s := store.New()
	return mutateWithDiff(cmd, h, func() error {
		return s.Normalize(h)
	})
}
