package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madc/lnk/internal/registry"
	"github.com/madc/lnk/internal/store"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a link",
	Long: `Remove the link with the given id from the registry. Removing an id
that is not present succeeds without changing the file.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	id := args[0]

	if !registry.IsValidID(id) {
		return fmt.Errorf("%q: %w", id, registry.ErrInvalidID)
	}

	h := boundHandle()
	if h == nil {
		warnUnbound(cmd)
		return nil
	}

	s := store.New()
	return mutateWithDiff(cmd, h, func() error {
		return s.Remove(h, id)
	})
}
