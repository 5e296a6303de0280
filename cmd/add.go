package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madc/lnk/internal/registry"
	"github.com/madc/lnk/internal/store"
)

var addCmd = &cobra.Command{
	Use:   "add <id> <url>",
	Short: "Add or replace a link",
	Long: `Add a link to the registry, or replace the existing link with the
same id. The entry's timestamp is set to the current time.

Ids may contain letters, digits, '_' and '-'. With --generate the id
is drawn at random instead of being given.

Example:
  lnk add shop https://shop.example.com -m "My shop"
  lnk add --generate https://shop.example.com`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAdd,
}

var (
	addComment  string
	addGenerate bool
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addComment, "comment", "m", "", "Free-text comment stored with the link")
	addCmd.Flags().BoolVar(&addGenerate, "generate", false, "Generate a random unused id instead of giving one")
}

func runAdd(cmd *cobra.Command, args []string) error {
	id, url, err := addArgs(cmd, args)
	if err != nil {
		return err
	}

	if !registry.IsValidID(id) {
		return fmt.Errorf("%q: %w", id, registry.ErrInvalidID)
	}
	if !registry.IsValidURL(url) {
		return fmt.Errorf("%q: %w", url, registry.ErrInvalidURL)
	}

	h := boundHandle()
	if h == nil {
		warnUnbound(cmd)
		return nil
	}

	s := store.New()
	return mutateWithDiff(cmd, h, func() error {
		return s.Upsert(h, id, registry.LinkRecord{URL: url, Comment: addComment})
	})
}

// addArgs resolves the id/url pair, drawing a fresh id when --generate
// is set.
func addArgs(cmd *cobra.Command, args []string) (id, url string, err error) {
	if !addGenerate {
		if len(args) != 2 {
			return "", "", fmt.Errorf("expected <id> <url>, got %d arguments", len(args))
		}
		return args[0], args[1], nil
	}

	if len(args) != 1 {
		return "", "", fmt.Errorf("--generate takes only <url>")
	}
	links, err := store.New().Load(boundHandle())
	if err != nil {
		return "", "", err
	}
	id, err = generateID(links, randomHexID)
	if err != nil {
		return "", "", err
	}
	cmd.Println(id)
	return id, args[0], nil
}
