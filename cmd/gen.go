package cmd

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/madc/lnk/internal/registry"
	"github.com/madc/lnk/internal/store"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate an unused random id",
	Long: `Generate a short random id that is not yet present in the registry.
The id is printed on stdout, ready for 'lnk add'.`,
	Args: cobra.NoArgs,
	RunE: runGen,
}

func init() {
	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, _ []string) error {
	links, err := store.New().Load(boundHandle())
	if err != nil {
		return err
	}

	id, err := generateID(links, randomHexID)
	if err != nil {
		return err
	}

	cmd.Println(id)
	return nil
}

// generateID draws candidate ids until one is free, giving up after 100
// attempts so a pathologically full registry cannot loop forever.
func generateID(links registry.Registry, draw func() string) (string, error) {
	for range 100 {
		id := draw()
		if _, taken := links[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free id found after 100 attempts")
}

// randomHexID returns a number below one million rendered in hex, which
// keeps generated ids at five characters or fewer.
func randomHexID() string {
	return fmt.Sprintf("%x", rand.IntN(1_000_000))
}
