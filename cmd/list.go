package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/madc/lnk/internal/registry"
	"github.com/madc/lnk/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry entries",
	Long: `List all registry entries in canonical order.

Output formats:
  table  aligned columns for humans (default)
  tsv    the on-disk registry format
  json   machine-readable array
  yaml   machine-readable sequence

With --full-urls each id is shown as a complete short link composed
from base_url.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listOutput   string
	listFullURLs bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, tsv, json or yaml")
	listCmd.Flags().BoolVar(&listFullURLs, "full-urls", false, "Show ids as full short links composed from base_url")
}

// listEntry is the export shape for json/yaml output.
type listEntry struct {
	ID        string    `json:"id" yaml:"id"`
	URL       string    `json:"url" yaml:"url"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	Comment   string    `json:"comment,omitempty" yaml:"comment,omitempty"`
}

func runList(cmd *cobra.Command, _ []string) error {
	links, err := store.New().Load(boundHandle())
	if err != nil {
		return err
	}

	entries := make([]listEntry, 0, len(links))
	for _, id := range links.SortedIDs() {
		rec := links[id]
		entries = append(entries, listEntry{
			ID:        displayID(id),
			URL:       rec.URL,
			UpdatedAt: rec.UpdatedAt.UTC(),
			Comment:   rec.Comment,
		})
	}

	switch listOutput {
	case "table":
		renderTable(cmd, entries)
	case "tsv":
		cmd.Println(string(registry.NewCodec().Serialize(links)))
	case "json":
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
	case "yaml":
		out, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		cmd.Print(string(out))
	default:
		return fmt.Errorf("unknown output format %q", listOutput)
	}
	return nil
}

// displayID composes a full short link when --full-urls is set and a
// base_url is configured.
func displayID(id string) string {
	if !listFullURLs || cfg.BaseURL == "" {
		return id
	}
	return strings.TrimSuffix(cfg.BaseURL, "/") + "/" + id
}

func renderTable(cmd *cobra.Command, entries []listEntry) {
	if len(entries) == 0 {
		cmd.Println(subtleStyle.Render("(empty registry)"))
		return
	}

	idWidth, urlWidth := len("ID"), len("URL")
	for _, e := range entries {
		idWidth = max(idWidth, len(e.ID))
		urlWidth = max(urlWidth, len(e.URL))
	}

	cmd.Println(headerStyle.Render(fmt.Sprintf("%-*s  %-*s  %-24s  %s",
		idWidth, "ID", urlWidth, "URL", "UPDATED", "COMMENT")))
	for _, e := range entries {
		cmd.Printf("%-*s  %-*s  %-24s  %s\n",
			idWidth, e.ID,
			urlWidth, e.URL,
			e.UpdatedAt.Format(registry.TimeLayout),
			subtleStyle.Render(e.Comment))
	}
}
