package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/madc/lnk/internal/store"
)

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// printDiff renders a line diff of a registry mutation, colorizing
// additions and removals.
func printDiff(cmd *cobra.Command, before, after []byte) {
	diff := store.Diff(before, after)
	if strings.TrimSpace(diff) == "" {
		cmd.Println(subtleStyle.Render("(no changes)"))
		return
	}
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			cmd.Println(addedStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			cmd.Println(removedStyle.Render(line))
		default:
			cmd.Println(line)
		}
	}
}

// mutateWithDiff snapshots the file around a mutation and prints the
// resulting diff. The snapshot reads are best-effort; a diff is a
// courtesy, not part of the mutation.
func mutateWithDiff(cmd *cobra.Command, h store.Handle, mutate func() error) error {
	before, _ := h.ReadBytes()
	if err := mutate(); err != nil {
		return err
	}
	after, _ := h.ReadBytes()
	printDiff(cmd, before, after)
	return nil
}
