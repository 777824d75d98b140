package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// NewRosterCommand creates the roster command.
func NewRosterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "roster [canonical-name]",
		Short: "Show the character roster",
		Long: `Without arguments, list every canonical character name. With a name,
list the variations that are mapped to it.

Any other text is run through the roster and its canonical name shown.

Example:
  agvn roster
  agvn roster Seraphina
  agvn roster "Princess Seraphina Elara Aethelgard"`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runRoster(rootOpts, name, cmd)
		},
	}
}

// rosterEntry is the JSON payload of the roster command for one name.
type rosterEntry struct {
	Input      string   `json:"input"`
	Canonical  string   `json:"canonical"`
	Variations []string `json:"variations"`
}

func runRoster(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	table, err := opts.roster()
	if err != nil {
		return err
	}

	if name == "" {
		canonicals := table.Canonicals()
		return formatter.Render(canonicals, func(w io.Writer) {
			heading(w, "=== Characters ===")
			for _, c := range canonicals {
				fmt.Fprintln(w, c)
			}
		})
	}

	canonical := table.Normalize(name)
	entry := rosterEntry{Input: name, Canonical: canonical, Variations: table.Variations(canonical)}
	return formatter.Render(entry, func(w io.Writer) {
		if canonical != name {
			fmt.Fprintf(w, "%s -> %s\n", name, canonical)
		}
		if len(entry.Variations) == 0 {
			warningStyle.Fprintf(w, "%s is not in the roster\n", canonical)
			return
		}
		heading(w, "=== Variations of %s ===", canonical)
		fmt.Fprintln(w, strings.Join(entry.Variations, "\n"))
	})
}
