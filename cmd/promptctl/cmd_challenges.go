package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/promptarena-go-api/internal/catalog"
	"github.com/noah-isme/promptarena-go-api/internal/dto"
)

func newChallengesCommand(root *rootOptions) *cobra.Command {
	var (
		level  string
		module string
		format string
	)

	cmd := &cobra.Command{
		Use:     "challenges",
		Aliases: []string{"list"},
		Short:   "List catalog challenges",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := root.loadCatalog()
			if err != nil {
				return err
			}
			selected := filterEntries(entries, level, module)

			switch format {
			case "table":
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tLEVEL\tMODULE\tTITLE")
				for _, entry := range selected {
					_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", entry.ID, entry.Level, entry.ModuleType, entry.Title)
				}
				return w.Flush()
			case "json", "yaml":
				summaries := make([]dto.ChallengeSummary, 0, len(selected))
				for _, entry := range selected {
					model, err := entry.Model()
					if err != nil {
						return err
					}
					summaries = append(summaries, dto.NewChallengeSummary(model))
				}
				return writeResult(cmd.OutOrStdout(), format, summaries)
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
		},
	}

	cmd.Flags().StringVarP(&level, "level", "l", "", "Only show challenges of this level")
	cmd.Flags().StringVarP(&module, "module", "m", "", "Only show challenges of this module type")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")

	return cmd
}

func filterEntries(entries []catalog.Entry, level, module string) []catalog.Entry {
	level = strings.ToLower(strings.TrimSpace(level))
	module = strings.ToLower(strings.TrimSpace(module))

	selected := make([]catalog.Entry, 0, len(entries))
	for _, entry := range entries {
		if level != "" && entry.Level != level {
			continue
		}
		if module != "" && entry.ModuleType != module {
			continue
		}
		selected = append(selected, entry)
	}
	return selected
}
