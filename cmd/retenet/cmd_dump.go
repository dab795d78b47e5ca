package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"retenet/internal/config"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Compile the rule and fact files and print the network",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		compiled, err := buildNetwork(cfg)
		if err != nil {
			return err
		}

		var md strings.Builder
		fmt.Fprintf(&md, "# retenet dump\n\n")
		fmt.Fprintf(&md, "| production | matches |\n|---|---|\n")
		counts := compiled.matchCounts()
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&md, "| %s | %d |\n", name, counts[name])
		}
		fmt.Fprintf(&md, "\n```dot\n%s\n```\n", compiled.net.Dump())

		rendered, err := glamour.Render(md.String(), "dark")
		if err != nil {
			// Fall back to unrendered Markdown rather than failing the
			// whole command over a terminal-rendering concern.
			fmt.Print(md.String())
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}
