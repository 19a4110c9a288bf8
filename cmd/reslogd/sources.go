package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/reslog/internal/config"
	"github.com/Dicklesworthstone/reslog/internal/counter"
)

var (
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	offStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func newSourcesCommand(flagged *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Open every counter source once and print its current raw value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), *flagged)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			paths, err := resolvePaths(cfg, logger)
			if err != nil {
				return err
			}
			set, err := counter.OpenSet(paths, logger)
			if err != nil {
				return err
			}
			defer set.Close()
			printSources(cmd, set.All())
			return nil
		},
	}
}

func printSources(cmd *cobra.Command, sources []*counter.Source) {
	cell := func(s string, width int) string {
		return lipgloss.NewStyle().Width(width).Render(s)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headStyle.Render(cell("SOURCE", 14)+cell("KIND", 15)+cell("VALUE", 22)+"PATH"))
	for _, src := range sources {
		if !src.Enabled() {
			fmt.Fprintln(out, offStyle.Render(cell(src.Name, 14)+cell(src.Kind.String(), 15)+cell("-", 22)+"(disabled)"))
			continue
		}
		value := strconv.FormatUint(src.ReadInstant(), 10)
		fmt.Fprintln(out, cell(src.Name, 14)+cell(src.Kind.String(), 15)+cell(value, 22)+src.Path)
	}
}
