package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lox/freebet/internal/strategy"
	"github.com/muesli/termenv"
)

// StrategyCmd prints a basic strategy chart
type StrategyCmd struct {
	Variant string `short:"V" enum:"standard,free" default:"free" help:"Chart to print (standard or free)"`
	NoColor bool   `help:"Disable colours"`
}

var actionColors = map[strategy.Action]lipgloss.Color{
	strategy.Hit:    lipgloss.Color("9"),
	strategy.Stand:  lipgloss.Color("10"),
	strategy.Double: lipgloss.Color("11"),
	strategy.Split:  lipgloss.Color("14"),
}

func (c *StrategyCmd) Run(g *Globals) error {
	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	chart := strategy.For(c.Variant == "free")
	return printChart(os.Stdout, chart)
}

func printChart(w io.Writer, chart *strategy.Table) error {
	title := lipgloss.NewStyle().Bold(true)
	if _, err := fmt.Fprintln(w, title.Render(fmt.Sprintf("Basic strategy: %s", chart.Name()))); err != nil {
		return err
	}
	for _, c := range []strategy.Category{strategy.Hard, strategy.Soft, strategy.Pairs} {
		if _, err := fmt.Fprintf(w, "\n%s\n%s\n", title.Render(c.String()), renderRows(chart.Rows(c))); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "\nH hit, S stand, D double, P split")
	return err
}

func renderRows(rows []strategy.Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{""}, strategy.DealerColumns[:]...)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow || col == 0 || row < 0 || row >= len(rows) {
				return style.Bold(true)
			}
			return style.Foreground(actionColors[rows[row].Actions[col-1]])
		})
	for _, r := range rows {
		line := []string{r.Label}
		for _, a := range r.Actions {
			line = append(line, a.String())
		}
		t.Row(line...)
	}
	return t.Render()
}
