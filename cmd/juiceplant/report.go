package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/jzx17/juiceplant/pkg/factory"
)

var summaryHeader = table.Row{"Plant", "Workers", "Provided", "Processed", "Bottles", "Wasted", "Starved"}

func renderSummary(summary factory.Summary, style table.Style) string {
	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.AppendHeader(summaryHeader)

	workers := 0
	starved := 0
	for _, r := range summary.Plants {
		workers += len(r.PerWorker)
		starved += len(r.Starved())
		tw.AppendRow(table.Row{
			r.Name,
			len(r.PerWorker),
			r.Provided,
			r.Processed,
			r.Bottles,
			r.Wasted,
			len(r.Starved()),
		})
	}
	tw.AppendFooter(table.Row{
		"Total",
		workers,
		summary.Provided,
		summary.Processed,
		summary.Bottles,
		summary.Wasted,
		starved,
	})

	configs := make([]table.ColumnConfig, 0, len(summaryHeader))
	for i := range summaryHeader {
		align := text.AlignRight
		if i == 0 {
			align = text.AlignLeft
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// tableStyle uses box drawing on terminals and plain ASCII when piped
func tableStyle(w io.Writer) table.Style {
	if isTerminal(w) {
		return table.StyleRounded
	}
	return table.StyleDefault
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
