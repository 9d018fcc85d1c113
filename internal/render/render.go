// Package render draws ladders for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kjannette/trahn-ladder/internal/strategy"
)

var (
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	classColors = map[strategy.SpacingClass]lipgloss.Color{
		strategy.Small:  lipgloss.Color("42"),
		strategy.Medium: lipgloss.Color("39"),
		strategy.Large:  lipgloss.Color("213"),
	}
)

type column struct {
	title string
	width int
	left  bool
}

var columns = []column{
	{"type", 8, true},
	{"tier", 6, false},
	{"buy", 11, false},
	{"sell", 11, false},
	{"units", 9, false},
	{"amount", 12, false},
	{"profit", 10, false},
	{"return", 8, false},
	{"retained", 10, false},
}

func cell(c column, s string) string {
	st := lipgloss.NewStyle().Width(c.width)
	if c.left {
		st = st.Align(lipgloss.Left)
	} else {
		st = st.Align(lipgloss.Right)
	}
	return st.Render(s)
}

func row(values []string, style lipgloss.Style) string {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = cell(columns[i], v)
	}
	return style.Render(strings.Join(cells, " "))
}

// Ladder renders levels as a bordered table with a summary footer. Warnings
// are listed under the footer.
func Ladder(levels []strategy.GridLevel, p strategy.LadderParams, labels strategy.Labels, warnings []string) string {
	title := titleStyle.Render(fmt.Sprintf("GRID LADDER @ %s", formatPrice(p.Price)))
	if len(levels) == 0 {
		return borderStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No ladder levels."))
	}

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.title
	}

	lines := []string{row(headers, headerStyle)}
	for _, l := range levels {
		st := lipgloss.NewStyle().Foreground(classColors[l.Class])
		lines = append(lines, row([]string{
			labels.For(l.Class),
			fmt.Sprintf("%.3f", l.Tier),
			formatPrice(l.BuyPrice),
			formatPrice(l.SellPrice),
			fmt.Sprintf("%d", l.BuyUnits),
			fmt.Sprintf("%.2f", l.BuyAmount),
			fmt.Sprintf("%.2f", l.Profit),
			l.ReturnRateString,
			fmt.Sprintf("%.2f", l.RetainedProfit),
		}, st))
	}

	s := strategy.Summarize(levels)
	footer := footerStyle.Render(fmt.Sprintf(
		"%s %d  %s %d  %s %d │ capital %.2f │ profit %.2f │ retained %.2f",
		labels.For(strategy.Small), s.SmallLevels,
		labels.For(strategy.Medium), s.MediumLevels,
		labels.For(strategy.Large), s.LargeLevels,
		s.TotalBuyAmount, s.TotalProfit, s.TotalRetainedProfit,
	))

	sections := []string{title, strings.Join(lines, "\n"), "", footer}
	for _, w := range warnings {
		sections = append(sections, warnStyle.Render("! "+w))
	}
	return borderStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// formatPrice keeps four decimals for sub-unit prices and two otherwise.
func formatPrice(v float64) string {
	if v < 1 {
		return fmt.Sprintf("%.4f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
