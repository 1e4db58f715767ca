package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/carledger/internal/model"
)

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(Active.Text).Align(lipgloss.Center)
}

func headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(Active.Accent)
}

func valueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Active.Text)
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Active.TextMuted)
}

func dimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Active.TextDim)
}

// StatusColor returns the theme color for a consumable status.
func StatusColor(s model.Status) lipgloss.Color {
	switch s {
	case model.StatusCritical:
		return Active.Red
	case model.StatusWarning:
		return Active.Orange
	default:
		return Active.Green
	}
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Active.Border).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle().Render(title))
}

// RenderMuted renders secondary text such as hints and range labels.
func RenderMuted(s string) string {
	return mutedStyle().Render(s)
}

// RenderTable renders a bordered table with headers and rows. A row holding
// the single cell "---" renders as a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			if w := lipgloss.Width(h); w > widths[i] {
				widths[i] = w
			}
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols && lipgloss.Width(cell) > widths[i] {
					widths[i] = lipgloss.Width(cell)
				}
			}
		}
	}

	dim := dimStyle()
	var b strings.Builder
	rule := func(left, mid, right string) {
		b.WriteString(dim.Render(left))
		for i, w := range widths {
			b.WriteString(dim.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dim.Render(mid))
			}
		}
		b.WriteString(dim.Render(right))
		b.WriteString("\n")
	}

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle().Render(t.Title))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")

	if len(t.Headers) > 0 {
		b.WriteString(dim.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle().Render(" " + padRight(h, widths[i]) + " "))
			if i < numCols-1 {
				b.WriteString(dim.Render("│"))
			}
		}
		b.WriteString(dim.Render("│"))
		b.WriteString("\n")
		rule("├", "┼", "┤")
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}

		b.WriteString(dim.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			// Right-align numeric columns (all except first)
			var padded string
			if i == 0 {
				padded = " " + padRight(cell, widths[i]) + " "
			} else {
				padded = " " + padLeft(cell, widths[i]) + " "
			}
			b.WriteString(valueStyle().Render(padded))
			if i < numCols-1 {
				b.WriteString(dim.Render("│"))
			}
		}
		b.WriteString(dim.Render("│"))
		b.WriteString("\n")
	}

	rule("╰", "┴", "╯")
	return b.String()
}

// padRight and padLeft pad by display width so multi-byte symbols align.
func padRight(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func padLeft(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return strings.Repeat(" ", n) + s
	}
	return s
}

// RenderGauge renders a consumable's wear as a progress bar colored by status.
func RenderGauge(info model.StatusInfo, width int) string {
	bar := progress.New(
		progress.WithSolidFill(string(StatusColor(info.Status))),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(Active.TextDim)

	label := lipgloss.NewStyle().Foreground(StatusColor(info.Status)).Bold(true).
		Render(fmt.Sprintf("%3.0f%%", info.Progress*100))
	return bar.ViewAs(info.Progress) + " " + label
}

// RenderProgressBar renders a simple text progress bar.
func RenderProgressBar(current, total int, width int) string {
	if total <= 0 {
		return ""
	}

	pct := float64(current) / float64(total)
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s/%s",
		mutedStyle().Render(bar),
		FormatNumber(int64(current)),
		FormatNumber(int64(total)),
	)
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// RenderHorizontalBar renders one labeled bar chart entry.
func RenderHorizontalBar(label string, labelWidth int, value, maxValue float64, maxWidth int) string {
	barLen := 0
	if maxValue > 0 {
		barLen = int(value / maxValue * float64(maxWidth))
	}
	if barLen < 0 {
		barLen = 0
	}
	bar := lipgloss.NewStyle().Foreground(Active.Blue).Render(strings.Repeat("█", barLen))
	return fmt.Sprintf("  %s %s %s", padRight(label, labelWidth), bar, FormatCost(value))
}
