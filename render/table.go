// Package render draws readings as a terminal table.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joeecarter/heart-readings-server/reading"
)

var (
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Muted       = lipgloss.Color("#8a94a6")
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	sepStyle    = lipgloss.NewStyle().Foreground(Muted)
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
)

var headers = []string{"Date", "Time", "HR", "ECG", "BP", "Notes"}

// BadgeStyle colors an ECG label by its badge.
func BadgeStyle(b reading.Badge) lipgloss.Style {
	switch b {
	case reading.BadgeDefault:
		return cellStyle.Foreground(Success)
	case reading.BadgeSecondary:
		return cellStyle.Foreground(Warning)
	case reading.BadgeDestructive:
		return cellStyle.Foreground(Destructive).Bold(true)
	default:
		return cellStyle.Foreground(Muted)
	}
}

// Readings renders readings in the given order under a title.
func Readings(title string, readings []*reading.Reading) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(titleStyle.Render(title))
		sb.WriteString("\n")
	}
	if len(readings) == 0 {
		sb.WriteString(sepStyle.Render("No readings found."))
		sb.WriteString("\n")
		return sb.String()
	}

	rows := make([][]string, len(readings))
	for i, r := range readings {
		rows[i] = []string{
			reading.FormatDate(r.Date),
			r.Date.Format("15:04"),
			strconv.Itoa(r.HeartRate),
			r.ECGType.Label(),
			fmt.Sprintf("%d/%d", r.Systolic, r.Diastolic),
			r.NoteText(),
		}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	// cell padding
	total := len(headers) - 1
	for i := range widths {
		widths[i] += 2
		total += widths[i]
	}

	writeRow(&sb, headers, widths, func(int) lipgloss.Style { return headerStyle })
	sb.WriteString(sepStyle.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for i, row := range rows {
		badge := BadgeStyle(readings[i].ECGType.Badge())
		writeRow(&sb, row, widths, func(col int) lipgloss.Style {
			if col == 3 {
				return badge
			}
			return cellStyle
		})
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string, widths []int, style func(col int) lipgloss.Style) {
	for i, cell := range cells {
		sb.WriteString(style(i).Width(widths[i]).Render(cell))
		if i < len(cells)-1 {
			sb.WriteString(sepStyle.Render("|"))
		}
	}
	sb.WriteString("\n")
}
