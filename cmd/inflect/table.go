package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var styles = struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	sep    lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
}{
	title:  lipgloss.NewStyle().Bold(true),
	header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
	cell:   lipgloss.NewStyle().Padding(0, 1),
	sep:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	good:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
}

// table renders rows of plain strings with aligned columns.
type table struct {
	title   string
	headers []string
	rows    [][]string
}

func newTable(title string, headers ...string) *table {
	return &table{title: title, headers: headers}
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if i < len(widths) && lipgloss.Width(c) > widths[i] {
				widths[i] = lipgloss.Width(c)
			}
		}
	}
	// Width includes padding
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(styles.title.Render(t.title))
		sb.WriteString("\n")
	}
	line := func(style lipgloss.Style, cells []string) {
		for i := range widths {
			var c string
			if i < len(cells) {
				c = cells[i]
			}
			sb.WriteString(style.Width(widths[i]).Render(c))
			if i < len(widths)-1 {
				sb.WriteString(styles.sep.Render("|"))
			}
		}
		sb.WriteString("\n")
	}
	line(styles.header, t.headers)
	for i, w := range widths {
		sb.WriteString(styles.sep.Render(strings.Repeat("-", w)))
		if i < len(widths)-1 {
			sb.WriteString(styles.sep.Render("+"))
		}
	}
	sb.WriteString("\n")
	for _, row := range t.rows {
		line(styles.cell, row)
	}
	return sb.String()
}
