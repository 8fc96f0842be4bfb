package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxCellWidth = 72

var (
	headerColor  = color.New(color.Bold, color.Underline)
	titleColor   = color.New(color.FgCyan, color.Bold)
	virtualColor = color.New(color.Faint)
	okColor      = color.New(color.FgGreen)
	badColor     = color.New(color.FgRed, color.Bold)
	titler       = cases.Title(language.English)
)

// table выравнивает колонки по ширине в терминальных ячейках.
type table struct {
	header []string
	rows   [][]string
}

func newTable(header ...string) *table {
	h := make([]string, len(header))
	for i, c := range header {
		h[i] = titler.String(c)
	}
	return &table{header: h}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) error {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i := range row {
			if i >= len(widths) {
				break
			}
			row[i] = truncate(row[i], maxCellWidth)
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}
	if err := t.line(w, t.header, widths, headerColor); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := t.line(w, row, widths, nil); err != nil {
			return err
		}
	}
	return nil
}

func (t *table) line(w io.Writer, cells []string, widths []int, c *color.Color) error {
	var sb strings.Builder
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		if i > 0 {
			sb.WriteString("  ")
		}
		padded := cell
		if i < len(cells)-1 {
			padded = runewidth.FillRight(cell, widths[i])
		}
		if c != nil {
			// краска после выравнивания, escape-коды не считаются в ширину
			padded = c.Sprint(padded)
		}
		sb.WriteString(padded)
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

func truncate(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

func title(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintln(w, titleColor.Sprintf(format, args...))
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
