package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tabprompt/internal/model"
)

// formatTable lays rows out in space-separated columns sized to the widest
// cell. Columns in rightAlign are padded on the left.
func formatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlign))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlign))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlign map[int]bool) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = padCell(cell, width, rightAlign[i])
	}
	return strings.TrimRight(strings.Join(cells, "  "), " ")
}

func padCell(value string, width int, right bool) string {
	gap := width - runewidth.StringWidth(value)
	if gap <= 0 {
		return value
	}
	if right {
		return strings.Repeat(" ", gap) + value
	}
	return value + strings.Repeat(" ", gap)
}

func writeDocuments(w io.Writer, docs []model.Document) error {
	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		tempo := "-"
		if doc.HasTempo() {
			tempo = fmt.Sprintf("%d", doc.Tempo)
		}
		rows = append(rows, []string{doc.Title, doc.Artist, doc.Tuning, tempo})
	}
	for _, line := range formatTable([]string{"TITLE", "ARTIST", "TUNING", "BPM"}, rows, map[int]bool{3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
