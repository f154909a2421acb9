package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// fitLines clips content to a width x rows cell grid, padding short lines
// and missing rows with spaces so the frame keeps a fixed size.
func fitLines(content string, width, rows int) []string {
	if width <= 0 || rows <= 0 {
		return nil
	}
	src := strings.Split(content, "\n")
	out := make([]string, 0, rows)
	for i := 0; i < rows; i++ {
		line := ""
		if i < len(src) {
			line = expandTabs(src[i])
		}
		out = append(out, padRight(clipLine(line, width), width))
	}
	return out
}

func clipLine(line string, width int) string {
	if runewidth.StringWidth(line) <= width {
		return line
	}
	return runewidth.Truncate(line, width, "…")
}

func padRight(line string, width int) string {
	gap := width - runewidth.StringWidth(line)
	if gap <= 0 {
		return line
	}
	return line + strings.Repeat(" ", gap)
}

func expandTabs(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := 4 - col%4
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}

// pulse renders the beat position within the measure.
func pulse(beat, perMeasure int, playing bool) string {
	if perMeasure <= 0 {
		return ""
	}
	marks := make([]string, perMeasure)
	for i := range marks {
		if playing && i == beat%perMeasure {
			marks[i] = beatOnStyle.Render("●")
			continue
		}
		marks[i] = beatOffStyle.Render("○")
	}
	return strings.Join(marks, " ")
}
