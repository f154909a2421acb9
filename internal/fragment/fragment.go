// Package fragment splits document text into display-sized windows.
package fragment

import "strings"

// DefaultLinesPerWindow fits a 576x288 canvas at a ~14px line height.
const DefaultLinesPerWindow = 18

// breakSearchRatio bounds how far back from a greedy window end a blank line
// may pull the boundary.
const breakSearchRatio = 0.6

// Windows splits text into windows of at most linesPerWindow lines, preferring
// to break just after a blank line near the end of each window. Joining the
// result with "\n" reproduces text exactly. The result is never empty.
func Windows(text string, linesPerWindow int) []string {
	if linesPerWindow < 1 {
		linesPerWindow = 1
	}
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return []string{""}
	}

	windows := make([]string, 0, len(lines)/linesPerWindow+1)
	start := 0
	for start < len(lines) {
		end := min(start+linesPerWindow, len(lines))
		if end < len(lines) {
			if brk := blankLineBefore(lines, start, end, linesPerWindow); brk > start {
				end = brk + 1
			}
		}
		windows = append(windows, strings.Join(lines[start:end], "\n"))
		start = end
	}
	if len(windows) == 0 {
		return []string{""}
	}
	return windows
}

// blankLineBefore returns the index of the nearest whitespace-only line in
// [start+floor(n*0.6), end-1], scanning backward, or -1.
func blankLineBefore(lines []string, start, end, linesPerWindow int) int {
	from := max(start+int(float64(linesPerWindow)*breakSearchRatio), start+1)
	for i := end - 1; i >= from; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			return i
		}
	}
	return -1
}
