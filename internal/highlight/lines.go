package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LineRange is a styled region within one line. Start and End are byte
// offsets into the line (End exclusive). Ranges within a line are sorted and
// non-overlapping; gaps render as plain text.
type LineRange struct {
	Start int
	End   int
	Style lipgloss.Style
}

// SplitLines projects buffer-level ranges onto the lines of src. The result
// has one entry per line (strings.Split(src, "\n")); newline bytes are never
// part of a range. ranges must be sorted by Start and non-overlapping, which
// Plan guarantees.
func SplitLines(src string, ranges []StyledRange) [][]LineRange {
	lines := strings.Split(src, "\n")
	out := make([][]LineRange, len(lines))

	ri := 0
	lineStart := 0
	for i, line := range lines {
		lineEnd := lineStart + len(line)
		for ri < len(ranges) && ranges[ri].End <= lineStart {
			ri++
		}
		for j := ri; j < len(ranges) && ranges[j].Start < lineEnd; j++ {
			r := ranges[j]
			start := max(r.Start, lineStart) - lineStart
			end := min(r.End, lineEnd) - lineStart
			if end > start {
				out[i] = append(out[i], LineRange{Start: start, End: end, Style: r.Style})
			}
		}
		lineStart = lineEnd + 1
	}
	return out
}

// RenderLine styles line with its ranges.
func RenderLine(line string, ranges []LineRange) string {
	if len(ranges) == 0 {
		return line
	}
	var sb strings.Builder
	pos := 0
	for _, r := range ranges {
		if r.Start > pos {
			sb.WriteString(line[pos:r.Start])
		}
		end := min(r.End, len(line))
		sb.WriteString(r.Style.Render(line[r.Start:end]))
		pos = end
	}
	if pos < len(line) {
		sb.WriteString(line[pos:])
	}
	return sb.String()
}

// Render returns src with the plan applied, line by line. Styling is
// applied per line because lipgloss pads multi-line blocks.
func Render(src string, plan []StyledRange) string {
	lines := strings.Split(src, "\n")
	perLine := SplitLines(src, plan)
	for i, line := range lines {
		lines[i] = RenderLine(line, perLine[i])
	}
	return strings.Join(lines, "\n")
}
