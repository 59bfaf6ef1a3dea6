// Package overlay draws a box on top of an already rendered screen, keeping
// the styling of both.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position specifies where the foreground goes.
type Position int

const (
	Center Position = iota
	Bottom
)

// Place splices fg into bg, a screen of width x height cells. The background
// is padded to the full height first. Bottom placement leaves padY rows below
// the box.
func Place(width, height int, pos Position, padY int, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < height {
		bgLines = append(bgLines, strings.Repeat(" ", width))
	}

	x := max((width-lipgloss.Width(fg))/2, 0)
	y := max((height-len(fgLines))/2, 0)
	if pos == Bottom {
		y = max(height-len(fgLines)-padY, 0)
	}

	for i, line := range fgLines {
		if y+i >= len(bgLines) {
			break
		}
		bgLines[y+i] = splice(bgLines[y+i], line, x)
	}
	return strings.Join(bgLines, "\n")
}

// splice replaces the cells of bg starting at column x with fg.
func splice(bg, fg string, x int) string {
	left := ansi.Truncate(bg, x, "")
	if w := ansi.StringWidth(left); w < x {
		left += strings.Repeat(" ", x-w)
	}
	end := x + ansi.StringWidth(fg)
	var right string
	if end < ansi.StringWidth(bg) {
		right = ansi.TruncateLeft(bg, end, "")
	}
	return left + fg + right
}
