package highlight

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestSplitLines_SingleLine(t *testing.T) {
	style := lipgloss.NewStyle()
	got := SplitLines("int x", []StyledRange{{Start: 0, End: 3, Style: style}})

	require.Len(t, got, 1)
	require.Equal(t, []LineRange{{Start: 0, End: 3, Style: style}}, got[0])
}

func TestSplitLines_RangeSpanningLines(t *testing.T) {
	// "/* a\nb */" is one comment range over two lines.
	src := "/* a\nb */\nx"
	style := lipgloss.NewStyle()
	got := SplitLines(src, []StyledRange{{Start: 0, End: 9, Style: style}})

	require.Len(t, got, 3)
	require.Equal(t, []LineRange{{Start: 0, End: 4, Style: style}}, got[0])
	require.Equal(t, []LineRange{{Start: 0, End: 4, Style: style}}, got[1])
	require.Empty(t, got[2])
}

func TestSplitLines_NewlineOnlyRangeIsDropped(t *testing.T) {
	src := "a\n\nb"
	got := SplitLines(src, []StyledRange{{Start: 1, End: 3}})

	require.Len(t, got, 3)
	require.Empty(t, got[0])
	require.Empty(t, got[1])
	require.Empty(t, got[2])
}

func TestSplitLines_MultipleRangesPerLine(t *testing.T) {
	src := "ab cd\nef"
	got := SplitLines(src, []StyledRange{
		{Start: 0, End: 2},
		{Start: 3, End: 5},
		{Start: 6, End: 8},
	})

	require.Equal(t, []LineRange{{Start: 0, End: 2}, {Start: 3, End: 5}}, got[0])
	require.Equal(t, []LineRange{{Start: 0, End: 2}}, got[1])
}

func TestRenderLine_NoRanges(t *testing.T) {
	require.Equal(t, "plain", RenderLine("plain", nil))
}

func TestRenderLine_KeepsGaps(t *testing.T) {
	got := RenderLine("a b c", []LineRange{{Start: 2, End: 3, Style: lipgloss.NewStyle()}})
	require.Equal(t, "a b c", got)
}
