package highlight

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the configurable category colors. An empty color leaves the
// category in the default style.
type Theme struct {
	Keyword      string `mapstructure:"keyword" yaml:"keyword"`
	Comment      string `mapstructure:"comment" yaml:"comment"`
	String       string `mapstructure:"string" yaml:"string"`
	FunctionName string `mapstructure:"function_name" yaml:"function_name"`
}

// DefaultTheme returns the stock colors: orange keywords, cyan function
// names, green comments and yellow strings.
func DefaultTheme() Theme {
	return Theme{
		Keyword:      "#FFA500",
		Comment:      "#00A000",
		String:       "#FFFF00",
		FunctionName: "#00FFFF",
	}
}

// StyledRange is one entry of a paint plan: a buffer byte range and the
// style to draw it with.
type StyledRange struct {
	Start    int
	End      int
	Category Category
	Style    lipgloss.Style
}

// Surface is anything that can display styled buffer ranges.
type Surface interface {
	// ClearStyles drops every range applied so far.
	ClearStyles()
	// ApplyStyle styles the buffer bytes [start, end).
	ApplyStyle(start, end int, category Category, style lipgloss.Style)
}

// Painter maps token categories to styles.
type Painter struct {
	styles map[Category]lipgloss.Style
}

// NewPainter creates a painter for the given theme.
func NewPainter(theme Theme) *Painter {
	p := &Painter{styles: make(map[Category]lipgloss.Style, 4)}
	p.set(Keyword, theme.Keyword)
	p.set(Comment, theme.Comment)
	p.set(String, theme.String)
	p.set(FunctionName, theme.FunctionName)
	return p
}

func (p *Painter) set(c Category, color string) {
	if color == "" {
		return
	}
	p.styles[c] = lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		TabWidth(lipgloss.NoTabConversion)
}

// Style returns the style for c and whether the theme maps it.
func (p *Painter) Style(c Category) (lipgloss.Style, bool) {
	s, ok := p.styles[c]
	return s, ok
}

// Plan returns the styled ranges for tokens, in buffer order. Tokens whose
// category is unmapped are left out; they render in the default style.
func (p *Painter) Plan(tokens []Token) []StyledRange {
	var plan []StyledRange
	for _, t := range tokens {
		style, ok := p.Style(t.Category)
		if !ok || t.Len() == 0 {
			continue
		}
		plan = append(plan, StyledRange{
			Start:    t.Start,
			End:      t.End,
			Category: t.Category,
			Style:    style,
		})
	}
	return plan
}

// Paint clears the surface and applies the plan for tokens.
func (p *Painter) Paint(s Surface, tokens []Token) []StyledRange {
	plan := p.Plan(tokens)
	Apply(s, plan)
	return plan
}

// Apply clears s and applies plan. Applying the same plan again leaves s in
// the same state.
func Apply(s Surface, plan []StyledRange) {
	s.ClearStyles()
	for _, r := range plan {
		s.ApplyStyle(r.Start, r.End, r.Category, r.Style)
	}
}
