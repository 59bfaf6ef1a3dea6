// Package highlight turns a source buffer into classified tokens and paints
// them onto an editor surface.
//
// Tokens for a buffer always tile it: they are contiguous, non-overlapping,
// never empty, and cover byte offset 0 through len(src). The chroma lexer
// output is reconciled against the buffer so that anything chroma could not
// account for is still emitted, classified as Other.
package highlight

import (
	chroma "github.com/alecthomas/chroma/v2"
)

// Category is the display class of a token.
type Category int

const (
	Other Category = iota
	Keyword
	Comment
	String
	FunctionName
	Number
	Operator
	Name
	Punctuation
	Preprocessor
	Whitespace
)

var categoryNames = [...]string{
	Other:        "other",
	Keyword:      "keyword",
	Comment:      "comment",
	String:       "string",
	FunctionName: "function_name",
	Number:       "number",
	Operator:     "operator",
	Name:         "name",
	Punctuation:  "punctuation",
	Preprocessor: "preprocessor",
	Whitespace:   "whitespace",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "other"
	}
	return categoryNames[c]
}

// Token is a classified span of the buffer. Start and End are byte offsets,
// End exclusive, so src[Start:End] == Text.
type Token struct {
	Category Category
	Text     string
	Start    int
	End      int
}

// Len returns the token length in bytes.
func (t Token) Len() int {
	return t.End - t.Start
}

// categoryOf maps a chroma token type onto a display category.
// Order matters: preprocessor lines are in chroma's Comment category and
// function names are in its Name category.
func categoryOf(t chroma.TokenType) Category {
	switch {
	case t == chroma.Error:
		return Other
	case t == chroma.CommentPreproc || t == chroma.CommentPreprocFile:
		return Preprocessor
	case t == chroma.NameFunction || t == chroma.NameFunctionMagic:
		return FunctionName
	case t.InCategory(chroma.Keyword):
		return Keyword
	case t.InCategory(chroma.Comment):
		return Comment
	case t.InSubCategory(chroma.LiteralString):
		return String
	case t.InSubCategory(chroma.LiteralNumber):
		return Number
	case t.InCategory(chroma.Operator):
		return Operator
	case t.InCategory(chroma.Name):
		return Name
	case t.InCategory(chroma.Punctuation):
		return Punctuation
	case t == chroma.TextWhitespace:
		return Whitespace
	default:
		return Other
	}
}
