package yaml

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// Highlighter renders YAML with terminal colors.
type Highlighter struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

// NewHighlighter creates a [Highlighter] using the named chroma style. The
// formatter follows the color profile of the terminal; without color
// support the output is plain text.
func NewHighlighter(style string) *Highlighter {
	return NewHighlighterForProfile(style, termenv.ColorProfile())
}

// NewHighlighterForProfile creates a [Highlighter] for a specific color profile.
func NewHighlighterForProfile(style string, profile termenv.Profile) *Highlighter {
	formatterName := "noop"

	switch profile {
	case termenv.TrueColor:
		formatterName = "terminal16m"
	case termenv.ANSI256:
		formatterName = "terminal256"
	case termenv.ANSI:
		formatterName = "terminal8"
	case termenv.Ascii:
	}

	return &Highlighter{
		lexer:     chroma.Coalesce(lexers.Get("YAML")),
		formatter: formatters.Get(formatterName),
		style:     styles.Get(style),
	}
}

// Highlight returns src with syntax highlighting applied.
func (h *Highlighter) Highlight(src []byte) ([]byte, error) {
	it, err := h.lexer.Tokenise(nil, string(src))
	if err != nil {
		return nil, fmt.Errorf("tokenise yaml: %w", err)
	}

	var buf bytes.Buffer

	err = h.formatter.Format(&buf, h.style, it)
	if err != nil {
		return nil, fmt.Errorf("format yaml: %w", err)
	}

	return buf.Bytes(), nil
}
