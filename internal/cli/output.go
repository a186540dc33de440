package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"
	"github.com/sahilm/fuzzy"
	"golang.org/x/term"

	"github.com/macropower/dictamen/pkg/report"
	"github.com/macropower/dictamen/pkg/yaml"
)

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatText = "text"

	highlightStyle = "dracula"
)

var AllOutputFormats = []string{FormatYAML, FormatJSON, FormatText}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownBlock is returned for a block ID that the report does not define.
	ErrUnknownBlock = errors.New("unknown block")
)

// renderedReport is the document written by the yaml and json formats.
type renderedReport struct {
	Report      string               `json:"report"                yaml:"report"`
	Count       int                  `json:"count"                 yaml:"count"`
	Blocks      map[string]string    `json:"blocks"                yaml:"blocks"`
	Diagnostics []*report.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func newRenderedReport(out *report.Output, ids []string) renderedReport {
	doc := renderedReport{
		Report:      out.Report,
		Count:       out.Count,
		Blocks:      out.Blocks,
		Diagnostics: out.Diagnostics,
	}

	if len(ids) > 0 {
		doc.Blocks = make(map[string]string, len(ids))
		for _, id := range ids {
			doc.Blocks[id] = out.Blocks[id]
		}
	}

	return doc
}

// writeOutput writes out to w in format. YAML is highlighted when w is a
// terminal; text is wrapped to width, or to the terminal width when width is
// zero.
func writeOutput(w io.Writer, out *report.Output, ids []string, format string, width int) error {
	var (
		b   []byte
		err error
	)

	switch format {
	case FormatText:
		text := out.Text(ids...)
		if width == 0 {
			width = terminalWidth(w)
		}

		if width > 0 {
			text = wordwrap.String(text, width)
		}

		b = []byte(text + "\n")

	case FormatJSON:
		b, err = json.MarshalIndent(newRenderedReport(out, ids), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}

		b = append(b, '\n')

	case FormatYAML:
		b, err = yaml.Marshal(newRenderedReport(out, ids))
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}

		if isTerminal(w) {
			b, err = yaml.NewHighlighter(highlightStyle).Highlight(b)
			if err != nil {
				return fmt.Errorf("highlight: %w", err)
			}
		}

	default:
		return fmt.Errorf("%w: output format %q, want one of %s", ErrInvalidArgument, format, AllOutputFormats)
	}

	_, err = w.Write(b)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

// writeDiagnostics writes one line per diagnostic to w.
func writeDiagnostics(w io.Writer, diags []*report.Diagnostic) {
	for _, d := range diags {
		switch {
		case d.Block == "":
			mustN(fmt.Fprintf(w, "warning: %s\n", d.Message))
		case d.Instance > 0:
			mustN(fmt.Fprintf(w, "warning: block %s, %s instance: %s\n",
				d.Block, humanize.Ordinal(d.Instance), d.Message))
		default:
			mustN(fmt.Fprintf(w, "warning: block %s: %s\n", d.Block, d.Message))
		}
	}
}

// checkBlocks returns an error for the first of ids that is not in known,
// suggesting the closest known IDs.
func checkBlocks(ids, known []string) error {
	for _, id := range ids {
		if slices.Contains(known, id) {
			continue
		}

		matches := fuzzy.Find(id, known)
		if len(matches) == 0 {
			return fmt.Errorf("%w %q", ErrUnknownBlock, id)
		}

		suggestions := make([]string, 0, 3)
		for _, m := range matches[:min(3, len(matches))] {
			suggestions = append(suggestions, m.Str)
		}

		return fmt.Errorf("%w %q, did you mean: %s", ErrUnknownBlock, id, strings.Join(suggestions, ", "))
	}

	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}

	return width
}
