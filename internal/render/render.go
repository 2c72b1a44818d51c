package render

import (
	"bytes"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/term"
)

const (
	defaultWidth = 100
	maxWidth     = 120
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// HTML converts markdown into HTML. Raw HTML in the source is omitted.
func HTML(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(source, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TerminalOptions control terminal rendering.
type TerminalOptions struct {
	// Width wraps output. Zero uses the terminal width, capped at 120.
	Width int
	// Plain disables colors, e.g. when output is piped.
	Plain bool
}

// Terminal renders markdown for display in a terminal.
func Terminal(source string, opts TerminalOptions) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = TerminalWidth(os.Stdout)
	}

	style := "dracula"
	profile := termenv.ANSI256
	if opts.Plain {
		style = "notty"
		profile = termenv.Ascii
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(profile),
	)
	if err != nil {
		return "", err
	}
	return r.Render(source)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the usable width of f, falling back to 100 columns
// when f is not a terminal.
func TerminalWidth(f *os.File) int {
	if !IsTerminal(f) {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	if w > maxWidth {
		return maxWidth
	}
	return w
}
