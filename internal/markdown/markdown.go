// Package markdown renders assistant replies as styled terminal text.
package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

// Renderer wraps a glamour renderer for the current theme and width. It is
// rebuilt lazily when either changes.
type Renderer struct {
	width int
	dark  bool
	term  *glamour.TermRenderer
}

// New returns a renderer that wraps at width.
func New(width int, dark bool) *Renderer {
	return &Renderer{width: width, dark: dark}
}

// SetWidth changes the wrap width.
func (r *Renderer) SetWidth(width int) {
	if width != r.width {
		r.width = width
		r.term = nil
	}
}

// SetDark switches between the dark and light styles.
func (r *Renderer) SetDark(dark bool) {
	if dark != r.dark {
		r.dark = dark
		r.term = nil
	}
}

func (r *Renderer) style() string {
	if r.dark {
		return styles.DarkStyle
	}
	return styles.LightStyle
}

// Render converts markdown to terminal markup. On any renderer failure the
// source text is returned unchanged.
func (r *Renderer) Render(src string) (out string) {
	if strings.TrimSpace(src) == "" {
		return src
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = src
		}
	}()

	if r.term == nil {
		opts := []glamour.TermRendererOption{glamour.WithStandardStyle(r.style())}
		if r.width > 0 {
			opts = append(opts, glamour.WithWordWrap(r.width))
		}
		term, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return src
		}
		r.term = term
	}

	rendered, err := r.term.Render(src)
	if err != nil {
		return src
	}
	return strings.Trim(rendered, "\n")
}
