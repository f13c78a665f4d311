// Package templates renders the table widget and pages as templ components.
//
// Components are plain templ.ComponentFunc values so they compose with any
// other templ.Component. All dynamic text goes through templ.EscapeString
// and every href through templ.URL.
package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// htmlWriter accumulates the first write error so markup code can stay flat.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

func (h *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// attr writes ` name="value"` with the value escaped.
func (h *htmlWriter) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

func (h *htmlWriter) attrInt(name string, n int) {
	h.raw(" ", name, `="`, strconv.Itoa(n), `"`)
}

// flag writes a boolean attribute when on is true.
func (h *htmlWriter) flag(name string, on bool) {
	if on {
		h.raw(" ", name)
	}
}

func (h *htmlWriter) component(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}
