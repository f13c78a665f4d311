package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datatable/internal/core"
)

// Layout wraps content in the HTML page shell.
func Layout(title string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title><link rel="stylesheet" href="/static/datatable.css">`)
		h.raw(`<script src="/static/datatable.js" defer></script></head><body>`)
		h.raw(`<nav class="dt-nav"><a href="/">Tables</a></nav><main class="dt-main">`)
		h.component(content)
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// TableGroup is one group of registered tables on the index page.
type TableGroup struct {
	Name   string
	Tables []core.TableInfo
}

// TableList renders the registered tables grouped by source.
func TableList(groups []TableGroup) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<h1>Tables</h1>`)
		if len(groups) == 0 {
			h.raw(`<p class="dt-empty">No tables registered</p>`)
			return h.err
		}
		for _, g := range groups {
			h.raw(`<section class="dt-group"><h2>`)
			h.text(g.Name)
			h.raw(`</h2><ul>`)
			for _, t := range g.Tables {
				h.raw(`<li><a`)
				h.attr("href", string(templ.URL("/table/"+t.Key)))
				h.raw(`>`)
				h.text(t.Label)
				h.raw(`</a></li>`)
			}
			h.raw(`</ul></section>`)
		}
		return h.err
	})
}

// TablePage renders a full page around one widget.
func TablePage(info core.TableInfo, widget templ.Component) templ.Component {
	return Layout(info.Label, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<h1>`)
		h.text(info.Label)
		h.raw(`</h1>`)
		h.component(widget)
		return h.err
	}))
}

// ErrorAlert renders an error fragment with an action hint and support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<div class="dt-alert" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(`<span class="dt-alert-action">`)
			h.text(action)
			h.raw(`</span>`)
		}
		h.raw(`<code>`)
		h.text(code)
		h.raw(`</code></div>`)
		return h.err
	})
}
