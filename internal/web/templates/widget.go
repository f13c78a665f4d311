package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datatable/internal/core"
)

// CellFunc renders a custom cell. Columns whose Render field holds a
// CellFunc use it instead of the default cell markup.
type CellFunc func(cell core.Cell, row core.Row) templ.Component

// Widget renders one table session. It implements core.Renderer.
type Widget struct {
	SessionID      string
	SearchDebounce time.Duration
}

// RenderView draws v.
func (wd Widget) RenderView(ctx context.Context, w io.Writer, v core.View) error {
	return wd.Component(v).Render(ctx, w)
}

// Component returns the widget markup for v as a templ component.
func (wd Widget) Component(v core.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		wd.render(h, v)
		return h.err
	})
}

func (wd Widget) base() string {
	return "/api/sessions/" + wd.SessionID
}

func (wd Widget) render(h *htmlWriter, v core.View) {
	class := "dt"
	if v.Options.Bordered {
		class += " dt-bordered"
	}
	if v.Options.StickyHeader {
		class += " dt-sticky"
	}
	h.raw(`<div`)
	h.attr("id", "dt-"+wd.SessionID)
	h.attr("class", class)
	h.attr("data-base", wd.base())
	h.raw(`>`)

	wd.header(h, v)

	h.raw(`<div class="dt-scroll"`)
	if v.Loading {
		h.attr("aria-busy", "true")
	}
	if v.Options.ScrollY > 0 {
		h.attr("style", fmt.Sprintf("max-height:%dpx;overflow:auto", v.Options.ScrollY))
	} else if v.Options.ScrollX > 0 {
		h.attr("style", "overflow-x:auto")
	}
	h.raw(`>`)
	if v.Loading {
		h.raw(`<div class="dt-loading" role="status"><span class="dt-spinner"></span>Loading</div>`)
	}
	if v.Empty {
		h.raw(`<div class="dt-empty">No data</div>`)
	} else {
		wd.table(h, v)
	}
	h.raw(`</div>`)

	if !v.Empty && v.Page.Page > 0 {
		wd.pager(h, v)
	}
	h.raw(`</div>`)
}

func (wd Widget) header(h *htmlWriter, v core.View) {
	h.raw(`<div class="dt-header">`)
	if v.Options.Searchable {
		h.raw(`<input type="search" class="dt-search" placeholder="Search" autocomplete="off"`)
		h.attr("value", v.Search)
		h.attr("data-search-url", wd.base()+"/search")
		h.attrInt("data-debounce", int(wd.SearchDebounce/time.Millisecond))
		h.raw(`>`)
	}

	h.raw(`<div class="dt-tools">`)
	if v.ShowDeleteSelected {
		h.raw(`<span class="dt-selected">Rows Selected (`)
		h.text(strconv.Itoa(v.Selected))
		h.raw(` of `)
		h.text(strconv.Itoa(v.StoreSize))
		h.raw(`)</span><button type="button" class="dt-danger" title="Delete selected rows"`)
		h.attr("data-post", wd.base()+"/rows/delete-selected")
		h.raw(`>Delete</button>`)
	} else {
		wd.columnsForm(h, v)
		wd.filtersForm(h, v)
		h.raw(`<button type="button" class="dt-reload" title="Reload from the source" data-loading`)
		h.attr("data-post", wd.base()+"/reload")
		h.raw(`>Reload</button>`)
	}
	h.raw(`</div></div>`)
}

func (wd Widget) columnsForm(h *htmlWriter, v core.View) {
	h.raw(`<details class="dt-menu dt-columns"><summary>Columns</summary>`)
	h.raw(`<form`)
	h.attr("data-form-url", wd.base()+"/columns/visibility")
	h.raw(`><h3 title="Selected columns are hidden">Show / Hide Columns</h3>`)
	for _, c := range v.AllColumns {
		h.raw(`<label><input type="checkbox"`)
		h.attr("name", c.Key)
		h.flag("checked", c.DraftHidden)
		h.raw(`> `)
		h.text(c.Title)
		h.raw(`</label>`)
	}
	h.raw(`<div class="dt-actions"><button type="button"`)
	h.attr("data-post", wd.base()+"/columns/visibility/reset")
	h.raw(`>Reset</button><button type="submit">Apply</button></div></form></details>`)
}

func (wd Widget) filtersForm(h *htmlWriter, v core.View) {
	filterable := false
	for _, c := range v.AllColumns {
		if c.Filterable {
			filterable = true
			break
		}
	}
	if !filterable {
		return
	}

	h.raw(`<details class="dt-menu dt-filters"><summary>Filters</summary><form`)
	h.attr("data-form-url", wd.base()+"/filters")
	h.attr("data-omit-false", "true")
	h.raw(`><h3>Filters</h3>`)
	for _, c := range v.AllColumns {
		if !c.Filterable {
			continue
		}
		current := v.Filters[c.Key]
		switch c.Type {
		case core.TypeDate:
			// Dates have no filter predicate.
		case core.TypeBoolean:
			on, _ := current.Boolean()
			h.raw(`<label><input type="checkbox"`)
			h.attr("name", c.Key)
			h.flag("checked", on)
			h.raw(`> `)
			h.text(c.Title)
			h.raw(`</label>`)
		default:
			h.raw(`<label>`)
			h.text(c.Title)
			h.raw(`<input type="text"`)
			h.attr("name", c.Key)
			if !current.IsNull() {
				h.attr("value", current.String())
			}
			h.raw(`></label>`)
		}
	}
	h.raw(`<div class="dt-actions"><button type="button"`)
	h.attr("data-delete", wd.base()+"/filters")
	h.raw(`>Clear</button><button type="submit">Apply</button></div></form></details>`)
}

func (wd Widget) table(h *htmlWriter, v core.View) {
	h.raw(`<table class="dt-table"`)
	if v.Options.ScrollX > 0 {
		h.attr("style", fmt.Sprintf("min-width:%dpx", v.Options.ScrollX))
	}
	h.raw(`><thead><tr>`)

	if v.Options.Selectable {
		h.raw(`<th class="dt-check"><input type="checkbox" aria-label="Select all"`)
		h.attr("data-post", wd.base()+"/select-all")
		h.flag("checked", v.AllSelected)
		if v.Indeterminate {
			h.attr("data-indeterminate", "true")
		}
		h.raw(`></th>`)
	}

	for _, c := range v.Columns {
		h.raw(`<th`)
		h.attr("style", fmt.Sprintf("width:%dpx", c.Width))
		h.attr("data-column", c.Key)
		if c.Sortable {
			h.attr("class", "dt-sortable")
			h.attr("data-post", wd.base()+"/sort/"+c.Key)
			h.attr("aria-sort", ariaSort(c.Sort))
		}
		h.raw(`>`)
		h.text(c.Title)
		switch c.Sort {
		case core.SortAsc:
			h.raw(` <span class="dt-sort">&#9650;</span>`)
		case core.SortDesc:
			h.raw(` <span class="dt-sort">&#9660;</span>`)
		}
		if v.Options.Resizable && c.Resizable {
			h.raw(`<span class="dt-resize"`)
			h.attr("data-resize-url", wd.base()+"/columns/"+c.Key+"/resize")
			h.raw(`></span>`)
		}
		h.raw(`</th>`)
	}
	if v.Options.Deletable {
		h.raw(`<th class="dt-action">Action</th>`)
	}
	h.raw(`</tr></thead><tbody>`)

	for _, r := range v.Rows {
		wd.row(h, v, r)
	}
	h.raw(`</tbody></table>`)
}

func (wd Widget) row(h *htmlWriter, v core.View, r core.ViewRow) {
	h.raw(`<tr`)
	h.attr("data-row", r.ID)
	if r.Selected {
		h.attr("class", "dt-row-selected")
	}
	h.raw(`>`)

	if v.Options.Selectable {
		h.raw(`<td class="dt-check"><input type="checkbox" aria-label="Select row"`)
		h.attr("data-post", wd.base()+"/select/"+r.ID)
		h.flag("checked", r.Selected)
		h.raw(`></td>`)
	}

	for i, cell := range core.FormatRow(r.Row, v.Columns, v.Search) {
		h.raw(`<td>`)
		if fn, ok := v.Columns[i].Render.(CellFunc); ok {
			h.component(fn(cell, r.Row))
		} else {
			wd.cell(h, v.Options.Editable, r.ID, cell)
		}
		h.raw(`</td>`)
	}

	if v.Options.Deletable {
		h.raw(`<td class="dt-action"><button type="button" class="dt-danger"`)
		h.attr("data-delete", wd.base()+"/rows/"+r.ID)
		h.raw(`>Delete</button></td>`)
	}
	h.raw(`</tr>`)
}

func (wd Widget) cell(h *htmlWriter, editable bool, rowID string, c core.Cell) {
	switch c.Type {
	case core.TypeLink:
		if c.Href == "" {
			h.text(c.Text)
			return
		}
		h.raw(`<a class="dt-link"`)
		h.attr("href", string(templ.URL(c.Href)))
		if c.NewTab {
			h.raw(` target="_blank" rel="noopener noreferrer"`)
		}
		h.raw(`>`)
		if c.IconOnly {
			h.raw(`&#8599;`)
		} else {
			h.text(c.Text)
		}
		h.raw(`</a>`)
		return

	case core.TypeBoolean:
		b, ok := c.Value.Boolean()
		if editable {
			h.raw(`<input type="checkbox"`)
			h.attr("data-cell-url", wd.base()+"/cells")
			h.attr("data-row-id", rowID)
			h.attr("data-column", c.Key)
			h.flag("checked", ok && b)
			h.raw(`>`)
			return
		}
		if !ok {
			h.text(c.Text)
			return
		}
		class := "dt-badge dt-no"
		if b {
			class = "dt-badge dt-yes"
		}
		h.raw(`<span`)
		h.attr("class", class)
		h.raw(`>`)
		h.text(c.Text)
		h.raw(`</span>`)
		return
	}

	if editable {
		h.raw(`<span class="dt-editable" title="Double-click to edit"`)
		h.attr("data-edit-url", wd.base()+"/cells")
		h.attr("data-row-id", rowID)
		h.attr("data-column", c.Key)
		h.attr("data-type", c.Type.String())
		h.attr("data-value", editValue(c))
		h.raw(`>`)
		defer h.raw(`</span>`)
	}
	if len(c.Highlight) > 0 {
		for _, seg := range c.Highlight {
			if seg.Match {
				h.raw(`<mark>`)
				h.text(seg.Text)
				h.raw(`</mark>`)
			} else {
				h.text(seg.Text)
			}
		}
		return
	}
	h.text(c.Text)
}

func (wd Widget) pager(h *htmlWriter, v core.View) {
	p := v.Page
	h.raw(`<div class="dt-pager"><span class="dt-total">`)
	h.text(fmt.Sprintf("%d-%d of %d items", p.RangeStart, p.RangeEnd, p.Total))
	h.raw(`</span><nav class="dt-pages">`)

	wd.pageButton(h, "&#8249;", p.Page-1, !p.HasPrev(), false)
	for _, n := range pageWindow(p.Page, p.TotalPages) {
		if n == 0 {
			h.raw(`<span class="dt-ellipsis">&#8230;</span>`)
			continue
		}
		wd.pageButton(h, strconv.Itoa(n), n, false, n == p.Page)
	}
	wd.pageButton(h, "&#8250;", p.Page+1, !p.HasNext(), false)
	h.raw(`</nav>`)

	if v.Options.ShowSizeChanger && len(v.Options.PageSizeOptions) > 0 {
		h.raw(`<select class="dt-size" aria-label="Page size"`)
		h.attr("data-page-url", wd.base()+"/page")
		h.raw(`>`)
		for _, n := range v.Options.PageSizeOptions {
			h.raw(`<option`)
			h.attrInt("value", n)
			h.flag("selected", n == p.PageSize)
			h.raw(`>`)
			h.text(strconv.Itoa(n) + " / page")
			h.raw(`</option>`)
		}
		h.raw(`</select>`)
	}
	if v.Options.ShowQuickJumper {
		h.raw(`<label class="dt-jump">Go to <input type="number" min="1"`)
		h.attrInt("max", p.TotalPages)
		h.attr("data-page-url", wd.base()+"/page")
		h.raw(`></label>`)
	}
	h.raw(`</div>`)
}

// pageButton writes a pager button. label is trusted markup.
func (wd Widget) pageButton(h *htmlWriter, label string, page int, disabled, current bool) {
	h.raw(`<button type="button"`)
	if current {
		h.raw(` class="dt-current" aria-current="page"`)
	}
	h.flag("disabled", disabled)
	if !disabled && !current {
		h.attr("data-post", wd.base()+"/page")
		h.attr("data-body", fmt.Sprintf(`{"page":%d}`, page))
	}
	h.raw(`>`, label, `</button>`)
}

// pageWindow lists the page numbers to show; 0 marks an ellipsis.
func pageWindow(current, total int) []int {
	if total <= 7 {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	lo, hi := current-2, current+2
	if lo < 2 {
		lo, hi = 2, 5
	}
	if hi > total-1 {
		lo, hi = total-4, total-1
	}
	// An ellipsis never stands in for a single page.
	out := []int{1}
	switch {
	case lo == 3:
		out = append(out, 2)
	case lo > 3:
		out = append(out, 0)
	}
	for n := lo; n <= hi; n++ {
		out = append(out, n)
	}
	switch {
	case hi == total-2:
		out = append(out, total-1)
	case hi < total-2:
		out = append(out, 0)
	}
	return append(out, total)
}

func ariaSort(d core.SortDirection) string {
	switch d {
	case core.SortAsc:
		return "ascending"
	case core.SortDesc:
		return "descending"
	}
	return "none"
}

// editValue is the raw value offered in the edit prompt.
func editValue(c core.Cell) string {
	if c.Value.IsNull() {
		return ""
	}
	if t, ok := c.Value.Time(); ok {
		return t.Format("2006-01-02")
	}
	return c.Value.String()
}

// ComponentOf adapts a table and a renderer to a templ component, so a
// live table can be embedded in any page.
func ComponentOf(t *core.Table, r core.Renderer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.Render(ctx, w, r)
	})
}
