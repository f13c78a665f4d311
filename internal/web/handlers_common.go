package web

// This file contains shared request decoding and view responses used
// across handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/web/templates"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// decodeJSON decodes the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// widget returns the renderer for a session.
func (s *Server) widget(sess *Session) templates.Widget {
	return templates.Widget{
		SessionID:      sess.ID,
		SearchDebounce: s.cfg.Table.SearchDebounce,
	}
}

// respondView answers with the widget partial for HTMX requests and the
// JSON view otherwise.
func (s *Server) respondView(w http.ResponseWriter, r *http.Request, sess *Session) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := sess.Table.Render(r.Context(), w, s.widget(sess)); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(sess, sess.Table.View()))
}

// viewResponse is the JSON form of a core.View.
type viewResponse struct {
	SessionID string `json:"session_id"`
	Table     string `json:"table"`
	Revision  string `json:"revision"`

	Columns []columnJSON `json:"columns"`
	Rows    []rowJSON    `json:"rows"`
	Page    pageJSON     `json:"page"`

	Search  string         `json:"search"`
	Filters map[string]any `json:"filters"`
	Sort    sortJSON       `json:"sort"`

	StoreSize          int  `json:"store_size"`
	Selected           int  `json:"selected"`
	AllSelected        bool `json:"all_selected"`
	Indeterminate      bool `json:"indeterminate"`
	Empty              bool `json:"empty"`
	ShowDeleteSelected bool `json:"show_delete_selected"`
	Loading            bool `json:"loading"`
}

type columnJSON struct {
	Key        string `json:"key"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Width      int    `json:"width"`
	Sort       string `json:"sort,omitempty"`
	Sortable   bool   `json:"sortable"`
	Filterable bool   `json:"filterable"`
	Resizable  bool   `json:"resizable"`
}

type rowJSON struct {
	ID       string            `json:"id"`
	Selected bool              `json:"selected"`
	Values   map[string]any    `json:"values"`
	Display  map[string]string `json:"display"`
}

type pageJSON struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	RangeStart int `json:"range_start"`
	RangeEnd   int `json:"range_end"`
}

type sortJSON struct {
	Column    string `json:"column,omitempty"`
	Direction string `json:"direction,omitempty"`
}

func newViewResponse(sess *Session, v core.View) viewResponse {
	resp := viewResponse{
		SessionID: sess.ID,
		Table:     sess.TableKey,
		Revision:  sess.Table.Revision(),
		Columns:   make([]columnJSON, len(v.Columns)),
		Rows:      make([]rowJSON, len(v.Rows)),
		Page: pageJSON{
			Page:       v.Page.Page,
			PageSize:   v.Page.PageSize,
			Total:      v.Page.Total,
			TotalPages: v.Page.TotalPages,
			RangeStart: v.Page.RangeStart,
			RangeEnd:   v.Page.RangeEnd,
		},
		Search:             v.Search,
		Filters:            make(map[string]any, len(v.Filters)),
		Sort:               sortJSON{Column: v.Sort.Column, Direction: string(v.Sort.Direction)},
		StoreSize:          v.StoreSize,
		Selected:           v.Selected,
		AllSelected:        v.AllSelected,
		Indeterminate:      v.Indeterminate,
		Empty:              v.Empty,
		ShowDeleteSelected: v.ShowDeleteSelected,
		Loading:            v.Loading,
	}
	for i, c := range v.Columns {
		resp.Columns[i] = columnJSON{
			Key:        c.Key,
			Title:      c.Title,
			Type:       c.Type.String(),
			Width:      c.Width,
			Sort:       string(c.Sort),
			Sortable:   c.Sortable,
			Filterable: c.Filterable,
			Resizable:  c.Resizable,
		}
	}
	for i, r := range v.Rows {
		display := make(map[string]string, len(v.Columns))
		for _, cell := range core.FormatRow(r.Row, v.Columns, "") {
			display[cell.Key] = cell.Text
		}
		resp.Rows[i] = rowJSON{ID: r.ID, Selected: r.Selected, Values: r.Row.Map(), Display: display}
	}
	for k, fv := range v.Filters {
		resp.Filters[k] = fv.Any()
	}
	return resp
}

// valueForColumn converts a decoded JSON value for a column. Strings sent
// for typed columns are validated and parsed the way fixtures are.
func valueForColumn(col core.Column, raw any) (core.Value, error) {
	v := core.FromAny(raw)
	if s, ok := v.Str(); ok && col.Type != core.TypeString && col.Type != core.TypeLink {
		return core.ParseInput(s, col)
	}
	return v, nil
}

// lookupColumn finds a column of the session's table.
func lookupColumn(sess *Session, key string) (core.Column, error) {
	for _, c := range sess.Table.Columns() {
		if c.Key == key {
			return c, nil
		}
	}
	return core.Column{}, fmt.Errorf("%w: %s", core.ErrUnknownColumn, key)
}
