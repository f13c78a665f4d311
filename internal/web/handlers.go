package web

// handlers.go holds the view-state handlers: search, sort, filters, paging,
// column visibility and resizing. Each answers with the refreshed view.

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/logging"
)

type searchRequest struct {
	Term string `json:"term"`

	// Debounced routes the term through the table's debouncer instead of
	// applying it now. The response then shows the previous term.
	Debounced bool `json:"debounced"`
}

// handleSearch sets the search term.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if !sess.Table.Options().Searchable {
		s.respondErr(w, r, disabledError{op: "search"})
		return
	}
	if req.Debounced {
		sess.Table.InputSearch(req.Term)
		w.WriteHeader(http.StatusAccepted)
		return
	}
	sess.Table.SetSearch(req.Term)
	s.respondView(w, r, sess)
}

// handleSort advances the sort cycle of a column.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	key := chi.URLParam(r, "column")
	if _, err := lookupColumn(sess, key); err != nil {
		s.respondErr(w, r, err)
		return
	}
	state := sess.Table.ClickSort(key)
	logging.FromContext(r.Context()).Debug("sort clicked",
		"session_id", sess.ID, "column", key, "direction", state.Direction)
	s.respondView(w, r, sess)
}

// handleSetFilters replaces the filter set with the posted object. Keys of
// unknown columns are ignored, and so are values that do not parse for
// their column; the remaining filters still apply.
func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var raw map[string]any
	if err := decodeJSON(r, &raw); err != nil {
		s.respondErr(w, r, err)
		return
	}
	fs := make(core.FilterSet, len(raw))
	for key, val := range raw {
		col, err := lookupColumn(sess, key)
		if err != nil {
			continue
		}
		v, err := valueForColumn(col, val)
		if err != nil {
			logging.WithFields(r.Context(), "session_id", sess.ID, "table", sess.TableKey).
				Debug("filter value skipped", "column", key, "error", err)
			continue
		}
		fs[key] = v
	}
	sess.Table.SetFilters(fs)
	s.respondView(w, r, sess)
}

// handleClearFilters removes every filter.
func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Table.ClearFilters()
	s.respondView(w, r, sess)
}

type pageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// handlePage changes the page or the page size. A changed size restarts at
// page 1.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req pageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if req.Page < 0 || req.PageSize < 0 {
		s.respondErr(w, r, fmt.Errorf("%w: page and page_size must be positive", errInvalidParam))
		return
	}
	sess.Table.SetPage(req.Page, req.PageSize)
	s.respondView(w, r, sess)
}

// handleApplyVisibility stages the posted key -> hidden form and applies it.
func (s *Server) handleApplyVisibility(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var form map[string]bool
	if err := decodeJSON(r, &form); err != nil {
		s.respondErr(w, r, err)
		return
	}
	for key, hidden := range form {
		if err := sess.Table.ProposeColumnHidden(key, hidden); err != nil {
			s.respondErr(w, r, err)
			return
		}
	}
	sess.Table.ApplyColumnVisibility()
	s.respondView(w, r, sess)
}

// handleResetVisibility shows every column.
func (s *Server) handleResetVisibility(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Table.ResetColumnVisibility()
	s.respondView(w, r, sess)
}

type resizeRequest struct {
	StartX int   `json:"start_x"`
	Moves  []int `json:"moves"`
	EndX   *int  `json:"end_x"`
}

// handleResize replays one complete drag gesture: start, moves, end. The
// drag session is always released, even when the request is cancelled.
func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	key := chi.URLParam(r, "key")
	var req resizeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}

	drag, err := sess.Table.BeginResize(key, req.StartX, nil)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	defer drag.Close()

	for _, x := range req.Moves {
		if r.Context().Err() != nil {
			s.respondErr(w, r, r.Context().Err())
			return
		}
		drag.Move(x)
	}
	if req.EndX != nil {
		drag.Move(*req.EndX)
	}
	width := drag.End()

	logging.FromContext(r.Context()).Debug("column resized",
		"session_id", sess.ID, "column", key, "from", drag.StartWidth(), "to", width)
	s.respondView(w, r, sess)
}
