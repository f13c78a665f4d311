package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/logging"
)

// handleToggleRow flips the selection of one row.
func (s *Server) handleToggleRow(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.Table.Options().Selectable {
		s.respondErr(w, r, disabledError{op: "selection"})
		return
	}
	id := chi.URLParam(r, "rowID")
	if _, ok := sess.Table.Row(id); !ok {
		s.respondErr(w, r, fmt.Errorf("%w: %s", errNotFound, id))
		return
	}
	sess.Table.ToggleRow(id)
	s.respondView(w, r, sess)
}

// handleToggleAll selects every stored row, or clears the selection when
// all rows are already selected.
func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.Table.Options().Selectable {
		s.respondErr(w, r, disabledError{op: "selection"})
		return
	}
	sess.Table.ToggleAll()
	s.respondView(w, r, sess)
}

type cellRequest struct {
	RowID  string `json:"row_id"`
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// handleUpdateCell replaces one field of a row.
func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.Table.Options().Editable {
		s.respondErr(w, r, disabledError{op: "editing"})
		return
	}
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if req.RowID == "" || req.Column == "" {
		s.respondErr(w, r, fmt.Errorf("%w: row_id and column are required", errMissingParam))
		return
	}
	if req.Column == core.IDField {
		s.respondErr(w, r, fmt.Errorf("%w: %s is the row identifier and cannot be edited", errInvalidParam, req.Column))
		return
	}
	col, err := lookupColumn(sess, req.Column)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	v, err := valueForColumn(col, req.Value)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if !sess.Table.UpdateCell(req.RowID, req.Column, v) {
		s.respondErr(w, r, fmt.Errorf("%w: %s", errNotFound, req.RowID))
		return
	}
	logging.WithFields(r.Context(), "session_id", sess.ID, "table", sess.TableKey).
		Debug("cell updated", "row_id", req.RowID, "column", req.Column)
	s.respondView(w, r, sess)
}

// handleDeleteRow removes one row.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.Table.Options().Deletable {
		s.respondErr(w, r, disabledError{op: "deleting"})
		return
	}
	id := chi.URLParam(r, "rowID")
	if !sess.Table.DeleteRow(id) {
		s.respondErr(w, r, fmt.Errorf("%w: %s", errNotFound, id))
		return
	}
	logging.WithFields(r.Context(), "session_id", sess.ID, "table", sess.TableKey).
		Debug("row deleted", "row_id", id)
	s.respondView(w, r, sess)
}

// handleDeleteSelected removes every selected row.
func (s *Server) handleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.Table.Options().Deletable {
		s.respondErr(w, r, disabledError{op: "deleting"})
		return
	}
	n := sess.Table.DeleteSelected()
	logging.WithFields(r.Context(), "session_id", sess.ID, "table", sess.TableKey).
		Debug("selected rows deleted", "count", n)
	s.respondView(w, r, sess)
}
