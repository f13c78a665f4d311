package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/source"
	"github.com/JonMunkholm/datatable/internal/web/templates"
)

// handleIndex renders the list of registered tables.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var groups []templates.TableGroup
	for _, name := range core.Groups() {
		g := templates.TableGroup{Name: name}
		for _, def := range core.ByGroup(name) {
			g.Tables = append(g.Tables, def.Info)
		}
		groups = append(groups, g)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Layout("Tables", templates.TableList(groups)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render table list", "error", err)
	}
}

// tableJSON is one registered table in the API listing.
type tableJSON struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Group   string `json:"group"`
	Columns int    `json:"columns"`
}

// handleListTables returns all registered tables, sorted by group then key.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	out := make([]tableJSON, len(defs))
	for i, d := range defs {
		out[i] = tableJSON{Key: d.Info.Key, Label: d.Info.Label, Group: d.Info.Group, Columns: len(d.Columns)}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleOpenTable creates a session and renders the full table page.
func (s *Server) handleOpenTable(w http.ResponseWriter, r *http.Request) {
	sess, err := s.openSession(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	widget := templates.ComponentOf(sess.Table, s.widget(sess))
	if err := templates.TablePage(sess.Def.Info, widget).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render table page", "error", err)
	}
}

// handleCreateSession opens a table session for API clients.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.openSession(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newViewResponse(sess, sess.Table.View()))
}

func (s *Server) openSession(r *http.Request) (*Session, error) {
	key := chi.URLParam(r, "tableKey")
	if key == "" {
		return nil, fmt.Errorf("%w: tableKey", errMissingParam)
	}
	sess, err := s.sessions.Create(r.Context(), key)
	if err != nil {
		return nil, err
	}
	logging.WithFields(r.Context(), "session_id", sess.ID, "table", key).
		Info("session opened", "rows", sess.Table.Len())
	return sess, nil
}

// handleWidget re-renders the widget partial of a session.
func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := sess.Table.Render(r.Context(), w, s.widget(sess)); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// handleView returns the session's current view as JSON.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	writeJSON(w, http.StatusOK, newViewResponse(sess, sess.Table.View()))
}

// handleListSessions returns summaries of the live sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.List())
}

// handleCloseSession closes a session.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// handleJournal returns the session's change journal.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	writeJSON(w, http.StatusOK, sess.Journal.Entries())
}

// statusResponse reports server state.
type statusResponse struct {
	Tables    int                     `json:"tables"`
	Sessions  int                     `json:"sessions"`
	Loads     LoadLimiterStatus       `json:"loads"`
	Writeback []source.WritebackStats `json:"writeback,omitempty"`
}

// handleStatus reports registered tables, live sessions, load slots and
// writeback queues.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Tables:   core.TableCount(),
		Sessions: s.sessions.Len(),
		Loads:    s.sessions.Loads().Status(),
	}
	for _, wb := range s.writers {
		resp.Writeback = append(resp.Writeback, wb.Stats())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReload re-seeds the session from its source. The response carries
// X-Table-Reloaded: true when the data changed.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	changed, err := sess.Reload(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "session_id", sess.ID, "table", sess.TableKey).
		Debug("session reloaded", "changed", changed, "revision", sess.Table.Revision())
	w.Header().Set("X-Table-Reloaded", fmt.Sprint(changed))
	s.respondView(w, r, sess)
}
