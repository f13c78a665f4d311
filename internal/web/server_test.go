package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/logging"
)

func peopleColumns() []core.Column {
	return []core.Column{
		{Key: "name", Title: "Name", Type: core.TypeString, Sortable: true, Filterable: true, Resizable: true},
		{Key: "age", Title: "Age", Type: core.TypeNumber, Sortable: true, Filterable: true},
		{Key: "active", Title: "Active", Type: core.TypeBoolean, Filterable: true},
		{Key: "site", Title: "Site", Type: core.TypeLink},
	}
}

// peopleRows returns n rows with ids "1".."n"; even ids are active.
func peopleRows(n int) []core.Row {
	rows := make([]core.Row, n)
	for i := 1; i <= n; i++ {
		rows[i-1] = core.NewRow(
			core.F("id", core.String(strconv.Itoa(i))),
			core.F("name", core.String(fmt.Sprintf("Person %02d", i))),
			core.F("age", core.Int(20+i)),
			core.F("active", core.Bool(i%2 == 0)),
			core.F("site", core.String("Home")),
			core.F("link", core.String(fmt.Sprintf("https://example.com/%d", i))),
		)
	}
	return rows
}

func registerTestTables(t *testing.T) {
	t.Helper()
	core.Clear()
	t.Cleanup(core.Clear)

	load := func(ctx context.Context) (core.Snapshot, error) {
		return core.Snapshot{Rows: peopleRows(12), Revision: "r1"}, nil
	}
	core.MustRegister(core.TableDefinition{
		Info:    core.TableInfo{Key: "people", Group: "Fixtures", Label: "People"},
		Columns: peopleColumns(),
		Options: core.Options{
			Searchable: true, Selectable: true, Deletable: true, Editable: true, Resizable: true,
			StickyHeader: true, ShowSizeChanger: true, PageSizeOptions: []int{5, 10},
		},
		Load: load,
	})
	core.MustRegister(core.TableDefinition{
		Info:    core.TableInfo{Key: "readonly", Group: "Fixtures", Label: "Read Only"},
		Columns: peopleColumns(),
		Load:    load,
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second},
		Table: config.TableConfig{
			PageSize:       5,
			SearchDebounce: 20 * time.Millisecond,
			DefaultWidth:   150,
		},
		Session:  config.SessionConfig{TTL: time.Minute, SweepInterval: time.Second, MaxSessions: 10},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	registerTestTables(t)
	sessions := NewSessionStore(cfg.Session, cfg.Table)
	t.Cleanup(sessions.CloseAll)
	return NewServer(cfg, sessions, nil)
}

func do(t *testing.T, srv *Server, method, path, body string, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewResponse {
	t.Helper()
	if rec.Code != http.StatusOK && rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var v viewResponse
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func createSession(t *testing.T, srv *Server, key string) viewResponse {
	t.Helper()
	return decodeView(t, do(t, srv, http.MethodPost, "/api/tables/"+key+"/sessions", "", false))
}

func TestListTables(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodGet, "/api/tables", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var tables []tableJSON
	if err := json.NewDecoder(rec.Body).Decode(&tables); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tables) != 2 || tables[0].Key != "people" || tables[1].Key != "readonly" {
		t.Errorf("tables = %+v", tables)
	}

	rec = do(t, srv, http.MethodGet, "/", "", false)
	if !strings.Contains(rec.Body.String(), `href="/table/people"`) {
		t.Errorf("index missing table link: %s", rec.Body.String())
	}
}

// brokenWriter fails every body write.
type brokenWriter struct{ *httptest.ResponseRecorder }

func (w brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestIndex_LogsRenderError(t *testing.T) {
	srv := newTestServer(t, testConfig())

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	srv.handleIndex(brokenWriter{httptest.NewRecorder()}, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), "render table list") || !strings.Contains(buf.String(), "connection reset") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestOpenTable_RendersPage(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodGet, "/table/people", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<title>People</title>",
		"1-5 of 12 items",
		`placeholder="Search"`,
		"Person 01",
		`data-cell-url="/api/sessions/`,
		`href="https://example.com/1"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if csp := rec.Header().Get("Content-Security-Policy"); csp == "" {
		t.Error("Content-Security-Policy header not set")
	}
	if srv.sessions.Len() != 1 {
		t.Errorf("sessions = %d, want 1", srv.sessions.Len())
	}
}

func TestOpenTable_Unknown(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodPost, "/api/tables/nope/sessions", "", false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var er ErrorResponse
	json.NewDecoder(rec.Body).Decode(&er)
	if er.Code != "TBL001" {
		t.Errorf("code = %q, want TBL001", er.Code)
	}
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(t, testConfig())
	v := createSession(t, srv, "people")
	base := "/api/sessions/" + v.SessionID

	if v.Page.Page != 1 || v.Page.PageSize != 5 || v.Page.Total != 12 || v.Page.RangeEnd != 5 {
		t.Fatalf("initial page = %+v", v.Page)
	}
	if v.Columns[0].Width != 150 {
		t.Errorf("default width = %d, want 150", v.Columns[0].Width)
	}

	// Sort cycle: asc then desc.
	do(t, srv, http.MethodPost, base+"/sort/age", "", false)
	v = decodeView(t, do(t, srv, http.MethodPost, base+"/sort/age", "", false))
	if v.Sort.Direction != "desc" || v.Rows[0].ID != "12" {
		t.Errorf("after two sort clicks: sort = %+v, first row = %s", v.Sort, v.Rows[0].ID)
	}

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/search", `{"term":"  person 1 "}`, false))
	if v.Search != "person 1" || v.Page.Total != 3 {
		t.Errorf("search: term = %q, total = %d, want 3", v.Search, v.Page.Total)
	}

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/filters", `{"active":true,"unknown":"x"}`, false))
	if v.Page.Total != 2 {
		t.Errorf("filtered total = %d, want 2", v.Page.Total)
	}
	if _, ok := v.Filters["unknown"]; ok {
		t.Error("unknown filter key was kept")
	}

	v = decodeView(t, do(t, srv, http.MethodDelete, base+"/filters", "", false))
	if v.Page.Total != 3 {
		t.Errorf("total after clearing filters = %d, want 3", v.Page.Total)
	}

	do(t, srv, http.MethodPost, base+"/search", `{"term":""}`, false)
	do(t, srv, http.MethodPost, base+"/page", `{"page_size":10}`, false)
	v = decodeView(t, do(t, srv, http.MethodPost, base+"/page", `{"page":2}`, false))
	if v.Page.Page != 2 || v.Page.RangeStart != 11 || v.Page.RangeEnd != 12 {
		t.Errorf("page 2 = %+v", v.Page)
	}

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/select/3", "", false))
	if v.Selected != 1 || !v.Indeterminate {
		t.Errorf("after toggling one row: selected = %d, indeterminate = %v", v.Selected, v.Indeterminate)
	}

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/select-all", "", false))
	if v.Selected != 12 || !v.AllSelected || !v.ShowDeleteSelected {
		t.Errorf("after toggle all: selected = %d, all = %v", v.Selected, v.AllSelected)
	}

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/rows/delete-selected", "", false))
	if v.StoreSize != 0 || !v.Empty || v.Selected != 0 {
		t.Errorf("after delete selected: store = %d, empty = %v, selected = %d", v.StoreSize, v.Empty, v.Selected)
	}

	rec := do(t, srv, http.MethodGet, base+"/journal", "", false)
	var entries []core.ChangeEntry
	json.NewDecoder(rec.Body).Decode(&entries)
	if len(entries) != 12 {
		t.Errorf("journal entries = %d, want 12", len(entries))
	}
}

func TestUpdateCellAndDeleteRow(t *testing.T) {
	srv := newTestServer(t, testConfig())
	v := createSession(t, srv, "people")
	base := "/api/sessions/" + v.SessionID

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/cells", `{"row_id":"1","column":"age","value":"99"}`, false))
	if got := v.Rows[0].Values["age"]; got != float64(99) {
		t.Errorf("age = %v, want 99", got)
	}

	v = decodeView(t, do(t, srv, http.MethodDelete, base+"/rows/1", "", false))
	if v.StoreSize != 11 || v.Rows[0].ID != "2" {
		t.Errorf("after delete: store = %d, first = %s", v.StoreSize, v.Rows[0].ID)
	}

	rec := do(t, srv, http.MethodDelete, base+"/rows/1", "", false)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = do(t, srv, http.MethodPost, base+"/cells", `{"row_id":"2","column":"nope","value":1}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown column status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = do(t, srv, http.MethodPost, base+"/cells", `{"row_id":"2","column":"age","value":"old"}`, false)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "REQ004") {
		t.Errorf("bad number status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodPost, base+"/cells", `{"row_id":"2","column":"id","value":"99"}`, false)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "REQ003") {
		t.Errorf("id edit status = %d, body = %s", rec.Code, rec.Body.String())
	}
	v = decodeView(t, do(t, srv, http.MethodDelete, base+"/rows/2", "", false))
	if v.StoreSize != 10 {
		t.Errorf("row 2 not deletable after id edit attempt: store = %d", v.StoreSize)
	}
}

func TestSetFilters_SkipsMalformedValue(t *testing.T) {
	srv := newTestServer(t, testConfig())
	v := createSession(t, srv, "people")
	base := "/api/sessions/" + v.SessionID

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/filters", `{"age":"abc","active":true}`, false))
	if v.Page.Total != 6 {
		t.Errorf("filtered total = %d, want 6", v.Page.Total)
	}
	if _, ok := v.Filters["age"]; ok {
		t.Error("malformed age filter was kept")
	}
	if _, ok := v.Filters["active"]; !ok {
		t.Error("active filter was dropped")
	}
}

func TestDisabledOperations(t *testing.T) {
	srv := newTestServer(t, testConfig())
	v := createSession(t, srv, "readonly")
	base := "/api/sessions/" + v.SessionID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"edit", http.MethodPost, base + "/cells", `{"row_id":"1","column":"age","value":1}`, http.StatusForbidden, "TBL006"},
		{"delete", http.MethodDelete, base + "/rows/1", "", http.StatusForbidden, "TBL006"},
		{"select", http.MethodPost, base + "/select/1", "", http.StatusForbidden, "TBL006"},
		{"search", http.MethodPost, base + "/search", `{"term":"x"}`, http.StatusForbidden, "TBL006"},
		{"resize", http.MethodPost, base + "/columns/name/resize", `{"start_x":0}`, http.StatusForbidden, "TBL004"},
		{"bad body", http.MethodPost, base + "/page", `{"page":`, http.StatusBadRequest, "REQ001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body, false)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			var er ErrorResponse
			json.NewDecoder(rec.Body).Decode(&er)
			if er.Code != tt.code {
				t.Errorf("code = %q, want %q", er.Code, tt.code)
			}
		})
	}
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t, testConfig())

	for _, id := range []string{"not-a-uuid", "9b2c1c4e-3d38-4a58-9a4c-2f4c1f6f4a11"} {
		rec := do(t, srv, http.MethodGet, "/api/sessions/"+id+"/view", "", false)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want %d", id, rec.Code, http.StatusNotFound)
		}
		var er ErrorResponse
		json.NewDecoder(rec.Body).Decode(&er)
		if er.Code != "SES001" {
			t.Errorf("%s: code = %q, want SES001", id, er.Code)
		}
	}
}

func TestResize(t *testing.T) {
	srv := newTestServer(t, testConfig())
	v := createSession(t, srv, "people")
	base := "/api/sessions/" + v.SessionID

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/columns/name/resize", `{"start_x":100,"moves":[120,140],"end_x":160}`, false))
	if v.Columns[0].Width != 210 {
		t.Errorf("width = %d, want 210", v.Columns[0].Width)
	}

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/columns/name/resize", `{"start_x":500,"end_x":0}`, false))
	if v.Columns[0].Width != core.MinColumnWidth {
		t.Errorf("width = %d, want floor %d", v.Columns[0].Width, core.MinColumnWidth)
	}

	// age is not resizable.
	rec := do(t, srv, http.MethodPost, base+"/columns/age/resize", `{"start_x":0}`, false)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-resizable status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	sess, _ := srv.sessions.Get(v.SessionID)
	if sess.Table.Resizing() {
		t.Error("drag session still active after request")
	}
}

func TestColumnVisibility(t *testing.T) {
	srv := newTestServer(t, testConfig())
	v := createSession(t, srv, "people")
	base := "/api/sessions/" + v.SessionID

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/columns/visibility", `{"age":true,"site":true}`, false))
	if len(v.Columns) != 2 || v.Columns[0].Key != "name" || v.Columns[1].Key != "active" {
		t.Errorf("visible columns = %+v", v.Columns)
	}

	rec := do(t, srv, http.MethodPost, base+"/columns/visibility", `{"ghost":true}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown column status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	v = decodeView(t, do(t, srv, http.MethodPost, base+"/columns/visibility/reset", "", false))
	if len(v.Columns) != 4 {
		t.Errorf("columns after reset = %d, want 4", len(v.Columns))
	}
}

func TestHTMXResponses(t *testing.T) {
	srv := newTestServer(t, testConfig())
	v := createSession(t, srv, "people")
	base := "/api/sessions/" + v.SessionID

	rec := do(t, srv, http.MethodPost, base+"/search", `{"term":"nobody"}`, true)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "No data") || !strings.Contains(body, `id="dt-`+v.SessionID+`"`) {
		t.Errorf("widget partial = %s", body)
	}

	rec = do(t, srv, http.MethodGet, "/s/"+v.SessionID, "", false)
	if !strings.Contains(rec.Body.String(), "No data") {
		t.Errorf("widget route did not keep state: %s", rec.Body.String())
	}

	rec = do(t, srv, http.MethodDelete, base+"/rows/missing", "", true)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "TBL007") {
		t.Errorf("htmx error = %d %s", rec.Code, rec.Body.String())
	}
}

func TestDebouncedSearch(t *testing.T) {
	srv := newTestServer(t, testConfig())
	v := createSession(t, srv, "people")
	base := "/api/sessions/" + v.SessionID

	rec := do(t, srv, http.MethodPost, base+"/search", `{"term":"Person 07","debounced":true}`, false)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		v = decodeView(t, do(t, srv, http.MethodGet, base+"/view", "", false))
		if v.Search == "Person 07" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("debounced search never applied; search = %q", v.Search)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if v.Page.Total != 1 {
		t.Errorf("total = %d, want 1", v.Page.Total)
	}
}

func TestReload(t *testing.T) {
	srv := newTestServer(t, testConfig())
	v := createSession(t, srv, "people")
	base := "/api/sessions/" + v.SessionID

	do(t, srv, http.MethodDelete, base+"/rows/1", "", false)

	// Same revision: local edits survive.
	rec := do(t, srv, http.MethodPost, base+"/reload", "", false)
	if rec.Header().Get("X-Table-Reloaded") != "false" {
		t.Errorf("X-Table-Reloaded = %q, want false", rec.Header().Get("X-Table-Reloaded"))
	}
	if v = decodeView(t, rec); v.StoreSize != 11 {
		t.Errorf("store after same-revision reload = %d, want 11", v.StoreSize)
	}
}

func TestListAndCloseSessions(t *testing.T) {
	srv := newTestServer(t, testConfig())
	a := createSession(t, srv, "people")
	createSession(t, srv, "readonly")

	rec := do(t, srv, http.MethodGet, "/api/sessions", "", false)
	var list []SessionInfo
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list) != 2 {
		t.Fatalf("sessions = %d, want 2", len(list))
	}

	rec = do(t, srv, http.MethodDelete, "/api/sessions/"+a.SessionID, "", false)
	if rec.Code != http.StatusNoContent {
		t.Errorf("close status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	rec = do(t, srv, http.MethodGet, "/api/status", "", false)
	var st statusResponse
	json.NewDecoder(rec.Body).Decode(&st)
	if st.Sessions != 1 || st.Tables != 2 {
		t.Errorf("status = %+v", st)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	srv := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if rec := do(t, srv, http.MethodGet, "/api/tables", "", false); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := do(t, srv, http.MethodGet, "/api/tables", "", false)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"k1"}
	srv := newTestServer(t, cfg)

	if rec := do(t, srv, http.MethodGet, "/api/tables", "", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	req.Header.Set("X-API-Key", "k1")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid key status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Pages are not behind the key.
	if rec := do(t, srv, http.MethodGet, "/", "", false); rec.Code != http.StatusOK {
		t.Errorf("index status = %d, want %d", rec.Code, http.StatusOK)
	}
}
