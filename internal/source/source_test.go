package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/datatable/internal/core"
)

// fakeRows is an in-memory pgx.Rows.
type fakeRows struct {
	fds    []pgconn.FieldDescription
	values [][]any
	pos    int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fds }
func (r *fakeRows) Scan(...any) error                            { return errors.New("not supported") }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.values[r.pos-1], nil
}

type execCall struct {
	sql  string
	args []any
}

// fakeDB answers every query with the same result set and records Exec calls.
type fakeDB struct {
	mu      sync.Mutex
	fds     []pgconn.FieldDescription
	values  [][]any
	queries []string
	execs   []execCall
	execErr error
}

func (db *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.queries = append(db.queries, sql)
	values := db.values
	if strings.Contains(sql, "LIMIT 0") {
		values = nil
	}
	return &fakeRows{fds: db.fds, values: values}, nil
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.execs = append(db.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("UPDATE 1"), db.execErr
}

func (db *fakeDB) calls() []execCall {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]execCall(nil), db.execs...)
}

func peopleDB() *fakeDB {
	hired := time.Date(2021, 5, 4, 0, 0, 0, 0, time.UTC)
	var salary pgtype.Numeric
	_ = salary.Scan("1234.5")
	return &fakeDB{
		fds: []pgconn.FieldDescription{
			{Name: "person_id", DataTypeOID: pgtype.Int8OID},
			{Name: "full_name", DataTypeOID: pgtype.TextOID},
			{Name: "salary", DataTypeOID: pgtype.NumericOID},
			{Name: "active", DataTypeOID: pgtype.BoolOID},
			{Name: "hired_on", DataTypeOID: pgtype.DateOID},
		},
		values: [][]any{
			{int64(1), "Grace Hopper", salary, true, hired},
			{int64(2), "Alan Turing", pgtype.Numeric{}, false, nil},
		},
	}
}

func TestFromPg(t *testing.T) {
	var num pgtype.Numeric
	if err := num.Scan("12.75"); err != nil {
		t.Fatalf("scan numeric: %v", err)
	}
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	id := [16]byte{0x12, 0x34}

	tests := []struct {
		name string
		in   any
		want core.Value
	}{
		{"nil", nil, core.Null},
		{"numeric", num, core.Number(12.75)},
		{"invalid numeric", pgtype.Numeric{}, core.Null},
		{"int32", int32(7), core.Int(7)},
		{"text", "x", core.String("x")},
		{"pg text null", pgtype.Text{}, core.Null},
		{"bool", true, core.Bool(true)},
		{"time", day, core.Date(day)},
		{"pg date", pgtype.Date{Time: day, Valid: true}, core.Date(day)},
		{"uuid bytes", id, core.String("12340000-0000-0000-0000-000000000000")},
		{"bytes", []byte("raw"), core.String("raw")},
		{"other", []int{1, 2}, core.String("[1 2]")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromPg(tt.in); !got.Equal(tt.want) {
				t.Errorf("FromPg(%#v) = %v (%s), want %v", tt.in, got, got.Kind(), tt.want)
			}
		})
	}
}

func TestToPg(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	if got, ok := ToPg(core.String("abc"), core.TypeString).(pgtype.Text); !ok || got.String != "abc" || !got.Valid {
		t.Errorf("string = %#v", got)
	}
	if got := ToPg(core.Null, core.TypeString); got != nil {
		t.Errorf("null = %#v, want nil", got)
	}
	n, ok := ToPg(core.String(" 42.5 "), core.TypeNumber).(pgtype.Numeric)
	if !ok || !n.Valid {
		t.Fatalf("numeric from text = %#v", n)
	}
	if f, _ := n.Float64Value(); f.Float64 != 42.5 {
		t.Errorf("numeric value = %v, want 42.5", f.Float64)
	}
	if got := ToPg(core.String("n/a"), core.TypeNumber); got != nil {
		t.Errorf("unparseable number = %#v, want nil", got)
	}
	if got, ok := ToPg(core.Date(day), core.TypeDate).(pgtype.Date); !ok || !got.Time.Equal(day) {
		t.Errorf("date = %#v", got)
	}
	if _, ok := ToPg(core.Date(day.Add(time.Hour)), core.TypeDate).(pgtype.Timestamptz); !ok {
		t.Error("date with time of day should be a timestamptz")
	}
	if got, ok := ToPg(core.String("yes"), core.TypeBoolean).(pgtype.Bool); !ok || !got.Bool {
		t.Errorf("bool = %#v", got)
	}
}

func TestNames(t *testing.T) {
	if got := quoteIdentifier(`public.we"ird`); got != `"public"."we""ird"` {
		t.Errorf("quoteIdentifier = %s", got)
	}
	tests := map[string]string{
		"first_name": "First Name",
		"person_id":  "Person ID",
		"email":      "Email",
	}
	for in, want := range tests {
		if got := columnTitle(in); got != want {
			t.Errorf("columnTitle(%q) = %q, want %q", in, got, want)
		}
	}
	if name, id := ParseTableSpec(" people : person_id "); name != "people" || id != "person_id" {
		t.Errorf("ParseTableSpec = %q, %q", name, id)
	}
}

func TestPostgresTable_Load(t *testing.T) {
	db := peopleDB()
	pt := NewPostgresTable(db, "people", "person_id", 0)

	cols, err := pt.Columns(context.Background())
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if len(cols) != 5 {
		t.Fatalf("columns = %d, want 5", len(cols))
	}
	if cols[2].Type != core.TypeNumber || cols[4].Type != core.TypeDate || cols[4].Filterable {
		t.Errorf("column types = %+v", cols)
	}
	if cols[1].Title != "Full Name" {
		t.Errorf("title = %q", cols[1].Title)
	}

	snap, err := pt.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(snap.Rows))
	}
	r := snap.Rows[0]
	if r.ID() != "1" {
		t.Errorf("ID = %q, want 1", r.ID())
	}
	if !r.Value("salary").Equal(core.Number(1234.5)) {
		t.Errorf("salary = %v", r.Value("salary"))
	}
	if !snap.Rows[1].Value("hired_on").IsNull() {
		t.Errorf("null date = %v", snap.Rows[1].Value("hired_on"))
	}
	if !strings.Contains(db.queries[len(db.queries)-1], `ORDER BY "person_id"`) {
		t.Errorf("query = %s", db.queries[len(db.queries)-1])
	}

	again, _ := pt.Load(context.Background())
	if again.Revision != snap.Revision {
		t.Error("revision changed for identical data")
	}
	db.values[1][1] = "Alan M. Turing"
	changed, _ := pt.Load(context.Background())
	if changed.Revision == snap.Revision {
		t.Error("revision unchanged after data change")
	}
}

func TestPostgresTable_IDColumn(t *testing.T) {
	ordersDB := func() *fakeDB {
		return &fakeDB{
			fds: []pgconn.FieldDescription{
				{Name: "id", DataTypeOID: pgtype.Int8OID},
				{Name: "order_no", DataTypeOID: pgtype.TextOID},
			},
			values: [][]any{{int64(7), "A-100"}},
		}
	}

	tests := []struct {
		name     string
		idColumn string
		wantErr  bool
	}{
		{"default id", "", false},
		{"explicit id", "id", false},
		{"shadowed id", "order_no", true},
		{"missing column", "order_id", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := ordersDB()
			pt := NewPostgresTable(db, "orders", tt.idColumn, 0)

			_, err := pt.Definition(context.Background(), core.DefaultOptions())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Definition error = %v, wantErr %v", err, tt.wantErr)
			}
			_, loadErr := pt.Load(context.Background())
			if tt.wantErr {
				if !errors.Is(err, ErrIDColumn) || !errors.Is(loadErr, ErrIDColumn) {
					t.Errorf("errors = %v, %v; want ErrIDColumn", err, loadErr)
				}
				return
			}
			if loadErr != nil {
				t.Fatalf("Load: %v", loadErr)
			}
		})
	}

	core.Clear()
	defer core.Clear()
	db := ordersDB()
	if _, err := RegisterPostgres(context.Background(), db, []string{"orders:order_no"}, core.DefaultOptions(), 10, true); !errors.Is(err, ErrIDColumn) {
		t.Errorf("RegisterPostgres error = %v, want ErrIDColumn", err)
	}
	if core.TableCount() != 0 {
		t.Error("conflicting table was registered")
	}
}

func TestRegisterPostgres(t *testing.T) {
	core.Clear()
	defer core.Clear()

	db := peopleDB()
	writers, err := RegisterPostgres(context.Background(), db, []string{"public.people:person_id", " "}, core.DefaultOptions(), 100, true)
	if err != nil {
		t.Fatalf("RegisterPostgres: %v", err)
	}
	if len(writers) != 1 {
		t.Fatalf("writers = %d, want 1", len(writers))
	}
	def, ok := core.Get("pg_public_people")
	if !ok {
		t.Fatal("table not registered")
	}
	if def.Info.Label != "People" || def.Info.Group != GroupPostgres {
		t.Errorf("info = %+v", def.Info)
	}
	if def.Listener == nil {
		t.Error("writeback listener not attached")
	}
}

func TestWriteback(t *testing.T) {
	db := peopleDB()
	cols := []core.Column{
		{Key: "person_id", Type: core.TypeNumber},
		{Key: "salary", Type: core.TypeNumber},
	}
	wb := NewWriteback(db, "people", "person_id", cols, 4)

	wb.OnCellUpdated("1", "salary", core.Null, core.String("99"))
	wb.OnCellUpdated("1", "person_id", core.Null, core.Int(5))
	wb.OnCellUpdated("1", "unknown", core.Null, core.Int(5))
	wb.OnRowsDeleted([]core.Row{core.NewRow(core.F("id", core.Int(2)))})

	if got := wb.Stats().Pending; got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		wb.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for wb.Stats().Applied < 2 {
		select {
		case <-deadline:
			t.Fatalf("applied = %d, want 2", wb.Stats().Applied)
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	calls := db.calls()
	if !strings.HasPrefix(calls[0].sql, `UPDATE "people" SET "salary" = $1 WHERE "person_id"::text = $2`) {
		t.Errorf("update sql = %s", calls[0].sql)
	}
	if n, ok := calls[0].args[0].(pgtype.Numeric); !ok || !n.Valid {
		t.Errorf("update arg = %#v, want numeric", calls[0].args[0])
	}
	if !strings.HasPrefix(calls[1].sql, `DELETE FROM "people"`) {
		t.Errorf("delete sql = %s", calls[1].sql)
	}
	if ids, _ := calls[1].args[0].([]string); len(ids) != 1 || ids[0] != "2" {
		t.Errorf("delete ids = %#v", calls[1].args[0])
	}
}

func TestWriteback_QueueFull(t *testing.T) {
	wb := NewWriteback(peopleDB(), "people", "id", []core.Column{{Key: "name"}}, 1)
	wb.OnCellUpdated("1", "name", core.Null, core.String("a"))
	wb.OnCellUpdated("1", "name", core.Null, core.String("b"))

	if s := wb.Stats(); s.Pending != 1 || s.Dropped != 1 {
		t.Errorf("stats = %+v, want 1 pending 1 dropped", s)
	}
}

const employeesYAML = `
key: staff
label: Staff
options:
  searchable: true
  editable: true
columns:
  - {key: name, type: string, sortable: true, filterable: true}
  - {key: age, title: Age, type: number, sortable: true}
  - {key: hired, type: date}
  - {key: remote, type: boolean, filterable: true}
  - {key: site, type: link, openInNewTab: true}
rows:
  - {id: 2, name: Grace Hopper, age: 37, hired: 1944-07-01, remote: "no", site: Docs, link: "https://example.com/g"}
  - {name: Alan Turing, id: b7, age: "41", hired: 02/01/1950, remote: true}
`

func TestParseFixture(t *testing.T) {
	def, snap, err := ParseFixture([]byte(employeesYAML), "fallback", core.DefaultOptions())
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	if def.Info.Key != "staff" || def.Info.Group != GroupFixtures {
		t.Errorf("info = %+v", def.Info)
	}
	if !def.Options.Searchable || def.Options.Deletable || !def.Options.StickyHeader {
		t.Errorf("options = %+v", def.Options)
	}
	if len(def.Options.PageSizeOptions) != 4 {
		t.Errorf("page size options = %v, want defaults", def.Options.PageSizeOptions)
	}
	if def.Columns[0].Title != "Name" || def.Columns[4].Type != core.TypeLink {
		t.Errorf("columns = %+v", def.Columns)
	}

	if len(snap.Rows) != 2 || snap.Revision == "" {
		t.Fatalf("rows = %d revision = %q", len(snap.Rows), snap.Revision)
	}
	first := snap.Rows[0]
	if got := first.Fields()[1].Key; got != "name" {
		t.Errorf("field order: second field = %q, want name", got)
	}
	if !first.Value("remote").Equal(core.Bool(false)) {
		t.Errorf("remote = %v, want false", first.Value("remote"))
	}
	if hired, ok := first.Value("hired").Time(); !ok || hired.Year() != 1944 {
		t.Errorf("hired = %v", first.Value("hired"))
	}
	second := snap.Rows[1]
	if second.ID() != "b7" || !second.Value("age").Equal(core.Int(41)) {
		t.Errorf("second row = %v", second.Map())
	}
	if hired, _ := second.Value("hired").Time(); hired.Month() != time.January || hired.Day() != 2 {
		t.Errorf("DD/MM/YYYY date parsed as %v", hired)
	}
}

func TestParseFixture_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "columns: [", "parse yaml"},
		{"no columns", "key: x\nrows: []", "no columns"},
		{"duplicate column", "columns: [{key: a}, {key: a}]", "defined twice"},
		{"row without id", "columns: [{key: a}]\nrows: [{a: 1}]", "row 1"},
		{"row not mapping", "columns: [{key: a}]\nrows: [5]", "not a mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseFixture([]byte(tt.yaml), "t", core.DefaultOptions())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRegisterFixtures(t *testing.T) {
	core.Clear()
	defer core.Clear()

	dir := t.TempDir()
	path := filepath.Join(dir, "staff.yaml")
	if err := os.WriteFile(path, []byte(employeesYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := RegisterFixtures(dir, core.DefaultOptions())
	if err != nil {
		t.Fatalf("RegisterFixtures: %v", err)
	}
	if n != 1 {
		t.Fatalf("registered %d, want 1", n)
	}

	def, _ := core.Get("staff")
	first, err := def.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	updated := strings.Replace(employeesYAML, "Grace Hopper", "Grace B. Hopper", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := def.Load(context.Background())
	if err != nil {
		t.Fatalf("Load after edit: %v", err)
	}
	if first.Revision == second.Revision {
		t.Error("revision unchanged after file edit")
	}

	if n, err := RegisterFixtures(filepath.Join(dir, "missing"), core.DefaultOptions()); err != nil || n != 0 {
		t.Errorf("missing dir: n = %d err = %v", n, err)
	}
}
