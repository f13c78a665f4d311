package core

import (
	"fmt"
	"slices"
	"testing"
	"time"
)

// people returns n rows with ids 1..n. Ages cycle so several rows share an
// age, and every third row is inactive.
func people(n int) []Row {
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		id := i + 1
		rows[i] = NewRow(
			F("id", Int(id)),
			F("name", String(fmt.Sprintf("Person %02d", id))),
			F("age", Int(20+(id*7)%31)),
			F("active", Bool(id%3 != 0)),
		)
	}
	return rows
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID()
	}
	return out
}

func TestApplyFilters_Search(t *testing.T) {
	rows := []Row{
		NewRow(F("id", Int(1)), F("name", String("Grace Hopper"))),
		NewRow(F("id", Int(2)), F("name", String("Alan Turing"))),
		NewRow(F("id", Int(3)), F("name", String("Grace Murray"))),
		NewRow(F("id", Int(4)), F("name", String("Ada Lovelace")), F("note", Int(42))),
	}

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"case insensitive", "grace", []string{"1", "3"}},
		{"upper case term", "GRACE", []string{"1", "3"}},
		{"trimmed term", "  turing  ", []string{"2"}},
		{"empty term keeps all", "   ", []string{"1", "2", "3", "4"}},
		{"numbers are not searched", "42", []string{}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(ApplyFilters(rows, tt.term, nil))
			if !slices.Equal(got, tt.want) {
				t.Errorf("ApplyFilters(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestApplyFilters_Structured(t *testing.T) {
	rows := []Row{
		NewRow(F("id", Int(1)), F("name", String("Alice")), F("age", Int(30)), F("active", Bool(true))),
		NewRow(F("id", Int(2)), F("name", String("Bob")), F("age", Int(130)), F("active", Bool(false))),
		NewRow(F("id", Int(3)), F("name", String("alicia")), F("age", Int(45)), F("active", Bool(true))),
		NewRow(F("id", Int(4)), F("name", String("Carol"))),
	}

	tests := []struct {
		name    string
		filters FilterSet
		want    []string
	}{
		{"bool exact", FilterSet{"active": Bool(true)}, []string{"1", "3"}},
		{"bool false", FilterSet{"active": Bool(false)}, []string{"2"}},
		{"string substring", FilterSet{"name": String("ALI")}, []string{"1", "3"}},
		{"empty string is no constraint", FilterSet{"name": String("  ")}, []string{"1", "2", "3", "4"}},
		{"number substring", FilterSet{"age": Int(30)}, []string{"1", "2"}},
		{"missing field fails", FilterSet{"age": Int(4)}, []string{"3"}},
		{"date filter ignored", FilterSet{"name": Date(time.Now())}, []string{"1", "2", "3", "4"}},
		{"and combination", FilterSet{"name": String("ali"), "active": Bool(true), "age": Int(4)}, []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(ApplyFilters(rows, "", tt.filters))
			if !slices.Equal(got, tt.want) {
				t.Errorf("ApplyFilters(%v) = %v, want %v", tt.filters, got, tt.want)
			}
		})
	}
}

func TestApplyFilters_OrderIndependent(t *testing.T) {
	rows := people(40)
	search := "person 1"
	filters := FilterSet{"active": Bool(true), "age": Int(2)}

	combined := ids(ApplyFilters(rows, search, filters))

	// Apply one constraint at a time, in both orders.
	stepA := ApplyFilters(rows, search, nil)
	stepA = ApplyFilters(stepA, "", FilterSet{"active": Bool(true)})
	stepA = ApplyFilters(stepA, "", FilterSet{"age": Int(2)})

	stepB := ApplyFilters(rows, "", FilterSet{"age": Int(2)})
	stepB = ApplyFilters(stepB, "", FilterSet{"active": Bool(true)})
	stepB = ApplyFilters(stepB, search, nil)

	if got := ids(stepA); !slices.Equal(got, combined) {
		t.Errorf("search first = %v, want %v", got, combined)
	}
	if got := ids(stepB); !slices.Equal(got, combined) {
		t.Errorf("search last = %v, want %v", got, combined)
	}
}

func TestSortState_Cycle(t *testing.T) {
	var s SortState

	s = s.Cycle("age")
	if s != (SortState{Column: "age", Direction: SortAsc}) {
		t.Fatalf("first click = %+v, want age asc", s)
	}
	s = s.Cycle("age")
	if s.Direction != SortDesc {
		t.Fatalf("second click direction = %q, want desc", s.Direction)
	}
	s = s.Cycle("age")
	if s.Active() {
		t.Fatalf("third click = %+v, want inactive", s)
	}

	// A different column always restarts at asc.
	s = SortState{Column: "age", Direction: SortDesc}.Cycle("name")
	if s != (SortState{Column: "name", Direction: SortAsc}) {
		t.Errorf("switch column = %+v, want name asc", s)
	}
}

func TestSortRows_Stable(t *testing.T) {
	rows := []Row{
		NewRow(F("id", String("a")), F("age", Int(30))),
		NewRow(F("id", String("b")), F("age", Int(20))),
		NewRow(F("id", String("c")), F("age", Int(30))),
		NewRow(F("id", String("d")), F("age", Int(20))),
		NewRow(F("id", String("e")), F("age", Int(30))),
	}

	tests := []struct {
		dir  SortDirection
		want []string
	}{
		{SortAsc, []string{"b", "d", "a", "c", "e"}},
		{SortDesc, []string{"a", "c", "e", "b", "d"}},
		{SortNone, []string{"a", "b", "c", "d", "e"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			got := ids(SortRows(rows, SortState{Column: "age", Direction: tt.dir}))
			if !slices.Equal(got, tt.want) {
				t.Errorf("SortRows(%q) = %v, want %v", tt.dir, got, tt.want)
			}
		})
	}

	if got := ids(rows); !slices.Equal(got, []string{"a", "b", "c", "d", "e"}) {
		t.Errorf("input modified: %v", got)
	}
}

func TestCompareValues(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 1, 0)

	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"numbers", Int(2), Int(10), -1},
		{"strings byte-wise", String("Z"), String("a"), -1},
		{"strings equal", String("x"), String("x"), 0},
		{"bool false first", Bool(false), Bool(true), -1},
		{"dates", Date(late), Date(early), 1},
		{"mixed kinds equal", Int(1), String("1"), 0},
		{"null equal", Null, Int(5), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareValues(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareValues = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	rows := people(23)

	tests := []struct {
		name           string
		page, pageSize int
		want           []string
	}{
		{"first page", 1, 10, ids(rows[0:10])},
		{"last partial page", 3, 10, ids(rows[20:23])},
		{"out of range", 4, 10, []string{}},
		{"paging off", 0, 0, ids(rows)},
		{"size zero", 2, 0, ids(rows)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Paginate(rows, tt.page, tt.pageSize))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Paginate(%d, %d) = %v, want %v", tt.page, tt.pageSize, got, tt.want)
			}
		})
	}
}

func TestPaginate_Reconstructs(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 47} {
		for _, size := range []int{1, 3, 10} {
			rows := SortRows(people(n), SortState{Column: "age", Direction: SortAsc})
			pages := (n + size - 1) / size

			var joined []Row
			for p := 1; p <= pages; p++ {
				joined = append(joined, Paginate(rows, p, size)...)
			}
			if got, want := ids(joined), ids(rows); !slices.Equal(got, want) {
				t.Errorf("n=%d size=%d: pages = %v, want %v", n, size, got, want)
			}
		}
	}
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name                  string
		total, page, pageSize int
		want                  PageInfo
	}{
		{"middle page", 45, 2, 10, PageInfo{Page: 2, PageSize: 10, Total: 45, TotalPages: 5, RangeStart: 11, RangeEnd: 20}},
		{"last page", 45, 5, 10, PageInfo{Page: 5, PageSize: 10, Total: 45, TotalPages: 5, RangeStart: 41, RangeEnd: 45}},
		{"past end", 45, 9, 10, PageInfo{Page: 9, PageSize: 10, Total: 45, TotalPages: 5}},
		{"paging off", 7, 0, 0, PageInfo{Total: 7, TotalPages: 1, RangeStart: 1, RangeEnd: 7}},
		{"empty", 0, 1, 10, PageInfo{Page: 1, PageSize: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPageInfo(tt.total, tt.page, tt.pageSize); got != tt.want {
				t.Errorf("NewPageInfo = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPipeline_ActiveByAge(t *testing.T) {
	rows := people(50)

	filtered := ApplyFilters(rows, "", FilterSet{"active": Bool(true)})
	sorted := SortRows(filtered, SortState{Column: "age", Direction: SortAsc})
	page := Paginate(sorted, 1, 10)

	if len(page) != 10 {
		t.Fatalf("page length = %d, want 10", len(page))
	}

	var actives []Row
	for _, r := range rows {
		if b, _ := r.Value("active").Boolean(); b {
			actives = append(actives, r)
		}
	}
	if len(filtered) != len(actives) {
		t.Errorf("filtered = %d rows, want %d", len(filtered), len(actives))
	}

	ages := make([]float64, 0, len(actives))
	for _, r := range actives {
		n, _ := r.Value("age").Num()
		ages = append(ages, n)
	}
	slices.Sort(ages)

	for i, r := range page {
		if b, _ := r.Value("active").Boolean(); !b {
			t.Errorf("row %s is inactive", r.ID())
		}
		if n, _ := r.Value("age").Num(); n != ages[i] {
			t.Errorf("page[%d] age = %v, want %v", i, n, ages[i])
		}
	}
}
