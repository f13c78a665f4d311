package core

import "testing"

func TestJournal_Bounded(t *testing.T) {
	j := NewJournal(2)
	j.OnCellUpdated("1", "name", String("a"), String("b"))
	j.OnReloaded("r2", 10)
	j.OnRowsDeleted([]Row{NewRow(F("id", Int(7)), F("name", String("gone")))})

	if got := j.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}

	entries := j.Entries()
	if entries[0].Action != ActionRowDelete || entries[0].RowID != "7" {
		t.Errorf("newest = %+v, want delete of row 7", entries[0])
	}
	if entries[0].RowData["name"] != "gone" {
		t.Errorf("RowData = %v", entries[0].RowData)
	}
	if entries[1].Action != ActionReload {
		t.Errorf("oldest kept = %q, want reload", entries[1].Action)
	}
	if entries[0].ID == "" || entries[0].ID == entries[1].ID {
		t.Errorf("entry ids not unique: %q, %q", entries[0].ID, entries[1].ID)
	}
}
