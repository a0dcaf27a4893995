package services

import (
	"context"
	"os"
	"strings"
	"testing"
)

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "branches*.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func TestLoadBranches_ValidFile(t *testing.T) {
	csv := `InternalID,Branch_Name,CompanyName,City
101,Central,GoodFellas,Jakarta
102,Harbor,GoodFellas,Surabaya`

	path := createTempCSV(t, csv)

	set, err := LoadBranches(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadBranches() error: %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}

	b, ok := set.Lookup(101)
	if !ok {
		t.Fatal("Lookup(101) not found")
	}
	if b.Name != "Central" || b.City != "Jakarta" {
		t.Errorf("unexpected branch: %+v", b)
	}
}

func TestLoadBranches_MissingFile(t *testing.T) {
	if _, err := LoadBranches(context.Background(), "does-not-exist.csv"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseBranches_MissingRequiredColumns(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"no InternalID", "Branch_Name,City\nCentral,Jakarta"},
		{"no Branch_Name", "InternalID,City\n101,Jakarta"},
		{"unrelated header", "a,b,c\n1,2,3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBranches(context.Background(), strings.NewReader(tt.csv))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "InternalID") {
				t.Errorf("error should name the required columns, got: %v", err)
			}
		})
	}
}

func TestParseBranches_DropsBadRows(t *testing.T) {
	csv := `InternalID,Branch_Name,City
101,Central,Jakarta
,Orphan,Bandung
102,,Medan
abc,BadID,Solo
103,Harbor,Surabaya`

	set, err := ParseBranches(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseBranches() error: %v", err)
	}

	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (bad rows dropped)", set.Len())
	}
	if set.dropped != 3 {
		t.Errorf("dropped = %d, want 3", set.dropped)
	}
	if _, ok := set.Lookup(102); ok {
		t.Error("row with empty name should have been dropped")
	}
}

func TestParseBranches_OptionsSortedAndDisambiguated(t *testing.T) {
	csv := `InternalID,Branch_Name,City
2,Central,Surabaya
1,Central,Jakarta
3,Alpha,`

	set, err := ParseBranches(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseBranches() error: %v", err)
	}

	options := set.Options()
	if len(options) != 3 {
		t.Fatalf("got %d options, want 3", len(options))
	}

	// Sorted by label; duplicate names carry the city suffix.
	if options[0].Label != "Alpha" {
		t.Errorf("first option = %q, want Alpha", options[0].Label)
	}
	if options[1].Label != "Central — Jakarta" || options[1].ID != 1 {
		t.Errorf("second option = %+v, want Central — Jakarta (1)", options[1])
	}
	if options[2].Label != "Central — Surabaya" || options[2].ID != 2 {
		t.Errorf("third option = %+v, want Central — Surabaya (2)", options[2])
	}
}

func TestParseBranches_DuplicateRowsCollapse(t *testing.T) {
	csv := `InternalID,Branch_Name,City
1,Central,Jakarta
1,Central,Jakarta`

	set, err := ParseBranches(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseBranches() error: %v", err)
	}

	if len(set.Options()) != 1 {
		t.Errorf("got %d options, want 1 (duplicates collapse)", len(set.Options()))
	}
}

func TestParseBranches_NoCityColumn(t *testing.T) {
	csv := `InternalID,Branch_Name
1,Central
2,Harbor`

	set, err := ParseBranches(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseBranches() error: %v", err)
	}

	for _, opt := range set.Options() {
		if strings.Contains(opt.Label, "—") {
			t.Errorf("label %q should not carry a city suffix", opt.Label)
		}
	}
}

func TestParseBranches_EmptyInput(t *testing.T) {
	if _, err := ParseBranches(context.Background(), strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}
