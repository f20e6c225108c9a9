package sheet

import (
	"strings"
	"testing"
)

func TestWriteTSV(t *testing.T) {
	expected := `Card Number	From	To	Gate	Tower	Dungeon	Lair
6001001	2020-01-01	2020-12-31	Y	N	N	Y
6001002	2020-02-03	2020-11-30	Y	Y	N	N
`

	var f strings.Builder
	var rows = [][]any{
		{"Card Number", "From", "To", "Gate", "Tower", "Dungeon", "Lair"},
		{"6001001", "2020-01-01", "2020-12-31", "Y", "N", "N", "Y"},
		{"6001002", "2020-02-03", "2020-11-30", "Y", "Y", "N", "N"},
	}

	if err := WriteTSV(&f, rows); err != nil {
		t.Fatalf("Unexpected error returned from WriteTSV (%v)", err)
	}

	if f.String() != expected {
		t.Errorf("Incorrect TSV\n   expected: %s\n   got:      %s\n", expected, f.String())
	}
}

func TestWriteTSVWithShortRows(t *testing.T) {
	expected := "Name\tQty\tNotes\nApples\t3\t\nPears\t\t\n"

	var f strings.Builder
	var rows = [][]any{
		{"Name", "Qty", "Notes"},
		{"Apples", "3"},
		{"Pears"},
	}

	if err := WriteTSV(&f, rows); err != nil {
		t.Fatalf("Unexpected error returned from WriteTSV (%v)", err)
	}

	if f.String() != expected {
		t.Errorf("Incorrect TSV\n   expected: %q\n   got:      %q\n", expected, f.String())
	}
}

func TestWriteTSVWithEmptySheet(t *testing.T) {
	var f strings.Builder

	if err := WriteTSV(&f, [][]any{}); err == nil {
		t.Fatalf("Expected error return for empty sheet, got %v", err)
	}
}

func TestWriteTSVWithoutHeaders(t *testing.T) {
	var f strings.Builder

	if err := WriteTSV(&f, [][]any{{}}); err == nil {
		t.Fatalf("Expected error return for missing headers, got %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	expected := `[
  {
    "Name": "Apples",
    "Qty": null
  }
]
`

	var f strings.Builder
	if err := WriteJSON(&f, [][]any{{"Name", "Qty"}, {"Apples"}}); err != nil {
		t.Fatalf("Unexpected error returned from WriteJSON (%v)", err)
	}

	if f.String() != expected {
		t.Errorf("Incorrect JSON\n   expected: %s\n   got:      %s\n", expected, f.String())
	}
}
