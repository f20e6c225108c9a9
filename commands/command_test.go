package commands

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	uhppoted "github.com/uhppoted/uhppoted-lib/command"
)

func TestCLI(t *testing.T) {
	expected := []string{"version", "run", "get", "upload", "authorise"}

	var cli []uhppoted.Command = CLI
	names := []string{}

	for _, cmd := range cli {
		names = append(names, cmd.Name())

		flagset := cmd.FlagSet()
		if flagset == nil {
			t.Fatalf("Missing flagset for command '%v'", cmd.Name())
		}

		if flagset.Name() != cmd.Name() {
			t.Errorf("Incorrect flagset name for command '%v' - expected:%v, got:%v", cmd.Name(), cmd.Name(), flagset.Name())
		}

		if cmd.Description() == "" {
			t.Errorf("Missing description for command '%v'", cmd.Name())
		}
	}

	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Incorrect command list\n   expected: %v\n   got:      %v\n", expected, names)
	}
}

func TestGetSpreadsheetID(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"},
		{"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=0", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"},
		{"  1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms ", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"},
	}

	for _, test := range tests {
		id, err := getSpreadsheetID(test.value)
		if err != nil {
			t.Fatalf("Unexpected error for %q (%v)", test.value, err)
		}

		if id != test.expected {
			t.Errorf("Incorrect spreadsheet ID\n   expected: %v\n   got:      %v\n", test.expected, id)
		}
	}
}

func TestGetSpreadsheetIDWithInvalidValue(t *testing.T) {
	for _, v := range []string{"", "https://example.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", "not an id"} {
		if _, err := getSpreadsheetID(v); err == nil {
			t.Errorf("Expected error for %q", v)
		}
	}
}

func TestMimeTypeOf(t *testing.T) {
	tests := map[string]string{
		"q1.csv":       "text/csv",
		"Q1.XLSX":      "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"legacy.xls":   "application/vnd.ms-excel",
		"dir.x/q1.csv": "text/csv",
	}

	for file, expected := range tests {
		mimeType, err := mimeTypeOf(file)
		if err != nil {
			t.Fatalf("Unexpected error for %v (%v)", file, err)
		}

		if mimeType != expected {
			t.Errorf("Incorrect MIME type for %v\n   expected: %v\n   got:      %v\n", file, expected, mimeType)
		}
	}

	if _, err := mimeTypeOf("report.pdf"); err == nil {
		t.Errorf("Expected error for PDF file")
	}
}

func TestServiceIdentity(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	os.WriteFile(valid, []byte(`{"type":"service_account","client_email":"relay@project.iam.gserviceaccount.com"}`), 0600)

	invalid := filepath.Join(dir, "invalid.json")
	os.WriteFile(invalid, []byte(`{"type":"service_account"}`), 0600)

	if identity, err := serviceIdentity(valid); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	} else if identity != "relay@project.iam.gserviceaccount.com" {
		t.Errorf("Incorrect identity - expected:%v, got:%v", "relay@project.iam.gserviceaccount.com", identity)
	}

	if _, err := serviceIdentity(invalid); err == nil {
		t.Errorf("Expected error for service account without client_email")
	}

	if _, err := serviceIdentity(filepath.Join(dir, "missing.json")); err == nil {
		t.Errorf("Expected error for missing file")
	}
}
