package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleConfig = `
name: sales
workbook:
  title: Sales
  author: Finance
  keywords: [q1, sales]
database:
  driver: sqlite3
  dsn: ${REPORT_TEST_DSN}
sheets:
  - name: Regions
    auto_filter: true
    freeze_rows: 1
    header_style:
      font-style: bold
      fill: "#eeeeee"
      border: bottom
    columns:
      - {label: Region, format: string, width: 20}
      - {label: Amount, format: price, style: {halign: right}}
    source:
      query: SELECT region, amount FROM sales
  - name: Raw
    source:
      csv: data/raw.csv
      skip_header: true
    merges:
      - {from_row: 0, from_col: 0, to_row: 0, to_col: 2}
`

func TestParse(t *testing.T) {
	t.Setenv("REPORT_TEST_DSN", "file:test.db")
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.DSN != "file:test.db" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.FileName() != "sales.xlsx" {
		t.Errorf("file name = %q", cfg.FileName())
	}
	if len(cfg.Sheets) != 2 {
		t.Fatalf("sheets = %d", len(cfg.Sheets))
	}
	regions := cfg.Sheets[0]
	if !regions.AutoFilter || regions.FreezeRows != 1 {
		t.Errorf("sheet options = %+v", regions)
	}
	if regions.HeaderStyle == nil || regions.HeaderStyle.FontStyle != "bold" || regions.HeaderStyle.Border != "bottom" {
		t.Errorf("header style = %+v", regions.HeaderStyle)
	}
	if c := regions.Columns[1]; c.Format != "price" || c.Style == nil || c.Style.HAlign != "right" {
		t.Errorf("column = %+v", c)
	}
	if raw, ok := cfg.Sheet("Raw"); !ok || raw.Source.CSV != "data/raw.csv" || len(raw.Merges) != 1 {
		t.Errorf("raw sheet = %+v", raw)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "", "empty report definition"},
		{"unknown key", "sheets:\n  - name: A\n    colour: red\n    source: {csv: a.csv}\n", "colour"},
		{"no sheets", "name: x\n", "Sheets"},
		{"no source", "sheets:\n  - name: A\n", "CSV"},
		{"both sources", "database: {driver: sqlite3, dsn: x}\nsheets:\n  - name: A\n    source: {csv: a.csv, query: select 1}\n", "excluded_with"},
		{"duplicate sheets", "sheets:\n  - {name: A, source: {csv: a.csv}}\n  - {name: A, source: {csv: b.csv}}\n", "unique"},
		{"bad driver", "database: {driver: oracle, dsn: x}\nsheets:\n  - {name: A, source: {csv: a.csv}}\n", "oneof"},
		{"query without database", "sheets:\n  - {name: A, source: {query: select 1}}\n", "no database"},
		{"negative freeze", "sheets:\n  - {name: A, freeze_rows: -1, source: {csv: a.csv}}\n", "FreezeRows"},
		{"inverted merge", "sheets:\n  - name: A\n    source: {csv: a.csv}\n    merges: [{from_row: 2, to_row: 1}]\n", "gtefield"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadSetsBaseDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.yaml")
	if err := os.WriteFile(path, []byte("sheets:\n  - {name: A, source: {csv: a.csv}}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, dir)
	}
	if cfg.FileName() != "report.xlsx" {
		t.Errorf("file name = %q", cfg.FileName())
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
