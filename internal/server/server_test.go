package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/adnsv/xlstream/internal/report"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"people.csv": "Alice,1234.5\nBob,99\n",
		"teams.csv":  "Red\nBlue\n",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := &report.Config{
		Name:    "monthly report",
		BaseDir: dir,
		Sheets: []report.SheetConfig{
			{
				Name:    "People",
				Columns: []report.ColumnConfig{{Label: "Name", Format: "string"}, {Label: "Amount", Format: "price"}},
				Source:  report.SourceConfig{CSV: "people.csv"},
			},
			{Name: "Team List", Source: report.SourceConfig{CSV: "teams.csv"}},
		},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &Server{
		Builder: &report.Builder{Config: cfg, TempDir: t.TempDir(), Logger: log},
		Logger:  log,
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "healthy" || out["sheets"] != float64(2) {
		t.Errorf("health = %v", out)
	}
}

func TestDownloadReport(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/report")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Content-Type"); got != xlsxContentType {
		t.Errorf("content type = %q", got)
	}
	if got, want := resp.Header.Get("Content-Disposition"), "attachment; filename*=UTF-8''monthly%20report.xlsx"; got != want {
		t.Errorf("disposition = %q, want %q", got, want)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("cache control = %q", got)
	}

	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := f.GetSheetList(); !slices.Equal(got, []string{"People", "Team List"}) {
		t.Errorf("sheets = %q", got)
	}
	rows, err := f.GetRows("People", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || !slices.Equal(rows[1], []string{"Alice", "1234.5"}) {
		t.Errorf("rows = %q", rows)
	}
}

func TestDownloadSheet(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/report/Team%20List.xlsx")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if got, want := resp.Header.Get("Content-Disposition"), "attachment; filename*=UTF-8''Team%20List.xlsx"; got != want {
		t.Errorf("disposition = %q, want %q", got, want)
	}
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := f.GetSheetList(); !slices.Equal(got, []string{"Team List"}) {
		t.Errorf("sheets = %q", got)
	}

	resp, _ = get(t, ts.URL+"/report/Nope.xlsx")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown sheet status = %d", resp.StatusCode)
	}
	resp, _ = get(t, ts.URL+"/report/People.csv")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("wrong extension status = %d", resp.StatusCode)
	}
}
