package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"report.yaml": "name: test\nsheets:\n  - name: Data\n    columns: [{label: N}]\n    source: {csv: data.csv}\n",
		"data.csv":    "1\n2\n3\n",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	out := filepath.Join(dir, "out.xlsx")
	unzipped := filepath.Join(dir, "parts")

	rootCmd.SetArgs([]string{
		"build",
		"-c", filepath.Join(dir, "report.yaml"),
		"-o", out,
		"--unzipped", unzipped,
		"--temp-dir", t.TempDir(),
		"--log-level", "error",
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}

	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		t.Fatalf("output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(unzipped, "xl", "worksheets", "sheet1.xml")); err != nil {
		t.Errorf("unzipped sheet missing: %v", err)
	}
}
