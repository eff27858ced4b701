package main

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatNumber(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1.000",
		1234567:  "1.234.567",
		-1234567: "-1.234.567",
	}
	for in, want := range tests {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := map[float64]string{
		0:         "0,00",
		2.5:       "2,50",
		1234.567:  "1.234,57",
		-1234.5:   "-1.234,50",
		1000000.1: "1.000.000,10",
	}
	for in, want := range tests {
		if got := formatMoney(in); got != want {
			t.Errorf("formatMoney(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	if got := formatBytes(512); got != "512 B" {
		t.Errorf("got %q", got)
	}
	if got := formatBytes(1536); got != "1.5 KB" {
		t.Errorf("got %q", got)
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := expandPaths([]string{filepath.Join(dir, "*.csv"), "missing.csv"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"), "missing.csv"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, body := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestUnzipFile(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "sales.zip")
	writeZip(t, archive, map[string]string{"sales.csv": "product,quantity\nA,1\n", "README.txt": "x"})

	out := filepath.Join(dir, "out")
	files, err := unzipFile(archive, out)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "sales.csv" {
		t.Fatalf("extracted %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil || string(data) != "product,quantity\nA,1\n" {
		t.Errorf("content = %q, err = %v", data, err)
	}
}

func TestUnzipFile_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	writeZip(t, archive, map[string]string{"../evil.csv": "x"})

	if _, err := unzipFile(archive, filepath.Join(dir, "out")); err == nil {
		t.Error("expected traversal to be rejected")
	}
}
