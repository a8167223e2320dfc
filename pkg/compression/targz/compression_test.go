package targz

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroframe/retroframe/pkg/logger"
)

func writeArchive(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.tar.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, body := range entries {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body))}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtract(t *testing.T) {
	src := writeArchive(t, map[string]string{
		"dir/a.txt": "alpha",
		"b.txt":     "beta",
	})
	dest := t.TempDir()
	files, err := New(logger.Default()).Extract(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("extracted %d files, want 2", len(files))
	}
	got, err := os.ReadFile(filepath.Join(dest, "dir", "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "alpha" {
		t.Errorf("a.txt = %q, want alpha", got)
	}
}

func TestExtractSkipsEscapingPaths(t *testing.T) {
	src := writeArchive(t, map[string]string{"../escape.txt": "nope"})
	dest := t.TempDir()
	files, err := New(logger.Default()).Extract(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("extracted %v, want none", files)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "escape.txt")); !os.IsNotExist(err) {
		t.Error("escaping file was written")
	}
}
