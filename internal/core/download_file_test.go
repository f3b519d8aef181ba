package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDownloader_Export(t *testing.T) {
	dir := t.TempDir()
	d := FileDownloader{Dir: dir}

	receipt, err := Export(d, ExportRequest{
		Result:    FlatResult([]complex128{complex(1, -1), 2}),
		SizeLabel: 2,
		Prefix:    "dft",
		Precision: DefaultPrecision,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, receipt.FileName))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if want := "1.000000 -1.0000\n2.000000 0.0000"; string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
	assertOnlyFiles(t, dir, "dft_N2.txt")
}

func TestFileDownloader_ReleaseWithoutTrigger(t *testing.T) {
	dir := t.TempDir()

	dl, err := FileDownloader{Dir: dir}.Acquire("dft_N4.txt", ContentType, 10)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := dl.Write([]byte("partial")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := dl.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	// A second release is harmless.
	if err := dl.Release(); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}

	assertOnlyFiles(t, dir)
}

func TestFileDownloader_RejectsPaths(t *testing.T) {
	d := FileDownloader{Dir: t.TempDir()}
	for _, name := range []string{"", "../escape.txt", "sub/dft_N1.txt"} {
		if _, err := d.Acquire(name, ContentType, 0); err == nil {
			t.Errorf("Acquire(%q) error = nil, want error", name)
		}
	}
}

func TestFileDownloader_MissingDir(t *testing.T) {
	d := FileDownloader{Dir: filepath.Join(t.TempDir(), "missing")}
	_, err := Export(d, ExportRequest{Result: FlatResult([]complex128{1}), SizeLabel: 1, Precision: DefaultPrecision})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Export() error = %v, want ErrNotExist", err)
	}
}

func assertOnlyFiles(t *testing.T, dir string, want ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	if len(got) != len(want) {
		t.Fatalf("dir contains %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dir contains %v, want %v", got, want)
		}
	}
}
