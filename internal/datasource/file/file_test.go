package file

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// TestScanImages checks pattern filtering and stable ordering.
func TestScanImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"img_003.jpg", "img_001.jpg", "img_002.jpg", "notes.txt", "img_004.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{0xff}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ScanImages(dir)
	if err != nil {
		t.Fatalf("ScanImages: %v", err)
	}
	want := []string{
		filepath.Join(dir, "img_001.jpg"),
		filepath.Join(dir, "img_002.jpg"),
		filepath.Join(dir, "img_003.jpg"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestScanImagesMissingDir checks a nonexistent directory is empty, not fatal.
func TestScanImagesMissingDir(t *testing.T) {
	t.Parallel()

	got, err := ScanImages(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("ScanImages: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

// TestReadManifest checks comment and blank-line handling.
func TestReadManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "list.txt")
	body := "# header comment\n/a/img_001.jpg\n\n  /b/img_002.jpg  \n# trailer\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	want := []string{"/a/img_001.jpg", "/b/img_002.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReadManifestMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := ReadManifest(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("missing manifest accepted")
	}
}
