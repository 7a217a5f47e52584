package imagegen

import (
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// TestGenerate checks file naming, count, and decodability.
func TestGenerate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths, err := Generate(Options{Dir: dir, Count: 5, Seed: 42})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(paths) != 5 {
		t.Fatalf("got %d paths, want 5", len(paths))
	}
	if want := filepath.Join(dir, "img_001.jpg"); paths[0] != want {
		t.Fatalf("paths[0] = %s, want %s", paths[0], want)
	}

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			t.Fatalf("open %s: %v", p, err)
		}
		img, err := jpeg.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", p, err)
		}
		b := img.Bounds()
		if b.Dx() != Width || b.Dy() != Height {
			t.Fatalf("%s is %dx%d, want %dx%d", p, b.Dx(), b.Dy(), Width, Height)
		}
	}
}

// TestGenerateDeterministic checks the same seed reproduces identical files.
func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()

	dirA, dirB := t.TempDir(), t.TempDir()
	pathsA, err := Generate(Options{Dir: dirA, Count: 3, Seed: 7})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	pathsB, err := Generate(Options{Dir: dirB, Count: 3, Seed: 7})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for i := range pathsA {
		a, err := os.ReadFile(pathsA[i])
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(pathsB[i])
		if err != nil {
			t.Fatal(err)
		}
		if string(a) != string(b) {
			t.Fatalf("%s differs between runs with the same seed", filepath.Base(pathsA[i]))
		}
	}
}

func TestGenerateRejectsBadCount(t *testing.T) {
	t.Parallel()

	if _, err := Generate(Options{Dir: t.TempDir(), Count: 0}); err == nil {
		t.Fatal("count 0 accepted")
	}
}
