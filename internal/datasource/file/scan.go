// Package file locates the image files a pipeline run operates on, either by
// scanning a directory or by reading an explicit manifest.
package file

import (
	"fmt"
	"path/filepath"
	"sort"
)

// imagePattern matches the generator's naming scheme.
const imagePattern = "img_*.jpg"

// ScanImages returns the img_*.jpg files under dir, sorted by name so ids
// process in a stable order. A missing or empty directory yields an empty
// slice, not an error; callers decide whether that is fatal.
func ScanImages(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, imagePattern))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(matches)
	return matches, nil
}
