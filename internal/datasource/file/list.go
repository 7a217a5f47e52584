package file

import (
	"bufio"
	"os"
	"strings"
)

// ReadManifest reads a text file listing image paths, one per line, and
// returns the non-empty, non-comment lines in order.
//
// Lines that are empty or start with '#' (after trimming leading/trailing
// whitespace) are skipped, so manifests can carry comments and blank
// separators.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
