package rom

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Entry is one image found by Scan.
type Entry struct {
	Name string
	Path string
}

// Scan lists the files in dir whose extension matches one of extensions,
// case-insensitively, sorted by name. Subdirectories are not descended.
func Scan(dir string, extensions []string) ([]Entry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	var entries []Entry
	for _, item := range items {
		if item.IsDir() || !matchesExtension(item.Name(), extensions) {
			continue
		}
		entries = append(entries, Entry{
			Name: item.Name(),
			Path: filepath.Join(dir, item.Name()),
		})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return entries, nil
}

// matchesExtension compares the final extension only, so "x.gb.bak" does
// not match ".gb". ".tar.gz" matches through ".gz".
func matchesExtension(name string, extensions []string) bool {
	ext := filepath.Ext(name)
	for _, want := range extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
