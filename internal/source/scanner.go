package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanPaths resolves files and directories into the .jsonl record files they
// contain. Directories are walked recursively; unreadable entries are skipped.
// Explicitly named files are accepted regardless of extension.
func ScanPaths(paths []string) ([]DiscoveredFile, error) {
	var files []DiscoveredFile
	seen := make(map[string]bool)

	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, DiscoveredFile{
			Path: path,
			Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		})
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // intentionally skip unreadable entries
			}
			if d.IsDir() || filepath.Ext(path) != ".jsonl" {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
