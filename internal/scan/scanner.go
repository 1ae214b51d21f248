package scan

import (
	"os"
	"path/filepath"
	"strings"
)

type FileInfo struct {
	Path  string
	Mtime int64
	Size  int64
}

// exportExts are the extensions picked up when walking a directory.
var exportExts = map[string]bool{".txt": true, ".zip": true}

// Expand turns command-line paths into export files. Files are taken as
// given; directories are walked for *.txt and *.zip. Duplicates are dropped.
func Expand(paths []string) ([]FileInfo, error) {
	seen := make(map[string]bool)
	var files []FileInfo

	add := func(path string, info os.FileInfo) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		files = append(files, FileInfo{
			Path:  abs,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root, info)
			continue
		}

		type hit struct {
			path string
			info os.FileInfo
		}
		var found []hit
		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip unreadable dirs
			}
			if info.IsDir() {
				if path != root && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !exportExts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			found = append(found, hit{path, info})
			return nil
		})
		if err != nil {
			return nil, err
		}
		for _, h := range found {
			add(h.path, h.info)
		}
	}
	return files, nil
}
