package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type FileInfo struct {
	Path  string
	Mtime int64
	Size  int64
}

// IsSnapshot reports whether path names a saved HTML page.
func IsSnapshot(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// IgnoreDir reports whether a directory named name is left out of scans:
// hidden directories, and the "<page>_files" asset folders browsers save next
// to a page.
func IgnoreDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "_files")
}

// Stat describes one snapshot file.
func Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Path: path, Mtime: info.ModTime().Unix(), Size: info.Size()}, nil
}

// ScanRoots walks each root for HTML snapshots. A root may also be a single
// file. Missing roots are skipped; results are sorted by path.
func ScanRoots(roots ...string) ([]FileInfo, error) {
	var files []FileInfo
	for _, root := range roots {
		if root == "" {
			continue
		}
		found, err := scanRoot(root)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		files = append(files, found...)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func scanRoot(root string) ([]FileInfo, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if !IsSnapshot(root) {
			return nil, nil
		}
		return []FileInfo{{Path: root, Mtime: info.ModTime().Unix(), Size: info.Size()}}, nil
	}

	var files []FileInfo
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if path != root && IgnoreDir(filepath.Base(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsSnapshot(path) {
			return nil
		}
		files = append(files, FileInfo{
			Path:  path,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	return files, err
}
