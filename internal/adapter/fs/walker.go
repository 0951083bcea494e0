package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"docrag/internal/port"
)

type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk returns the files under root that match an include pattern and no
// exclude pattern, sorted by path. Patterns match the slash-separated path
// relative to root, case-insensitively.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	var files []port.FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.shouldInclude(relPath) || w.shouldExclude(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, fileInfo(path, info))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Collect expands paths into files. Directories are walked; files named
// explicitly are taken as they are. Duplicates are dropped.
func (w *Walker) Collect(paths []string) ([]port.FileInfo, error) {
	seen := make(map[string]bool)
	var files []port.FileInfo

	add := func(f port.FileInfo) {
		if !seen[f.Path] {
			seen[f.Path] = true
			files = append(files, f)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, err
			}
			add(fileInfo(abs, info))
			continue
		}

		walked, err := w.Walk(p)
		if err != nil {
			return nil, err
		}
		for _, f := range walked {
			add(f)
		}
	}
	return files, nil
}

func fileInfo(path string, info os.FileInfo) port.FileInfo {
	return port.FileInfo{
		Path:    path,
		ModTime: info.ModTime().Unix(),
		Size:    info.Size(),
	}
}

func (w *Walker) shouldInclude(path string) bool {
	return matchAny(w.includes, path)
}

func (w *Walker) shouldExclude(path string) bool {
	return matchAny(w.excludes, path)
}

func matchAny(patterns []string, path string) bool {
	path = strings.ToLower(path)
	for _, pattern := range patterns {
		matched, err := doublestar.Match(strings.ToLower(pattern), path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
