package util

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func MkDirAllInheritPerm(path string) error {
	var stat os.FileInfo
	var err error
	cwpath := path
	for {
		parent := filepath.Dir(cwpath)
		stat, err = os.Stat(parent)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				cwpath = parent
				continue
			}
			return err
		}
		break
	}

	return os.MkdirAll(path, stat.Mode())
}

// ListFiles walks dir and returns the sorted paths of the regular files
// whose extension matches one of exts (case insensitive). No exts matches all.
func ListFiles(dir string, exts ...string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(exts) == 0 || HasExtension(path, exts...) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func HasExtension(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// Relative returns target relative to base, or target itself when no
// relative path exists.
func Relative(base string, target string) string {
	if filepath.IsAbs(base) != filepath.IsAbs(target) {
		absBase, errBase := filepath.Abs(base)
		absTarget, errTarget := filepath.Abs(target)
		if errBase == nil && errTarget == nil {
			base, target = absBase, absTarget
		}
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}

func DirExists(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.IsDir()
}
