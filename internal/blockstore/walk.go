package blockstore

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Entry is one node of a tree to add, in walk order.
type Entry struct {
	// Rel is the slash-separated path including the root directory's name.
	Rel   string
	Abs   string
	IsDir bool
	Size  int64
}

// Walk lists root and everything below it in lexical order. Symlinks and other
// non-regular files are skipped and not followed; dot entries are skipped unless
// hidden is set.
func Walk(root string, hidden bool) ([]Entry, error) {
	root = filepath.Clean(root)
	base := filepath.Base(root)
	var out []Entry
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel != "." && !hidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := base
		if rel != "." {
			name = base + "/" + filepath.ToSlash(rel)
		}
		switch {
		case d.IsDir():
			out = append(out, Entry{Rel: name, Abs: p, IsDir: true})
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			out = append(out, Entry{Rel: name, Abs: p, Size: info.Size()})
		}
		return nil
	})
	return out, err
}
