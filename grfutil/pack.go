package grfutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/rorebuild/grf"
)

// LoadRules reads the encryption and ignore rules at the root of dir. Missing
// files are replaced by the defaults: no encryption, and the default ignore
// rules.
func LoadRules(dir string) (Crypt, Ignore, error) {
	var (
		crypt  Crypt
		ignore Ignore
	)
	if err := crypt.ParseFile(filepath.Join(dir, CryptFilename)); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return crypt, ignore, fmt.Errorf("load %s: %w", CryptFilename, err)
		}
	}
	if err := ignore.ParseFile(filepath.Join(dir, IgnoreFilename)); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return crypt, ignore, fmt.Errorf("load %s: %w", IgnoreFilename, err)
		}
		ignore.AddDefault()
	}
	return crypt, ignore, nil
}

// PackDir adds the files under dir to w, skipping ignored paths and
// encrypting each according to crypt. Directories left without any files are
// added as directory entries. If fn is not nil, it is called for each file
// before it is added.
func PackDir(w *grf.Writer, dir string, crypt Crypt, ignore Ignore, fn func(name string, mode grf.Encryption)) error {
	used := map[string]bool{}
	var dirs []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := grf.Clean(filepath.ToSlash(rel))
		if ignore.Match(name) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, name)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		mode := crypt.Match(name)
		if fn != nil {
			fn(name, mode)
		}
		buf, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := w.AddFile(name, buf, mode); err != nil {
			return err
		}
		for parent := path.Dir(name); parent != "." && !used[parent]; parent = path.Dir(parent) {
			used[parent] = true
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pack %q: %w", dir, err)
	}
	for _, d := range dirs {
		if !used[d] {
			if err := w.AddDirectory(d); err != nil {
				return fmt.Errorf("pack %q: %w", dir, err)
			}
		}
	}
	return nil
}
