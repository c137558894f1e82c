package grfutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/rorebuild/grf"
)

// UpdateArchive edits the archive at path. Every entry of the archive is
// copied into a writer as stored, then fn is called to modify it. Unless
// dryRun is set, the result replaces the original file.
func UpdateArchive(path string, dryRun bool, fn func(a *grf.Archive, w *grf.Writer) error) error {
	a, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("open grf: %w", err)
	}
	defer a.Close()

	w := grf.NewWriter()
	w.Seed = a.Header.Seed
	w.AllowList = a.Header.AllowList
	for _, e := range a.Entries() {
		if err := w.Copy(a, e); err != nil {
			return fmt.Errorf("read grf: %w", err)
		}
	}

	if err := fn(a, w); err != nil {
		return err
	}
	if dryRun {
		return nil
	}

	tf, err := os.CreateTemp(filepath.Dir(path), ".grf*")
	if err != nil {
		return fmt.Errorf("write grf: create temp file: %w", err)
	}
	defer os.Remove(tf.Name())
	defer tf.Close()

	if _, err := w.WriteTo(tf); err != nil {
		return fmt.Errorf("write grf: %w", err)
	}
	if err := tf.Close(); err != nil {
		return fmt.Errorf("write grf: %w", err)
	}
	if err := a.Close(); err != nil {
		return fmt.Errorf("close grf: %w", err)
	}
	if err := os.Rename(tf.Name(), path); err != nil {
		return fmt.Errorf("write grf: replace original: %w", err)
	}
	glog.V(1).Infof("grfutil: rewrote %s (%d entries)", path, w.Len())
	return nil
}
