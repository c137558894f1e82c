package grf

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/rorebuild/grf/internal/codepage"
)

// Ext is the file extension of an archive.
const Ext = ".grf"

// Clean normalizes an archive path for lookups: backslashes become forward
// slashes, the path is lowercased, and leading, trailing, and duplicate
// separators are removed. The root directory is the empty string.
func Clean(name string) string {
	p := codepage.NormalizePath(name)
	if p == "" || p == "." || p == "/" {
		return ""
	}
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

var (
	_ fs.FS          = (*Archive)(nil)
	_ fs.ReadFileFS  = (*Archive)(nil)
	_ fs.ReadDirFS   = (*Archive)(nil)
	_ fs.StatFS      = (*Archive)(nil)
	_ fs.File        = (*archiveFile)(nil)
	_ fs.ReadDirFile = (*archiveDir)(nil)
	_ fs.DirEntry    = (*archiveInfo)(nil)
	_ fs.FileInfo    = (*archiveInfo)(nil)
)

type archiveFile struct {
	info archiveInfo
	*bytes.Reader
}

func (f *archiveFile) Stat() (fs.FileInfo, error) {
	return &f.info, nil
}

func (f *archiveFile) Close() error {
	return nil
}

type archiveDir struct {
	info   archiveInfo
	entry  []fs.DirEntry
	offset int
}

func (f *archiveDir) Stat() (fs.FileInfo, error) {
	return &f.info, nil
}

func (f *archiveDir) Read(b []byte) (n int, err error) {
	return 0, &fs.PathError{Op: "read", Path: f.info.Name(), Err: fs.ErrInvalid}
}

func (f *archiveDir) Close() error {
	return nil
}

func (d *archiveDir) ReadDir(count int) ([]fs.DirEntry, error) {
	n := len(d.entry) - d.offset
	if n == 0 && count > 0 {
		return nil, io.EOF
	}
	if count > 0 && n > count {
		n = count
	}
	list := make([]fs.DirEntry, n)
	copy(list, d.entry[d.offset:])
	d.offset += n
	return list, nil
}

// archiveInfo describes an entry. Sys returns the Entry.
type archiveInfo struct {
	entry Entry
}

func (i *archiveInfo) Info() (fs.FileInfo, error) {
	return i, nil
}

func (i *archiveInfo) Type() fs.FileMode {
	return i.Mode().Type()
}

func (i *archiveInfo) Name() string {
	if i.entry.Path == "" {
		return "."
	}
	return path.Base(i.entry.Path)
}

func (i *archiveInfo) Size() int64 {
	if i.IsDir() {
		return 0
	}
	return int64(i.entry.Size)
}

func (i *archiveInfo) Mode() fs.FileMode {
	if i.IsDir() {
		return 0555 | fs.ModeDir
	}
	return 0444
}

func (i *archiveInfo) ModTime() time.Time {
	return time.Time{}
}

func (i *archiveInfo) IsDir() bool {
	return i.entry.IsDir()
}

func (i *archiveInfo) Sys() interface{} {
	return i.entry
}

// validPath checks that name is an unrooted slash-separated path in canonical
// form. Backslashes are rejected since Clean would treat them as separators.
func validPath(name string) bool {
	return fs.ValidPath(name) && !strings.ContainsRune(name, '\\')
}

// stat resolves name, which must be a valid fs path.
func (a *Archive) stat(op, name string) (Entry, error) {
	if !validPath(name) {
		return Entry{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	p := Clean(name)
	if e, ok := a.Lookup(p); ok {
		return e, nil
	}
	if a.IsDirectory(p) {
		return Entry{Path: p}, nil
	}
	return Entry{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
}

// Stat implements fs.StatFS. Names are matched case-insensitively.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	e, err := a.stat("stat", name)
	if err != nil {
		return nil, err
	}
	return &archiveInfo{e}, nil
}

// Open implements fs.FS. Files are read and decoded entirely when opened.
func (a *Archive) Open(name string) (fs.File, error) {
	e, err := a.stat("open", name)
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		ds, err := a.ReadDir(name)
		if err != nil {
			return nil, err
		}
		return &archiveDir{archiveInfo{e}, ds, 0}, nil
	}
	b, err := a.ReadEntry(e)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &archiveFile{archiveInfo{e}, bytes.NewReader(b)}, nil
}

// ReadDir implements fs.ReadDirFS.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if _, err := a.stat("readdir", name); err != nil {
		return nil, err
	}
	es, err := a.ReadDirectory(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	ds := make([]fs.DirEntry, len(es))
	for i, e := range es {
		ds[i] = &archiveInfo{e}
	}
	return ds, nil
}

// ReadFile implements fs.ReadFileFS. Unlike ReadPath, name must be a valid fs
// path, but it is still matched case-insensitively.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if !validPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return a.ReadPath(name)
}
