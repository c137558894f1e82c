package grf

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// ErrNotFile is returned when reading an entry which is a directory.
var ErrNotFile = errors.New("not a file")

var errShortInflate = errors.New("inflated data shorter than expected")

// Archive reads GRF archives. It is safe for concurrent use.
type Archive struct {
	Header Header

	entries []Entry // sorted by path, unique
	size    int64   // of the whole archive

	mu sync.Mutex // guards r
	r  io.ReadSeeker
	c  io.Closer
}

// Open opens the archive at path.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := NewArchive(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	a.c = f
	glog.V(1).Infof("grf: opened %s (%d entries)", path, len(a.entries))
	return a, nil
}

// NewArchive reads the header and table from r. If r implements io.Closer, it
// is not closed by Archive.Close.
func NewArchive(r io.ReadSeeker) (*Archive, error) {
	a := &Archive{r: r}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek to end: %w", err)
	}
	a.size = size
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to header: %w", err)
	}
	if err := a.Header.Deserialize(r); err != nil {
		return nil, err
	}
	n, err := a.Header.Count()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if _, err := r.Seek(HeaderSize+int64(a.Header.TableOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to table: %w", err)
	}
	es, err := readTable(r, n)
	if err != nil {
		return nil, err
	}
	a.entries = sortEntries(es)
	return a, nil
}

// sortEntries sorts es by path. If a path occurs more than once, the last
// occurrence wins.
func sortEntries(es []Entry) []Entry {
	sort.SliceStable(es, func(i, j int) bool {
		return es[i].Path < es[j].Path
	})
	out := es[:0]
	for i, e := range es {
		if i+1 < len(es) && es[i+1].Path == e.Path {
			glog.Warningf("grf: duplicate entry %q", e.Path)
			continue
		}
		out = append(out, e)
	}
	return out
}

// Close closes the underlying file if the archive was created by Open.
func (a *Archive) Close() error {
	if a.c != nil {
		return a.c.Close()
	}
	return nil
}

// Entries returns the table entries sorted by path.
func (a *Archive) Entries() []Entry {
	return append([]Entry(nil), a.entries...)
}

// search returns the index of the first entry not less than p.
func (a *Archive) search(p string) int {
	return sort.Search(len(a.entries), func(i int) bool {
		return a.entries[i].Path >= p
	})
}

// Lookup finds the entry for name. Directories which only exist implicitly as
// the parent of other entries are not returned.
func (a *Archive) Lookup(name string) (Entry, bool) {
	p := Clean(name)
	if i := a.search(p); i < len(a.entries) && a.entries[i].Path == p {
		return a.entries[i], true
	}
	return Entry{}, false
}

// IsDirectory checks whether name is a directory entry, or the parent of any
// entry.
func (a *Archive) IsDirectory(name string) bool {
	p := Clean(name)
	if p == "" {
		return true
	}
	if e, ok := a.Lookup(p); ok {
		return e.IsDir()
	}
	i := a.search(p + "/")
	return i < len(a.entries) && strings.HasPrefix(a.entries[i].Path, p+"/")
}

// ReadDirectory returns the immediate children of name, sorted by path.
// Subdirectories without an entry of their own are returned as synthesized
// directory entries.
func (a *Archive) ReadDirectory(name string) ([]Entry, error) {
	p := Clean(name)
	if !a.IsDirectory(p) {
		if _, ok := a.Lookup(p); ok {
			return nil, fmt.Errorf("read directory %q: not a directory", p)
		}
		return nil, fmt.Errorf("read directory %q: %w", p, fs.ErrNotExist)
	}
	prefix := p
	if prefix != "" {
		prefix += "/"
	}

	// the table is sorted by full path, so the prefix range also contains
	// grandchildren
	lo := a.search(prefix)
	hi := lo + sort.Search(len(a.entries)-lo, func(i int) bool {
		return !strings.HasPrefix(a.entries[lo+i].Path, prefix)
	})

	var es []Entry
	seen := map[string]bool{}
	for _, e := range a.entries[lo:hi] {
		rel := e.Path[len(prefix):]
		if rel == "" {
			continue
		}
		// an explicit directory entry sorts before its children, so it is
		// always seen before any synthesized one
		if i := strings.IndexByte(rel, '/'); i >= 0 {
			if d := prefix + rel[:i]; !seen[d] {
				seen[d] = true
				es = append(es, Entry{Path: d})
			}
			continue
		}
		if !seen[e.Path] {
			seen[e.Path] = true
			es = append(es, e)
		}
	}
	sort.Slice(es, func(i, j int) bool {
		return es[i].Path < es[j].Path
	})
	return es, nil
}

// ReadPath reads and decodes the contents of name, which is matched the same
// way as Lookup.
func (a *Archive) ReadPath(name string) ([]byte, error) {
	e, ok := a.Lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	if e.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: ErrNotFile}
	}
	b, err := a.ReadEntry(e)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return b, nil
}

// ReadEntry reads and decodes the contents of e.
func (a *Archive) ReadEntry(e Entry) ([]byte, error) {
	mode, err := e.Flags.Encryption()
	if err != nil {
		return nil, err
	}
	if e.CompressedSize > e.AlignedSize {
		return nil, fmt.Errorf("compressed size %d larger than aligned size %d", e.CompressedSize, e.AlignedSize)
	}
	buf, err := a.readRaw(e)
	if err != nil {
		return nil, err
	}
	decrypt(buf, mode, e.CompressedSize)
	return inflate(buf[:e.CompressedSize], e.Size)
}

// readRaw reads the aligned payload of e. The seek and read happen under the
// lock; everything else is done on the returned buffer.
func (a *Archive) readRaw(e Entry) ([]byte, error) {
	if end := HeaderSize + int64(e.Offset) + int64(e.AlignedSize); end > a.size {
		return nil, fmt.Errorf("data at offset %d with size %d extends past the end of the archive (%d bytes)", e.Offset, e.AlignedSize, a.size)
	}
	buf := make([]byte, e.AlignedSize)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.r.Seek(HeaderSize+int64(e.Offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to data: %w", err)
	}
	if _, err := io.ReadFull(a.r, buf); err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return buf, nil
}

// inflate decompresses b, which must produce exactly size bytes.
func inflate(b []byte, size uint32) ([]byte, error) {
	if size == 0 && len(b) == 0 {
		return []byte{}, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	defer zr.Close()

	// the buffer grows with the decompressed data rather than the size from
	// the table
	out, err := io.ReadAll(io.LimitReader(zr, int64(size)+1))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = errShortInflate
		}
		return nil, fmt.Errorf("inflate: %w", err)
	}
	switch {
	case len(out) < int(size):
		return nil, fmt.Errorf("inflate: %w (got %d of %d bytes)", errShortInflate, len(out), size)
	case len(out) > int(size):
		return nil, fmt.Errorf("inflate: more than %d bytes", size)
	}
	return out, nil
}
