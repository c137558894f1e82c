package grf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"sort"
)

// Writer builds a version 2.0 archive in memory.
type Writer struct {
	// Seed scrambles the stored entry count. Any value is valid.
	Seed uint32

	// AllowList is copied into the header as-is.
	AllowList [14]byte

	files map[string]*writerFile
}

type writerFile struct {
	entry Entry
	data  []byte // compressed, padded, and encrypted
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{files: map[string]*writerFile{}}
}

// AddFile compresses and encrypts data, adding it as name. Adding a path
// twice replaces the previous entry.
func (w *Writer) AddFile(name string, data []byte, mode Encryption) error {
	p := Clean(name)
	if p == "" {
		return fmt.Errorf("add file %q: empty path", name)
	}

	var flags Flags
	switch mode {
	case EncryptNone:
		flags = FlagFile
	case EncryptMixed:
		flags = FlagFile | FlagMixed
	case EncryptHeader:
		flags = FlagFile | FlagHeader
	default:
		return fmt.Errorf("add file %q: unknown encryption mode %d", name, mode)
	}

	var b bytes.Buffer
	zw := zlib.NewWriter(&b)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("add file %q: compress: %w", name, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("add file %q: compress: %w", name, err)
	}

	csz := b.Len()
	buf := make([]byte, (csz+7)&^7)
	copy(buf, b.Bytes())
	encrypt(buf, mode, uint32(csz))

	w.files[p] = &writerFile{
		entry: Entry{
			Path:           p,
			CompressedSize: uint32(csz),
			AlignedSize:    uint32(len(buf)),
			Size:           uint32(len(data)),
			Flags:          flags,
		},
		data: buf,
	}
	return nil
}

// AddDirectory adds an explicit directory entry for name.
func (w *Writer) AddDirectory(name string) error {
	p := Clean(name)
	if p == "" {
		return fmt.Errorf("add directory %q: empty path", name)
	}
	w.files[p] = &writerFile{entry: Entry{Path: p}}
	return nil
}

// Copy adds e from a as stored, without decrypting or decompressing it.
func (w *Writer) Copy(a *Archive, e Entry) error {
	p := Clean(e.Path)
	if p == "" {
		return fmt.Errorf("copy entry %q: empty path", e.Path)
	}
	if e.IsDir() {
		w.files[p] = &writerFile{entry: Entry{Path: p}}
		return nil
	}
	if _, err := e.Flags.Encryption(); err != nil {
		return fmt.Errorf("copy entry %q: %w", e.Path, err)
	}
	buf, err := a.readRaw(e)
	if err != nil {
		return fmt.Errorf("copy entry %q: %w", e.Path, err)
	}
	e.Path, e.Offset = p, 0
	w.files[p] = &writerFile{entry: e, data: buf}
	return nil
}

// Remove removes name if it was added.
func (w *Writer) Remove(name string) bool {
	p := Clean(name)
	_, ok := w.files[p]
	delete(w.files, p)
	return ok
}

// Len returns the number of entries added.
func (w *Writer) Len() int {
	return len(w.files)
}

// WriteTo writes the archive to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	ps := make([]string, 0, len(w.files))
	for p := range w.files {
		ps = append(ps, p)
	}
	sort.Strings(ps)

	var off uint32
	es := make([]Entry, len(ps))
	for i, p := range ps {
		f := w.files[p]
		es[i] = f.entry
		if !f.entry.IsDir() {
			es[i].Offset = off
			off += uint32(len(f.data))
		}
	}

	cw := &countWriter{w: out}
	h := Header{
		AllowList:   w.AllowList,
		TableOffset: off,
		Seed:        w.Seed,
		Scrambled:   uint32(len(es)) + w.Seed + countBias,
		Major:       Version.Major,
		Minor:       Version.Minor,
	}
	copy(h.Magic[:], Magic)
	if err := h.Serialize(cw); err != nil {
		return cw.n, err
	}
	for _, p := range ps {
		if _, err := cw.Write(w.files[p].data); err != nil {
			return cw.n, fmt.Errorf("write data for %q: %w", p, err)
		}
	}
	if err := writeTable(cw, es); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(b []byte) (n int, err error) {
	n, err = c.w.Write(b)
	c.n += int64(n)
	return
}
