// Package grf reads and writes GRF archives, the encrypted zlib-compressed
// virtual filesystems the legacy client loads its assets from.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/go-restruct/restruct"
	"github.com/golang/glog"

	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/bin"
	"github.com/rorebuild/grf/internal/codepage"
)

// GRF constants.
const (
	Magic      = "Master of Magic\x00"
	HeaderSize = 46

	// the stored file count is offset by the seed plus this
	countBias = 7
)

// Version is the only archive version which can be read or written.
var Version = format.V(2, 0)

// Header is the fixed-size archive header.
type Header struct {
	Magic       [16]byte
	AllowList   [14]byte
	TableOffset uint32 // relative to the end of the header
	Seed        uint32
	Scrambled   uint32
	Build       uint8
	Major       uint8
	Minor       uint8
	Pad         uint8
}

// Version returns the archive version from the header.
func (h Header) Version() format.Version {
	return format.Version{Major: h.Major, Minor: h.Minor, Build: uint32(h.Build)}
}

// Count returns the descrambled number of table entries.
func (h Header) Count() (int, error) {
	n := int32(h.Scrambled - h.Seed - countBias)
	if n < 0 {
		return 0, fmt.Errorf("negative entry count (scrambled %d, seed %d)", h.Scrambled, h.Seed)
	}
	return int(n), nil
}

// Deserialize parses a Header from r, checking the magic and version.
func (h *Header) Deserialize(r io.Reader) error {
	var b [HeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if err := restruct.Unpack(b[:], binary.LittleEndian, h); err != nil {
		return fmt.Errorf("unpack header: %w", err)
	}
	if string(h.Magic[:]) != Magic {
		return &format.SignatureError{Format: "grf", Got: h.Magic[:]}
	}
	if v := h.Version(); v != Version {
		return &format.UnsupportedVersionError{Format: "grf", Version: v}
	}
	return nil
}

// Serialize writes an encoded Header to w.
func (h Header) Serialize(w io.Writer) error {
	b, err := restruct.Pack(binary.LittleEndian, &h)
	if err != nil {
		return fmt.Errorf("pack header: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Flags describes an archive entry.
type Flags uint8

const (
	FlagFile   Flags = 0x01
	FlagMixed  Flags = 0x02
	FlagHeader Flags = 0x04
)

// ErrEncryptionConflict is returned for entries which have both encryption
// flags set.
var ErrEncryptionConflict = fmt.Errorf("%w: entry has both mixed and header encryption flags", format.ErrWrongSignature)

// Encryption returns the encryption mode selected by the flags.
func (f Flags) Encryption() (Encryption, error) {
	switch {
	case f&FlagMixed != 0 && f&FlagHeader != 0:
		return 0, ErrEncryptionConflict
	case f&FlagMixed != 0:
		return EncryptMixed, nil
	case f&FlagHeader != 0:
		return EncryptHeader, nil
	default:
		return EncryptNone, nil
	}
}

var flagNames = [8]string{
	0: "FILE",
	1: "MIXED",
	2: "HEADER",
}

// DescribeFlags returns a human-readable slice of strings describing the
// provided flags.
func DescribeFlags(f Flags) (s []string) {
	for i, x := range flagNames {
		if f&(1<<i) != 0 {
			if x == "" {
				x = fmt.Sprintf("%02d", i)
			}
			s = append(s, x)
		}
	}
	return
}

// Entry is a file or directory in the archive table.
type Entry struct {
	Path           string // normalized: lowercase, forward slashes
	CompressedSize uint32
	AlignedSize    uint32
	Size           uint32
	Flags          Flags
	Offset         uint32 // relative to the end of the header
}

// IsDir checks whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Flags&FlagFile == 0
}

// entryTail is the fixed part of a table entry following the path.
type entryTail struct {
	CompressedSize uint32
	AlignedSize    uint32
	Size           uint32
	Flags          uint8
	Offset         uint32
}

const entryTailSize = 17

// Deserialize parses an Entry from r.
func (e *Entry) Deserialize(r *bin.Reader) error {
	p, err := r.CString()
	if err != nil {
		return fmt.Errorf("read entry path: %w", err)
	}
	if e.Path, err = codepage.DecodePath(p); err != nil {
		return fmt.Errorf("read entry path: %w", err)
	}
	e.Path = strings.Trim(e.Path, "/")

	var b [entryTailSize]byte
	if err := r.Fixed(b[:]); err != nil {
		return fmt.Errorf("read entry %q: %w", e.Path, err)
	}
	var t entryTail
	if err := restruct.Unpack(b[:], binary.LittleEndian, &t); err != nil {
		return fmt.Errorf("unpack entry %q: %w", e.Path, err)
	}
	e.CompressedSize = t.CompressedSize
	e.AlignedSize = t.AlignedSize
	e.Size = t.Size
	e.Flags = Flags(t.Flags)
	e.Offset = t.Offset
	return nil
}

// Serialize writes an encoded Entry to w. The path is written with
// backslashes.
func (e Entry) Serialize(w *bin.Writer) error {
	w.CPath(e.Path)
	b, err := restruct.Pack(binary.LittleEndian, &entryTail{
		CompressedSize: e.CompressedSize,
		AlignedSize:    e.AlignedSize,
		Size:           e.Size,
		Flags:          uint8(e.Flags),
		Offset:         e.Offset,
	})
	if err != nil {
		return fmt.Errorf("pack entry %q: %w", e.Path, err)
	}
	w.Write(b)
	if err := w.Err(); err != nil {
		return fmt.Errorf("write entry %q: %w", e.Path, err)
	}
	return nil
}

// readTable reads the compressed table of count entries from r, which must be
// positioned at the start of it.
func readTable(r io.Reader, count int) ([]Entry, error) {
	var sz [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &sz); err != nil {
		return nil, fmt.Errorf("read table size: %w", err)
	}
	zr, err := zlib.NewReader(io.LimitReader(r, int64(sz[0])))
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(io.LimitReader(zr, int64(sz[1])))
	if err != nil {
		return nil, fmt.Errorf("inflate table: %w", err)
	}
	if len(raw) != int(sz[1]) {
		glog.Warningf("grf: table inflated to %d bytes, expected %d", len(raw), sz[1])
	}

	br := bin.NewReader(bytes.NewReader(raw))
	es := make([]Entry, 0, min(count, 1<<16))
	for i := 0; i < count; i++ {
		var e Entry
		if err := e.Deserialize(br); err != nil {
			if bin.IsEOF(err) {
				glog.Warningf("grf: table ended after %d of %d entries", i, count)
				break
			}
			return nil, fmt.Errorf("read table entry %d: %w", i, err)
		}
		es = append(es, e)
	}
	return es, nil
}

// writeTable writes the compressed table for es to w.
func writeTable(w io.Writer, es []Entry) error {
	var raw bytes.Buffer
	bw := bin.NewWriter(&raw)
	for _, e := range es {
		if err := e.Serialize(bw); err != nil {
			return err
		}
	}

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("compress table: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress table: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, [2]uint32{uint32(z.Len()), uint32(raw.Len())}); err != nil {
		return fmt.Errorf("write table size: %w", err)
	}
	if _, err := w.Write(z.Bytes()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
