// Package bin reads and writes the little-endian primitives the asset formats
// are built from.
package bin

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/codepage"
)

// Reader decodes little-endian primitives from an underlying reader. Any
// shortfall is reported as io.ErrUnexpectedEOF, including a clean EOF before
// the first byte of a value.
type Reader struct {
	r   io.Reader
	buf [16]byte
}

// NewReader wraps r. The reader is buffered unless it already implements
// io.ByteReader.
func NewReader(r io.Reader) *Reader {
	if _, ok := r.(io.ByteReader); !ok {
		r = bufio.NewReader(r)
	}
	return &Reader{r: r}
}

func (r *Reader) fill(b []byte) error {
	if _, err := io.ReadFull(r.r, b); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// U8 reads a byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.fill(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

// I8 reads a signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16 reads a uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.fill(r.buf[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.buf[:2]), nil
}

// I16 reads an int16.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U32 reads a uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.fill(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[:4]), nil
}

// I32 reads an int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// F32 reads an IEEE-754 float32.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// Vec2 reads two float32s.
func (r *Reader) Vec2() (v [2]float32, err error) {
	err = r.F32s(v[:])
	return
}

// Vec3 reads three float32s.
func (r *Reader) Vec3() (v [3]float32, err error) {
	err = r.F32s(v[:])
	return
}

// Vec4 reads four float32s.
func (r *Reader) Vec4() (v [4]float32, err error) {
	err = r.F32s(v[:])
	return
}

// F32s fills dst with float32s.
func (r *Reader) F32s(dst []float32) error {
	for i := range dst {
		v, err := r.F32()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// I32s fills dst with int32s.
func (r *Reader) I32s(dst []int32) error {
	for i := range dst {
		v, err := r.I32()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// U16s fills dst with uint16s.
func (r *Reader) U16s(dst []uint16) error {
	for i := range dst {
		v, err := r.U16()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// Color reads four bytes in R, G, B, A order.
func (r *Reader) Color() (format.ColorU8, error) {
	if err := r.fill(r.buf[:4]); err != nil {
		return format.ColorU8{}, err
	}
	return format.ColorU8{R: r.buf[0], G: r.buf[1], B: r.buf[2], A: r.buf[3]}, nil
}

// Fixed fills b completely.
func (r *Reader) Fixed(b []byte) error {
	return r.fill(b)
}

// Skip discards n bytes.
func (r *Reader) Skip(n int) error {
	m, err := io.CopyN(io.Discard, r.r, int64(n))
	if err == io.EOF || (err == nil && m != int64(n)) {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Bytes reads exactly n bytes into a new slice.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative length %d", n)
	}
	// don't trust the length for the allocation, a corrupt count would
	// otherwise allocate gigabytes before hitting EOF
	if n <= 1<<16 {
		b := make([]byte, n)
		return b, r.fill(b)
	}
	b, err := io.ReadAll(io.LimitReader(r.r, int64(n)))
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, io.ErrUnexpectedEOF
	}
	return b, nil
}

// CString reads bytes up to and including a NUL terminator, returning them
// without the terminator.
func (r *Reader) CString() ([]byte, error) {
	var s []byte
	for {
		if err := r.fill(r.buf[:1]); err != nil {
			return s, err
		}
		if r.buf[0] == 0 {
			return s, nil
		}
		s = append(s, r.buf[0])
	}
}

// Name reads a fixed-width legacy string, truncating it at the first NUL.
func (r *Reader) Name(width int) (string, error) {
	b, err := r.Bytes(width)
	if err != nil {
		return "", err
	}
	return codepage.Decode(cut(b))
}

// Path is like Name, but normalizes the result as a path.
func (r *Reader) Path(width int) (string, error) {
	b, err := r.Bytes(width)
	if err != nil {
		return "", err
	}
	return codepage.DecodePath(cut(b))
}

// LenName reads a legacy string prefixed by its int32 length.
func (r *Reader) LenName() (string, error) {
	n, err := r.lenPrefix()
	if err != nil {
		return "", err
	}
	return r.Name(n)
}

// LenPath reads a path prefixed by its int32 length.
func (r *Reader) LenPath() (string, error) {
	n, err := r.lenPrefix()
	if err != nil {
		return "", err
	}
	return r.Path(n)
}

func (r *Reader) lenPrefix() (int, error) {
	n, err := r.I32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative string length %d", n)
	}
	return int(n), nil
}

// Paths reads k paths of a shared fixed width.
func (r *Reader) Paths(k, width int) ([]string, error) {
	ss := make([]string, 0, min(k, 1024))
	for i := 0; i < k; i++ {
		s, err := r.Path(width)
		if err != nil {
			return ss, fmt.Errorf("string %d: %w", i, err)
		}
		ss = append(ss, s)
	}
	return ss, nil
}

// LenPaths reads k individually length-prefixed paths.
func (r *Reader) LenPaths(k int) ([]string, error) {
	ss := make([]string, 0, min(k, 1024))
	for i := 0; i < k; i++ {
		s, err := r.LenPath()
		if err != nil {
			return ss, fmt.Errorf("string %d: %w", i, err)
		}
		ss = append(ss, s)
	}
	return ss, nil
}

// Count reads an int32 element count, rejecting negative values.
func (r *Reader) Count() (int, error) {
	n, err := r.I32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return int(n), nil
}

// Finish reads the remainder of the stream, returning an
// *format.IncompleteReadError if it is not empty.
func (r *Reader) Finish() error {
	n, err := io.Copy(io.Discard, r.r)
	if err != nil {
		return fmt.Errorf("read remainder: %w", err)
	}
	if n != 0 {
		return &format.IncompleteReadError{Remaining: int(n)}
	}
	return nil
}

// IsEOF checks if err was caused by running out of input.
func IsEOF(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func cut(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// Signature reads len(magic) bytes and checks them against magic.
func (r *Reader) Signature(name, magic string) error {
	b := make([]byte, len(magic))
	if err := r.fill(b); err != nil {
		return err
	}
	if string(b) != magic {
		return &format.SignatureError{Format: name, Got: b}
	}
	return nil
}
