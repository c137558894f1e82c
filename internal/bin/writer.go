package bin

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/codepage"
)

// Writer encodes little-endian primitives. The first error is sticky; later
// calls do nothing and Err returns it.
type Writer struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

// N returns the number of bytes written.
func (w *Writer) N() int64 {
	return w.n
}

// Write implements io.Writer.
func (w *Writer) Write(b []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(b)
	w.n += int64(n)
	w.err = err
	return n, err
}

func (w *Writer) U8(v uint8) {
	w.buf[0] = v
	w.Write(w.buf[:1])
}

func (w *Writer) U16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.Write(w.buf[:2])
}

func (w *Writer) I16(v int16) {
	w.U16(uint16(v))
}

func (w *Writer) U32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.Write(w.buf[:4])
}

func (w *Writer) I32(v int32) {
	w.U32(uint32(v))
}

func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

// F32s writes each value as a float32.
func (w *Writer) F32s(v ...float32) {
	for _, x := range v {
		w.F32(x)
	}
}

// I32s writes each value as an int32.
func (w *Writer) I32s(v ...int32) {
	for _, x := range v {
		w.I32(x)
	}
}

// Color writes c in R, G, B, A order.
func (w *Writer) Color(c format.ColorU8) {
	w.Write([]byte{c.R, c.G, c.B, c.A})
}

// Zero writes n zero bytes.
func (w *Writer) Zero(n int) {
	w.Write(make([]byte, n))
}

// Fixed writes s encoded as CP949 into a NUL-padded field of the provided
// width.
func (w *Writer) Fixed(s string, width int) {
	w.fixed(s, w.encode(s), width)
}

// Path is like Fixed, but writes the path s with backslashes.
func (w *Writer) Path(s string, width int) {
	w.fixed(s, w.encode(toBackslash(s)), width)
}

func (w *Writer) fixed(s string, b []byte, width int) {
	if w.err != nil {
		return
	}
	if len(b) > width {
		w.err = fmt.Errorf("string %q longer than field width %d", s, width)
		return
	}
	w.Write(b)
	w.Zero(width - len(b))
}

// LenString writes s encoded as CP949, prefixed by its int32 length.
func (w *Writer) LenString(s string) {
	w.lenString(w.encode(s))
}

// LenPath is like LenString, but writes the path s with backslashes.
func (w *Writer) LenPath(s string) {
	w.lenString(w.encode(toBackslash(s)))
}

func (w *Writer) lenString(b []byte) {
	if w.err != nil {
		return
	}
	w.I32(int32(len(b)))
	w.Write(b)
}

// CString writes s encoded as CP949 followed by a NUL.
func (w *Writer) CString(s string) {
	w.cString(w.encode(s))
}

// CPath is like CString, but writes the path s with backslashes.
func (w *Writer) CPath(s string) {
	w.cString(w.encode(toBackslash(s)))
}

func (w *Writer) cString(b []byte) {
	if w.err != nil {
		return
	}
	w.Write(append(b, 0))
}

func (w *Writer) encode(s string) []byte {
	if w.err != nil {
		return nil
	}
	b, err := codepage.Encode(s)
	if err != nil {
		w.err = err
	}
	return b
}

func toBackslash(s string) string {
	return strings.ReplaceAll(s, "/", `\`)
}
