package bin

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/codepage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderScalars(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.U8(0xAB)
	w.U16(0x1234)
	w.I32(-2)
	w.F32(1.5)
	w.Color(format.ColorU8{R: 1, G: 2, B: 3, A: 4})
	w.F32s(1, 2, 3)
	require.NoError(t, w.Err())
	assert.EqualValues(t, 1+2+4+4+4+12, w.N())

	r := NewReader(bytes.NewReader(buf.Bytes()))
	u8, err := r.U8()
	require.NoError(t, err)
	assert.EqualValues(t, 0xAB, u8)
	u16, err := r.U16()
	require.NoError(t, err)
	assert.EqualValues(t, 0x1234, u16)
	i32, err := r.I32()
	require.NoError(t, err)
	assert.EqualValues(t, -2, i32)
	f32, err := r.F32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32)
	c, err := r.Color()
	require.NoError(t, err)
	assert.Equal(t, format.ColorU8{R: 1, G: 2, B: 3, A: 4}, c)
	v, err := r.Vec3()
	require.NoError(t, err)
	assert.Equal(t, [3]float32{1, 2, 3}, v)
	require.NoError(t, r.Finish())
}

func TestReaderEOF(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	_, err := r.U32()
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "clean eof: %v", err)

	r = NewReader(bytes.NewReader([]byte{1, 2}))
	_, err = r.U32()
	assert.True(t, IsEOF(err), "partial: %v", err)

	r = NewReader(bytes.NewReader([]byte{1, 2}))
	_, err = r.Bytes(3)
	assert.True(t, IsEOF(err), "bytes: %v", err)

	r = NewReader(bytes.NewReader([]byte{1, 2}))
	assert.True(t, IsEOF(r.Skip(3)))

	r = NewReader(bytes.NewReader([]byte("abc")))
	_, err = r.CString()
	assert.True(t, IsEOF(err), "unterminated: %v", err)
}

func TestReaderFinish(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3}))
	_, err := r.U16()
	require.NoError(t, err)

	err = r.Finish()
	var ire *format.IncompleteReadError
	require.True(t, errors.As(err, &ire), "%v", err)
	assert.Equal(t, 1, ire.Remaining)
}

func TestReaderStrings(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Path("Data/Model/Tree.rsm", 40)
	w.LenPath("Texture/A.BMP")
	w.CString("x")
	w.Fixed("Mesh01", 40)
	w.Fixed("a", 8)
	w.Fixed("b", 8)
	require.NoError(t, w.Err())

	r := NewReader(&buf)
	p, err := r.Path(40)
	require.NoError(t, err)
	assert.Equal(t, "data/model/tree.rsm", p)
	p, err = r.LenPath()
	require.NoError(t, err)
	assert.Equal(t, "texture/a.bmp", p)
	s, err := r.CString()
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), s)
	n, err := r.Name(40)
	require.NoError(t, err)
	assert.Equal(t, "Mesh01", n)
	ps, err := r.Paths(2, 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ps)
	require.NoError(t, r.Finish())
}

func TestWriterPaths(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Path("data/a.bmp", 12)
	w.LenPath("data/b.bmp")
	w.CPath("data/c.bmp")
	w.Fixed("mesh/01", 8)
	w.LenString("a/b")
	w.CString("c/d")
	require.NoError(t, w.Err())

	exp := []byte("data\\a.bmp\x00\x00")
	exp = append(exp, 10, 0, 0, 0)
	exp = append(exp, "data\\b.bmp"...)
	exp = append(exp, "data\\c.bmp\x00"...)
	exp = append(exp, "mesh/01\x00"...)
	exp = append(exp, 3, 0, 0, 0)
	exp = append(exp, "a/b"...)
	exp = append(exp, "c/d\x00"...)
	assert.Equal(t, exp, buf.Bytes())

	w = NewWriter(&buf)
	w.Path("data/too/long.bmp", 8)
	assert.Error(t, w.Err())
}

func TestReaderStringGarbageAfterNul(t *testing.T) {
	// fixed fields are often not zeroed after the terminator
	b := append([]byte("abc\x00"), 0xff, 0xff, 0xff, 0xff)
	r := NewReader(bytes.NewReader(b))
	s, err := r.Name(8)
	require.NoError(t, err)
	assert.Equal(t, "abc", s)
}

func TestReaderInvalidEncoding(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{'a', 0xff, 0, 0}))
	_, err := r.Path(4)
	assert.True(t, errors.Is(err, codepage.ErrInvalid), "%v", err)
}

func TestReaderSignature(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte("GRSM")))
	require.NoError(t, r.Signature("rsm", "GRSM"))

	r = NewReader(bytes.NewReader([]byte("GRSW")))
	err := r.Signature("rsm", "GRSM")
	assert.True(t, errors.Is(err, format.ErrWrongSignature))
}

func TestWriterFieldOverflow(t *testing.T) {
	w := NewWriter(io.Discard)
	w.Fixed("this is too long", 4)
	assert.Error(t, w.Err())
	w.U32(1)
	assert.EqualValues(t, 0, w.N())
}
