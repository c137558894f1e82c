package spr

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rorebuild/grf/diag"
	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/bin"
)

// fixture encodes a sprite with one 3x1 indexed image and, from 2.0, one 1x2
// true color image.
func fixture(t testing.TB, major, minor uint8, palette func(i int) format.ColorU8) []byte {
	t.Helper()
	var b bytes.Buffer
	w := bin.NewWriter(&b)
	w.Write([]byte(Signature))
	w.U8(minor)
	w.U8(major)
	w.U16(1)
	if major >= 2 {
		w.U16(1)
	}

	w.U16(3)
	w.U16(1)
	pixels := []byte{3, 0, 7}
	if major == 2 && minor >= 1 {
		rle := EncodeRLE(pixels)
		w.U16(uint16(len(rle)))
		w.Write(rle)
	} else {
		w.Write(pixels)
	}

	if major >= 2 {
		w.U16(1)
		w.U16(2)
		w.Write([]byte{0xFF, 0x01, 0x02, 0x03, 0x80, 0x04, 0x05, 0x06})
	}

	for i := 0; i < PaletteSize; i++ {
		w.Color(palette(i))
	}
	require.NoError(t, w.Err())
	return b.Bytes()
}

func grayPalette(i int) format.ColorU8 {
	if i == 0 {
		return format.ColorU8{R: 255, G: 0, B: 255}
	}
	return format.ColorU8{R: uint8(i), G: uint8(i), B: uint8(i)}
}

func TestDecode(t *testing.T) {
	for _, v := range []format.Version{format.V(1, 1), format.V(2, 0), format.V(2, 1)} {
		t.Run(v.String(), func(t *testing.T) {
			s, err := Decode(bytes.NewReader(fixture(t, v.Major, v.Minor, grayPalette)))
			require.NoError(t, err)
			assert.Equal(t, v, s.Version)
			require.Len(t, s.Indexed, 1)
			assert.Equal(t, IndexedImage{Width: 3, Height: 1, Pixels: []byte{3, 0, 7}}, s.Indexed[0])
			if v.Major >= 2 {
				require.Len(t, s.TrueColor, 1)
				assert.EqualValues(t, 2, s.TrueColor[0].Height)
				assert.Len(t, s.TrueColor[0].Pixels, 8)
			} else {
				assert.Empty(t, s.TrueColor)
			}
			assert.Equal(t, format.ColorU8{R: 9, G: 9, B: 9}, s.Palette[9])
		})
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	for _, v := range []format.Version{format.V(1, 0), format.V(1, 2), format.V(2, 2), format.V(3, 0)} {
		b := fixture(t, 2, 1, grayPalette)
		b[2], b[3] = v.Minor, v.Major

		_, err := Decode(bytes.NewReader(b))
		var uve *format.UnsupportedVersionError
		require.True(t, errors.As(err, &uve), "%s: %v", v, err)
		assert.Equal(t, v, uve.Version)
	}
}

func TestDecodeSignature(t *testing.T) {
	b := fixture(t, 2, 1, grayPalette)
	b[0] = 'A'
	_, err := Decode(bytes.NewReader(b))
	assert.True(t, errors.Is(err, format.ErrWrongSignature), "%v", err)
}

func TestDecodeTrailing(t *testing.T) {
	b := append(fixture(t, 2, 0, grayPalette), 0)
	_, err := Decode(bytes.NewReader(b))
	var ire *format.IncompleteReadError
	require.True(t, errors.As(err, &ire), "%v", err)
	assert.Equal(t, 1, ire.Remaining)
}

func TestDecodeTruncated(t *testing.T) {
	b := fixture(t, 2, 0, grayPalette)
	_, err := Decode(bytes.NewReader(b[:len(b)-1]))
	assert.True(t, bin.IsEOF(err), "%v", err)
}

func TestDecodeRLE(t *testing.T) {
	out, err := DecodeRLE([]byte{3, 0, 5, 7}, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0, 0, 0, 0, 0, 7}, out)

	_, err = DecodeRLE([]byte{3, 0, 5, 7}, 6)
	var re *RLEError
	require.True(t, errors.As(err, &re), "%v", err)
	assert.Equal(t, 6, re.Expected)

	_, err = DecodeRLE([]byte{3, 0}, 2)
	assert.True(t, errors.As(err, &re), "%v", err)
}

func TestRLERoundTrip(t *testing.T) {
	for _, pixels := range [][]byte{
		{},
		{1, 2, 3},
		{0},
		{0, 0, 0, 9, 0},
		append(make([]byte, 600), 1),
	} {
		enc := EncodeRLE(pixels)
		dec, err := DecodeRLE(enc, len(pixels))
		require.NoError(t, err)
		assert.Equal(t, pixels, dec)
	}
	assert.Equal(t, []byte{0, 255, 0, 45}, EncodeRLE(make([]byte, 300)))
}

func TestDecodeRLEMismatchInSprite(t *testing.T) {
	var b bytes.Buffer
	w := bin.NewWriter(&b)
	w.Write([]byte{'S', 'P', 1, 2})
	w.U16(1)
	w.U16(0)
	w.U16(2)
	w.U16(2)
	w.U16(2)
	w.Write([]byte{0, 3}) // 3 pixels, expected 4
	w.Zero(PaletteSize * 4)
	require.NoError(t, w.Err())

	_, err := Decode(&b)
	var re *RLEError
	require.True(t, errors.As(err, &re), "%v", err)
	assert.Equal(t, RLEError{Expected: 4, Got: 3}, *re)
}

func TestDiagnostics(t *testing.T) {
	c := diag.New()
	_, err := DecodeWithDiagnostics(bytes.NewReader(fixture(t, 2, 1, func(i int) format.ColorU8 {
		switch i {
		case 0:
			return format.ColorU8{R: 255, G: 0, B: 255, A: 10}
		case 1:
			return format.ColorU8{R: 255, G: 0, B: 255}
		case 2:
			return format.ColorU8{R: 0, G: 0, B: 0}
		default:
			return grayPalette(i)
		}
	})), c)
	require.NoError(t, err)
	assert.True(t, c.Has(diag.PaletteKey))
	assert.True(t, c.Has(diag.PaletteMagenta))
	assert.False(t, c.Has(diag.PaletteNearKey))

	c = diag.New()
	_, err = DecodeWithDiagnostics(bytes.NewReader(fixture(t, 2, 1, func(i int) format.ColorU8 {
		if i == 5 {
			return format.ColorU8{R: 252, G: 2, B: 255}
		}
		return grayPalette(i)
	})), c)
	require.NoError(t, err)
	assert.True(t, c.Has(diag.PaletteNearKey))
	assert.False(t, c.Has(diag.PaletteKey))
}

func TestImage(t *testing.T) {
	s, err := Decode(bytes.NewReader(fixture(t, 2, 1, grayPalette)))
	require.NoError(t, err)

	img, err := s.Image(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), img.ColorIndexAt(0, 0))
	_, _, _, a := img.At(1, 0).RGBA()
	assert.Zero(t, a)

	_, err = s.Image(1)
	assert.Error(t, err)

	tc := s.TrueColor[0].Image()
	// bottom row first in the file
	assert.Equal(t, []byte{0x06, 0x05, 0x04, 0x80, 0x03, 0x02, 0x01, 0xFF}, tc.Pix)
}
