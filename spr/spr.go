// Package spr decodes sprite sheets.
package spr

import (
	"fmt"
	"io"

	"github.com/rorebuild/grf/diag"
	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/bin"
)

// Signature is the magic at the start of a sprite.
const Signature = "SP"

// PaletteSize is the number of palette entries. Index 0 is the transparency
// key.
const PaletteSize = 256

// Sprite is a decoded sprite sheet.
type Sprite struct {
	Version   format.Version
	Indexed   []IndexedImage
	TrueColor []TrueColorImage
	Palette   [PaletteSize]format.ColorU8
}

// IndexedImage is an image of palette indices.
type IndexedImage struct {
	Width  uint16
	Height uint16
	Pixels []byte // Width*Height palette indices, row-major
}

// TrueColorImage is an image with four bytes per pixel stored in A, B, G, R
// order.
type TrueColorImage struct {
	Width  uint16
	Height uint16
	Pixels []byte
}

// Decode parses a sprite from r.
func Decode(r io.Reader) (*Sprite, error) {
	return DecodeWithDiagnostics(r, nil)
}

// DecodeWithDiagnostics is like Decode, but also reports palette anomalies to
// c.
func DecodeWithDiagnostics(r io.Reader, c *diag.Collector) (*Sprite, error) {
	s := new(Sprite)
	if err := s.Deserialize(r); err != nil {
		return nil, err
	}
	s.check(c)
	return s, nil
}

// Deserialize parses a Sprite from r, which must contain nothing else.
func (s *Sprite) Deserialize(r io.Reader) error {
	br := bin.NewReader(r)
	if err := br.Signature("spr", Signature); err != nil {
		return err
	}

	var v [2]byte
	if err := br.Fixed(v[:]); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	s.Version = format.V(v[1], v[0])

	switch s.Version {
	case format.V(1, 1), format.V(2, 0), format.V(2, 1):
	default:
		return &format.UnsupportedVersionError{Format: "spr", Version: s.Version}
	}

	nIndexed, err := br.U16()
	if err != nil {
		return fmt.Errorf("read indexed image count: %w", err)
	}
	var nTrueColor uint16
	if s.Version.AtLeast(2, 0) {
		if nTrueColor, err = br.U16(); err != nil {
			return fmt.Errorf("read true color image count: %w", err)
		}
	}

	s.Indexed = make([]IndexedImage, nIndexed)
	for i := range s.Indexed {
		if err := s.Indexed[i].deserialize(br, s.Version.AtLeast(2, 1)); err != nil {
			return fmt.Errorf("read indexed image %d: %w", i, err)
		}
	}
	s.TrueColor = make([]TrueColorImage, nTrueColor)
	for i := range s.TrueColor {
		if err := s.TrueColor[i].deserialize(br); err != nil {
			return fmt.Errorf("read true color image %d: %w", i, err)
		}
	}

	for i := range s.Palette {
		if s.Palette[i], err = br.Color(); err != nil {
			return fmt.Errorf("read palette: %w", err)
		}
	}
	return br.Finish()
}

func (m *IndexedImage) deserialize(r *bin.Reader, rle bool) error {
	var err error
	if m.Width, err = r.U16(); err != nil {
		return fmt.Errorf("read width: %w", err)
	}
	if m.Height, err = r.U16(); err != nil {
		return fmt.Errorf("read height: %w", err)
	}
	n := int(m.Width) * int(m.Height)
	if !rle {
		if m.Pixels, err = r.Bytes(n); err != nil {
			return fmt.Errorf("read pixels: %w", err)
		}
		return nil
	}
	sz, err := r.U16()
	if err != nil {
		return fmt.Errorf("read compressed size: %w", err)
	}
	b, err := r.Bytes(int(sz))
	if err != nil {
		return fmt.Errorf("read compressed pixels: %w", err)
	}
	if m.Pixels, err = DecodeRLE(b, n); err != nil {
		return err
	}
	return nil
}

func (m *TrueColorImage) deserialize(r *bin.Reader) error {
	var err error
	if m.Width, err = r.U16(); err != nil {
		return fmt.Errorf("read width: %w", err)
	}
	if m.Height, err = r.U16(); err != nil {
		return fmt.Errorf("read height: %w", err)
	}
	if m.Pixels, err = r.Bytes(int(m.Width) * int(m.Height) * 4); err != nil {
		return fmt.Errorf("read pixels: %w", err)
	}
	return nil
}

// near-key colors differ from the key by at most this much in each channel
const nearKeyThreshold = 4

func (s *Sprite) check(c *diag.Collector) {
	if c == nil {
		return
	}
	key := s.Palette[0]
	if key.A != 0 {
		c.Add(diag.PaletteKey, "transparency key has alpha %d", key.A)
	}
	for i := 1; i < PaletteSize; i++ {
		p := s.Palette[i]
		switch {
		case p.R == 255 && p.G == 0 && p.B == 255:
			c.Add(diag.PaletteMagenta, "palette entry %d is magenta", i)
		case nearKey(p, key):
			c.Add(diag.PaletteNearKey, "palette entry %d (%d,%d,%d) is close to the transparency key (%d,%d,%d)", i, p.R, p.G, p.B, key.R, key.G, key.B)
		}
	}
	for i, m := range s.Indexed {
		if m.Width == 0 || m.Height == 0 {
			c.Add(diag.UnexpectedData, "indexed image %d is empty (%dx%d)", i, m.Width, m.Height)
		}
	}
}

func nearKey(p, key format.ColorU8) bool {
	d := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	return d(p.R, key.R) <= nearKeyThreshold && d(p.G, key.G) <= nearKeyThreshold && d(p.B, key.B) <= nearKeyThreshold
}
