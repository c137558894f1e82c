package spr

import (
	"fmt"
	"image"
	"image/color"
)

// ColorPalette converts the palette for use with image.Paletted. The
// transparency key becomes fully transparent and every other entry opaque.
func (s *Sprite) ColorPalette() color.Palette {
	p := make(color.Palette, PaletteSize)
	for i, c := range s.Palette {
		if i == 0 {
			p[i] = color.NRGBA{}
		} else {
			p[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
		}
	}
	return p
}

// Image returns indexed image i.
func (s *Sprite) Image(i int) (*image.Paletted, error) {
	if i < 0 || i >= len(s.Indexed) {
		return nil, fmt.Errorf("indexed image %d out of range", i)
	}
	m := s.Indexed[i]
	img := image.NewPaletted(image.Rect(0, 0, int(m.Width), int(m.Height)), s.ColorPalette())
	copy(img.Pix, m.Pixels)
	return img, nil
}

// Image converts m to an image. Rows are stored bottom-up.
func (m TrueColorImage) Image() *image.NRGBA {
	w, h := int(m.Width), int(m.Height)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := m.Pixels[(h-1-y)*w*4:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			a, b, g, r := src[x*4], src[x*4+1], src[x*4+2], src[x*4+3]
			dst[x*4], dst[x*4+1], dst[x*4+2], dst[x*4+3] = r, g, b, a
		}
	}
	return img
}
