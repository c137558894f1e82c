// Package gnd decodes ground meshes: the height field, surfaces, lightmaps,
// and water of a map.
package gnd

import (
	"fmt"
	"io"

	"github.com/chewxy/math32"

	"github.com/rorebuild/grf/diag"
	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/bin"
)

// Signature is the magic at the start of a ground mesh.
const Signature = "GRGN"

// water levels closer to the base level than this are not stored as separate
// planes
const epsilon = 0x1p-23

// Ground is a decoded ground mesh. Cubes has Width*Height entries in row-major
// order.
type Ground struct {
	Version     format.Version
	Width       uint32
	Height      uint32
	Scale       float32
	Textures    []string
	Lightmaps   Lightmaps
	Surfaces    []Surface
	Cubes       []Cube
	WaterPlanes []WaterPlane // the base plane first, if present
}

// Lightmaps holds the baked lighting. Each lightmap has CellWidth*CellHeight*
// Cells brightness bytes and three times as many color bytes.
type Lightmaps struct {
	CellWidth  uint32
	CellHeight uint32
	Cells      uint32
	Maps       []Lightmap
}

// Lightmap is a single lightmap tile.
type Lightmap struct {
	Brightness []byte
	Color      []byte // RGB
}

// Surface is a textured quad referenced by cube faces.
type Surface struct {
	U        [4]float32
	V        [4]float32
	Texture  int16 // -1 for none
	Lightmap uint16
	Color    format.ColorU8 // stored as BGRA
}

// NoSurface marks an absent cube face.
const NoSurface = -1

// Cube is one cell of the height field.
type Cube struct {
	Heights [4]float32 // bottom left, bottom right, top left, top right
	Up      int32
	East    int32
	North   int32
}

// WaterSettings describes a water plane.
type WaterSettings struct {
	Level      float32
	Type       int32
	WaveHeight float32
	WaveSpeed  float32
	WavePitch  float32
	AnimSpeed  int32
}

// WaterPlane is the base water plane (Cell is nil), or a split of the map
// whose level differs from it.
type WaterPlane struct {
	WaterSettings
	Cell *[2]uint32
}

// Decode parses a ground mesh from r.
func Decode(r io.Reader) (*Ground, error) {
	return DecodeWithDiagnostics(r, nil)
}

// DecodeWithDiagnostics is like Decode, but also reports anomalies to c.
func DecodeWithDiagnostics(r io.Reader, c *diag.Collector) (*Ground, error) {
	g := new(Ground)
	if err := g.Deserialize(r); err != nil {
		return nil, err
	}
	g.check(c)
	return g, nil
}

// Deserialize parses a Ground from r, which must contain nothing else.
func (g *Ground) Deserialize(r io.Reader) error {
	br := bin.NewReader(r)
	if err := br.Signature("gnd", Signature); err != nil {
		return err
	}

	var v [2]byte
	if err := br.Fixed(v[:]); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	g.Version = format.V(v[0], v[1])
	switch g.Version {
	case format.V(1, 7), format.V(1, 8), format.V(1, 9):
	default:
		return &format.UnsupportedVersionError{Format: "gnd", Version: g.Version}
	}

	var err error
	if g.Width, err = br.U32(); err != nil {
		return fmt.Errorf("read width: %w", err)
	}
	if g.Height, err = br.U32(); err != nil {
		return fmt.Errorf("read height: %w", err)
	}
	if g.Scale, err = br.F32(); err != nil {
		return fmt.Errorf("read scale: %w", err)
	}

	n, err := br.U32()
	if err != nil {
		return fmt.Errorf("read texture count: %w", err)
	}
	sz, err := br.U32()
	if err != nil {
		return fmt.Errorf("read texture path size: %w", err)
	}
	if g.Textures, err = br.Paths(int(n), int(sz)); err != nil {
		return fmt.Errorf("read textures: %w", err)
	}

	if err := g.Lightmaps.deserialize(br); err != nil {
		return fmt.Errorf("read lightmaps: %w", err)
	}

	if n, err = br.U32(); err != nil {
		return fmt.Errorf("read surface count: %w", err)
	}
	g.Surfaces = make([]Surface, 0, min(n, 1<<16))
	for i := uint32(0); i < n; i++ {
		var s Surface
		if err := s.deserialize(br); err != nil {
			return fmt.Errorf("read surface %d: %w", i, err)
		}
		g.Surfaces = append(g.Surfaces, s)
	}

	cells := uint64(g.Width) * uint64(g.Height)
	g.Cubes = make([]Cube, 0, min(cells, 1<<16))
	for i := uint64(0); i < cells; i++ {
		var c Cube
		if err := c.deserialize(br); err != nil {
			return fmt.Errorf("read cube %d: %w", i, err)
		}
		g.Cubes = append(g.Cubes, c)
	}

	g.WaterPlanes = nil
	if g.Version.AtLeast(1, 8) {
		if g.WaterPlanes, err = readWater(br, g.Version.AtLeast(1, 9)); err != nil {
			return fmt.Errorf("read water: %w", err)
		}
	}
	return br.Finish()
}

func (l *Lightmaps) deserialize(r *bin.Reader) error {
	var h [4]uint32
	for i := range h {
		x, err := r.U32()
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		h[i] = x
	}
	l.CellWidth, l.CellHeight, l.Cells = h[1], h[2], h[3]

	sz := int(uint64(l.CellWidth) * uint64(l.CellHeight) * uint64(l.Cells))
	if sz < 0 || sz > 1<<20 {
		return fmt.Errorf("lightmap size %dx%dx%d too large", l.CellWidth, l.CellHeight, l.Cells)
	}
	l.Maps = make([]Lightmap, 0, min(h[0], 1<<16))
	for i := uint32(0); i < h[0]; i++ {
		var m Lightmap
		var err error
		if m.Brightness, err = r.Bytes(sz); err != nil {
			return fmt.Errorf("read lightmap %d: %w", i, err)
		}
		if m.Color, err = r.Bytes(sz * 3); err != nil {
			return fmt.Errorf("read lightmap %d: %w", i, err)
		}
		l.Maps = append(l.Maps, m)
	}
	return nil
}

func (s *Surface) deserialize(r *bin.Reader) error {
	if err := r.F32s(s.U[:]); err != nil {
		return fmt.Errorf("read u: %w", err)
	}
	if err := r.F32s(s.V[:]); err != nil {
		return fmt.Errorf("read v: %w", err)
	}
	var err error
	if s.Texture, err = r.I16(); err != nil {
		return fmt.Errorf("read texture: %w", err)
	}
	if s.Lightmap, err = r.U16(); err != nil {
		return fmt.Errorf("read lightmap: %w", err)
	}
	bgra, err := r.Color()
	if err != nil {
		return fmt.Errorf("read color: %w", err)
	}
	s.Color = format.ColorU8{R: bgra.B, G: bgra.G, B: bgra.R, A: bgra.A}
	return nil
}

func (c *Cube) deserialize(r *bin.Reader) error {
	if err := r.F32s(c.Heights[:]); err != nil {
		return fmt.Errorf("read heights: %w", err)
	}
	var s [3]int32
	if err := r.I32s(s[:]); err != nil {
		return fmt.Errorf("read surfaces: %w", err)
	}
	c.Up, c.East, c.North = s[0], s[1], s[2]
	return nil
}

func (w *WaterSettings) deserialize(r *bin.Reader) error {
	var err error
	if w.Level, err = r.F32(); err != nil {
		return fmt.Errorf("read level: %w", err)
	}
	if w.Type, err = r.I32(); err != nil {
		return fmt.Errorf("read type: %w", err)
	}
	var wave [3]float32
	if err := r.F32s(wave[:]); err != nil {
		return fmt.Errorf("read wave: %w", err)
	}
	w.WaveHeight, w.WaveSpeed, w.WavePitch = wave[0], wave[1], wave[2]
	if w.AnimSpeed, err = r.I32(); err != nil {
		return fmt.Errorf("read anim speed: %w", err)
	}
	return nil
}

// readWater reads the base plane and the per-split levels (or, if full, the
// per-split settings), keeping only the splits which differ from the base.
func readWater(r *bin.Reader, full bool) ([]WaterPlane, error) {
	var base WaterSettings
	if err := base.deserialize(r); err != nil {
		return nil, fmt.Errorf("read base plane: %w", err)
	}
	var splits [2]uint32
	for i := range splits {
		x, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("read splits: %w", err)
		}
		splits[i] = x
	}

	planes := []WaterPlane{{WaterSettings: base}}
	for y := uint32(0); y < splits[1]; y++ {
		for x := uint32(0); x < splits[0]; x++ {
			w := base
			if full {
				if err := w.deserialize(r); err != nil {
					return nil, fmt.Errorf("read plane %d,%d: %w", x, y, err)
				}
			} else {
				lvl, err := r.F32()
				if err != nil {
					return nil, fmt.Errorf("read plane %d,%d level: %w", x, y, err)
				}
				w.Level = lvl
			}
			if math32.Abs(w.Level-base.Level) > epsilon {
				planes = append(planes, WaterPlane{WaterSettings: w, Cell: &[2]uint32{x, y}})
			}
		}
	}
	return planes, nil
}

func (g *Ground) check(c *diag.Collector) {
	if c == nil {
		return
	}
	for i, t := range g.Textures {
		if t == "" {
			c.Add(diag.EmptyName, "texture %d has an empty path", i)
		}
	}
	for i, s := range g.Surfaces {
		if s.Texture != -1 && (s.Texture < 0 || int(s.Texture) >= len(g.Textures)) {
			c.Add(diag.IndexRange, "surface %d: texture %d out of range (%d textures)", i, s.Texture, len(g.Textures))
		}
		if int(s.Lightmap) >= len(g.Lightmaps.Maps) {
			c.Add(diag.IndexRange, "surface %d: lightmap %d out of range (%d lightmaps)", i, s.Lightmap, len(g.Lightmaps.Maps))
		}
	}
	for i, cube := range g.Cubes {
		for _, f := range []struct {
			name string
			idx  int32
		}{{"up", cube.Up}, {"east", cube.East}, {"north", cube.North}} {
			if f.idx != NoSurface && (f.idx < 0 || int(f.idx) >= len(g.Surfaces)) {
				c.Add(diag.IndexRange, "cube %d,%d: %s surface %d out of range (%d surfaces)", i%int(g.Width), i/int(g.Width), f.name, f.idx, len(g.Surfaces))
			}
		}
	}
}

// At returns the cube at x, y, or nil if out of bounds.
func (g *Ground) At(x, y int) *Cube {
	if x < 0 || y < 0 || x >= int(g.Width) || y >= int(g.Height) {
		return nil
	}
	if i := y*int(g.Width) + x; i < len(g.Cubes) {
		return &g.Cubes[i]
	}
	return nil
}

// TriangleNormal returns the unit normal (b-a)x(c-a) of the triangle a, b, c.
// A degenerate triangle returns the zero vector.
func TriangleNormal(a, b, c [3]float32) [3]float32 {
	u := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	return normalize([3]float32{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	})
}

// Normal returns the normal of the top face of c for a cell of the provided
// size, averaged over its two triangles. Heights grow downwards, so a flat
// cell has the normal (0, -1, 0).
func (c Cube) Normal(size float32) [3]float32 {
	bl := [3]float32{0, c.Heights[0], 0}
	br := [3]float32{size, c.Heights[1], 0}
	tl := [3]float32{0, c.Heights[2], size}
	tr := [3]float32{size, c.Heights[3], size}
	n1 := TriangleNormal(bl, br, tl)
	n2 := TriangleNormal(tr, tl, br)
	return normalize([3]float32{n1[0] + n2[0], n1[1] + n2[1], n1[2] + n2[2]})
}

func normalize(n [3]float32) [3]float32 {
	l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{n[0] / l, n[1] / l, n[2] / l}
}
