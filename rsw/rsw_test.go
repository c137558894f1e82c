package rsw

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rorebuild/grf/diag"
	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/bin"
)

type object struct {
	typ  ObjectType
	name string
	file string
}

var defaultObjects = []object{
	{ObjectModel, "tree01", "data\\model\\tree.rsm"},
	{ObjectLight, "lamp", ""},
	{ObjectSound, "birds", "wav\\birds.wav"},
	{ObjectModel, "tree02", "data\\model\\tree.rsm"},
	{ObjectEffect, "smoke", ""},
}

// quadTree builds a tree over a square of the provided half size centered on
// the origin, splitting each node into quadrants.
func quadTree(half float32) []QuadNode {
	var ns []QuadNode
	var build func(cx, cz, h float32, depth int)
	build = func(cx, cz, h float32, depth int) {
		ns = append(ns, QuadNode{
			Max:      [3]float32{cx + h, 0, cz + h},
			Min:      [3]float32{cx - h, 0, cz - h},
			HalfSize: [3]float32{h, 0, h},
			Center:   [3]float32{cx, 0, cz},
		})
		if depth == QuadTreeDepth {
			return
		}
		q := h / 2
		build(cx-q, cz-q, q, depth+1)
		build(cx+q, cz-q, q, depth+1)
		build(cx-q, cz+q, q, depth+1)
		build(cx+q, cz+q, q, depth+1)
	}
	build(0, 0, half, 0)
	return ns
}

func fixture(t testing.TB, v format.Version, objects []object) []byte {
	t.Helper()
	var b bytes.Buffer
	w := bin.NewWriter(&b)
	w.Write([]byte(Signature))
	w.U8(v.Major)
	w.U8(v.Minor)
	switch {
	case v.In(format.V(2, 2), format.V(2, 5)):
		w.U8(uint8(v.Build))
	case v.AtLeast(2, 5):
		w.U32(v.Build)
		w.U8(1)
	}

	w.Fixed("prontera.ini", pathSize)
	w.Fixed("prontera.gnd", pathSize)
	if v.AtLeast(1, 4) {
		w.Fixed("prontera.gat", pathSize)
		w.Fixed("", pathSize)
	}

	if v.AtLeast(1, 3) && v.Before(2, 6) {
		w.F32(-2.5)
		if v.AtLeast(1, 8) {
			w.I32(4)
			w.F32s(0.5, 1.5, 40)
		}
		if v.AtLeast(1, 9) {
			w.I32(6)
		}
	}
	if v.AtLeast(1, 5) {
		w.I32s(30, 60)
		w.F32s(1, 0.9, 0.8)
		w.F32s(0.2, 0.2, 0.2)
		if v.AtLeast(1, 7) {
			w.F32(0.75)
		}
	}
	if v.AtLeast(1, 6) {
		w.I32s(-100, 100, -120, 120)
	}

	w.I32(int32(len(objects)))
	for _, o := range objects {
		w.I32(int32(o.typ))
		switch o.typ {
		case ObjectModel:
			if v.AtLeast(1, 3) {
				w.Fixed(o.name, pathSize)
				w.I32(2)
				w.F32(1.5)
				w.I32(0)
			}
			if v.AtLeast(2, 6) && v.Build >= 162 {
				w.U8(7)
			}
			w.Fixed(o.file, nameSize)
			w.Fixed("Node", nameSize)
			w.F32s(1, 2, 3, 0, 90, 0, 1, 1, 1)
		case ObjectLight:
			w.Fixed(o.name, nameSize)
			w.F32s(4, 5, 6, 1, 0.5, 0, 30)
		case ObjectSound:
			w.Fixed(o.name, nameSize)
			w.Fixed(o.file, nameSize)
			w.F32s(7, 8, 9, 0.8)
			w.U32(10)
			w.U32(20)
			w.F32(150)
			if v.AtLeast(2, 0) {
				w.F32(12)
			}
		case ObjectEffect:
			w.Fixed(o.name, nameSize)
			w.F32s(0, 1, 0)
			w.I32(47)
			w.F32(0.25)
			w.F32s(1, 2, 3, 4)
		default:
			// invalid tags are written without a body
		}
	}

	if v.AtLeast(2, 1) {
		for _, n := range quadTree(1024) {
			w.F32s(n.Max[:]...)
			w.F32s(n.Min[:]...)
			w.F32s(n.HalfSize[:]...)
			w.F32s(n.Center[:]...)
		}
	}
	require.NoError(t, w.Err())
	return b.Bytes()
}

var versions = []format.Version{
	format.V(1, 2),
	format.V(1, 3),
	format.V(1, 4),
	format.V(1, 5),
	format.V(1, 6),
	format.V(1, 7),
	format.V(1, 8),
	format.V(1, 9),
	format.V(2, 0),
	format.V(2, 1),
	{Major: 2, Minor: 2, Build: 11},
	{Major: 2, Minor: 4, Build: 1},
	{Major: 2, Minor: 5, Build: 187},
	{Major: 2, Minor: 6, Build: 161},
	{Major: 2, Minor: 6, Build: 162},
}

func TestDecode(t *testing.T) {
	for _, v := range versions {
		t.Run(v.String(), func(t *testing.T) {
			w, err := Decode(bytes.NewReader(fixture(t, v, defaultObjects)))
			require.NoError(t, err)

			assert.Equal(t, v, w.Version)
			assert.Equal(t, "prontera.ini", w.Ini)
			assert.Equal(t, "prontera.gnd", w.Ground)
			if v.AtLeast(1, 4) {
				assert.Equal(t, "prontera.gat", w.Altitude)
			} else {
				assert.Empty(t, w.Altitude)
			}
			assert.Empty(t, w.Source)
			if v.AtLeast(2, 5) {
				assert.Equal(t, uint8(1), w.Flag)
			} else {
				assert.Zero(t, w.Flag)
			}

			switch {
			case v.Before(1, 3), v.AtLeast(2, 6):
				assert.Nil(t, w.Water)
			default:
				require.NotNil(t, w.Water)
				want := DefaultWater()
				want.Level = -2.5
				if v.AtLeast(1, 8) {
					want.Type, want.WaveHeight, want.WaveSpeed, want.WavePitch = 4, 0.5, 1.5, 40
				}
				if v.AtLeast(1, 9) {
					want.AnimSpeed = 6
				}
				assert.Equal(t, want, *w.Water)
			}

			if v.AtLeast(1, 5) {
				want := Lighting{
					Longitude:   30,
					Latitude:    60,
					Diffuse:     [3]float32{1, 0.9, 0.8},
					Ambient:     [3]float32{0.2, 0.2, 0.2},
					ShadowAlpha: 0.5,
				}
				if v.AtLeast(1, 7) {
					want.ShadowAlpha = 0.75
				}
				assert.Equal(t, want, w.Lighting)
			} else {
				assert.Equal(t, DefaultLighting(), w.Lighting)
			}

			if v.AtLeast(1, 6) {
				assert.Equal(t, Bounds{Top: -100, Bottom: 100, Left: -120, Right: 120}, w.Bounds)
			} else {
				assert.Equal(t, DefaultBounds(), w.Bounds)
			}

			require.Len(t, w.Models, 2)
			require.Len(t, w.Lights, 1)
			require.Len(t, w.Sounds, 1)
			require.Len(t, w.Effects, 1)

			m := w.Models[1]
			assert.Equal(t, "data/model/tree.rsm", m.File)
			assert.Equal(t, "Node", m.Node)
			assert.Equal(t, [3]float32{1, 2, 3}, m.Position)
			assert.Equal(t, [3]float32{0, 90, 0}, m.Rotation)
			assert.Equal(t, [3]float32{1, 1, 1}, m.Scale)
			if v.AtLeast(1, 3) {
				assert.Equal(t, "tree02", m.Name)
				assert.Equal(t, int32(2), m.AnimType)
				assert.Equal(t, float32(1.5), m.AnimSpeed)
			} else {
				assert.Empty(t, m.Name)
				assert.Equal(t, float32(1), m.AnimSpeed)
			}
			if v.AtLeast(2, 6) && v.Build >= 162 {
				assert.Equal(t, uint8(7), m.Flag)
			} else {
				assert.Zero(t, m.Flag)
			}

			assert.Equal(t, Light{
				Name:     "lamp",
				Position: [3]float32{4, 5, 6},
				Color:    [3]float32{1, 0.5, 0},
				Range:    30,
			}, w.Lights[0])

			s := w.Sounds[0]
			assert.Equal(t, "wav/birds.wav", s.File)
			assert.Equal(t, uint32(20), s.Height)
			assert.Equal(t, float32(150), s.Range)
			if v.AtLeast(2, 0) {
				assert.Equal(t, float32(12), s.Cycle)
			} else {
				assert.Equal(t, float32(DefaultSoundCycle), s.Cycle)
			}

			assert.Equal(t, Effect{
				Name:     "smoke",
				Position: [3]float32{0, 1, 0},
				ID:       47,
				Delay:    0.25,
				Params:   [4]float32{1, 2, 3, 4},
			}, w.Effects[0])

			if v.AtLeast(2, 1) {
				assert.False(t, w.QuadTree.IsZero())
				assert.Equal(t, [3]float32{1024, 0, 1024}, w.QuadTree[0].Max)
			} else {
				assert.True(t, w.QuadTree.IsZero())
			}
		})
	}
}

func TestDecodeUnsupported(t *testing.T) {
	for _, v := range []format.Version{format.V(1, 0), format.V(1, 1), format.V(1, 10), format.V(2, 7), format.V(3, 0)} {
		b := fixture(t, format.V(1, 9), nil)
		b[4], b[5] = v.Major, v.Minor
		_, err := Decode(bytes.NewReader(b))
		var uerr *format.UnsupportedVersionError
		if assert.ErrorAs(t, err, &uerr, v.String()) {
			assert.Equal(t, v, uerr.Version)
		}
	}
}

func TestDecodeSignature(t *testing.T) {
	b := fixture(t, format.V(1, 9), nil)
	copy(b, "GRGN")
	_, err := Decode(bytes.NewReader(b))
	assert.ErrorIs(t, err, format.ErrWrongSignature)
}

func TestDecodeTrailing(t *testing.T) {
	for _, v := range versions {
		b := append(fixture(t, v, defaultObjects), 0)
		_, err := Decode(bytes.NewReader(b))
		var ierr *format.IncompleteReadError
		if assert.ErrorAs(t, err, &ierr, v.String()) {
			assert.Equal(t, 1, ierr.Remaining)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	for _, v := range versions {
		b := fixture(t, v, defaultObjects)
		for _, n := range []int{5, 50, len(b) - 1} {
			_, err := Decode(bytes.NewReader(b[:n]))
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "%s truncated to %d", v, n)
		}
	}
}

func TestDecodeObjectType(t *testing.T) {
	objects := append(append([]object(nil), defaultObjects[:2]...), object{typ: 9})
	_, err := Decode(bytes.NewReader(fixture(t, format.V(2, 0), objects)))
	var oerr *InvalidObjectTypeError
	if assert.ErrorAs(t, err, &oerr) {
		assert.Equal(t, 2, oerr.Index)
		assert.Equal(t, int32(9), oerr.Value)
	}
}

func TestDiagnostics(t *testing.T) {
	var c diag.Collector
	_, err := DecodeWithDiagnostics(bytes.NewReader(fixture(t, format.V(2, 1), defaultObjects)), &c)
	require.NoError(t, err)
	assert.Zero(t, c.Len(), c.String())

	c = diag.Collector{}
	_, err = DecodeWithDiagnostics(bytes.NewReader(fixture(t, format.V(2, 1), []object{
		{ObjectModel, "empty", ""},
		{ObjectSound, "silence", ""},
	})), &c)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len(), c.String())
	assert.True(t, c.Has(diag.EmptyName))
}

func TestQuadTree(t *testing.T) {
	assert.Equal(t, QuadTreeSize, SubtreeSize(0))
	assert.Equal(t, 1, SubtreeSize(QuadTreeDepth))
	assert.Equal(t, 0, SubtreeSize(QuadTreeDepth+1))
	assert.Equal(t, 1, Child(0, 0, 0))
	assert.Equal(t, 1+341, Child(0, 0, 1))
	assert.Equal(t, 1+3*341, Child(0, 0, 3))
	assert.Equal(t, -1, Child(QuadTreeSize-1, QuadTreeDepth, 0))

	var tree QuadTree
	require.Len(t, quadTree(1), QuadTreeSize)
	copy(tree[:], quadTree(1024))

	var visited, leaves int
	tree.Walk(func(i, depth int, n *QuadNode) bool {
		visited++
		if depth == QuadTreeDepth {
			leaves++
		}
		return true
	})
	assert.Equal(t, QuadTreeSize, visited)
	assert.Equal(t, 1024, leaves)

	// the first leaf is the corner at the minimum of both axes
	i := tree.Find(-1000, -1000)
	assert.Equal(t, QuadTreeDepth, i)
	assert.True(t, tree[i].Contains(-1000, -1000))

	i = tree.Find(1000, 1000)
	assert.Equal(t, QuadTreeSize-1, i)
	assert.Equal(t, -1, tree.Find(2000, 0))
}

func TestObjectTypeString(t *testing.T) {
	assert.Equal(t, "sound", ObjectSound.String())
	assert.Equal(t, "ObjectType(0)", ObjectType(0).String())
}
