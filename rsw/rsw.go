// Package rsw decodes world files, which tie a map together: the ground mesh,
// lighting, water, and the models, lights, sounds, and effects placed on it.
package rsw

import (
	"fmt"
	"io"

	"github.com/rorebuild/grf/diag"
	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/bin"
)

// Signature is the magic at the start of a world.
const Signature = "GRSW"

const (
	pathSize = 40
	nameSize = 80
)

// World is a decoded world.
type World struct {
	Version  format.Version
	Flag     uint8 // 2.5 and later
	Ini      string
	Ground   string
	Altitude string // 1.4 and later
	Source   string // 1.4 and later
	Water    *Water // nil from 2.6, where the ground mesh holds it
	Lighting Lighting
	Bounds   Bounds
	Models   []Model
	Lights   []Light
	Sounds   []Sound
	Effects  []Effect
	QuadTree QuadTree
}

// Water is the map water plane.
type Water struct {
	Level      float32
	Type       int32
	WaveHeight float32
	WaveSpeed  float32
	WavePitch  float32
	AnimSpeed  int32
}

// DefaultWater returns the water settings used for fields older versions do
// not store.
func DefaultWater() Water {
	return Water{
		WaveHeight: 1,
		WaveSpeed:  2,
		WavePitch:  50,
		AnimSpeed:  3,
	}
}

// Lighting is the directional sun light.
type Lighting struct {
	Longitude   int32 // degrees
	Latitude    int32 // degrees
	Diffuse     [3]float32
	Ambient     [3]float32
	ShadowAlpha float32
}

// DefaultLighting returns the lighting used before 1.5.
func DefaultLighting() Lighting {
	return Lighting{
		Longitude:   45,
		Latitude:    45,
		Diffuse:     [3]float32{1, 1, 1},
		Ambient:     [3]float32{0.3, 0.3, 0.3},
		ShadowAlpha: 0.5,
	}
}

// Bounds is the extent of the map.
type Bounds struct {
	Top, Bottom, Left, Right int32
}

// DefaultBounds returns the bounds used before 1.6.
func DefaultBounds() Bounds {
	return Bounds{Top: -500, Bottom: 500, Left: -500, Right: 500}
}

// ObjectType tags each object record.
type ObjectType int32

const (
	ObjectModel ObjectType = iota + 1
	ObjectLight
	ObjectSound
	ObjectEffect
)

func (t ObjectType) String() string {
	switch t {
	case ObjectModel:
		return "model"
	case ObjectLight:
		return "light"
	case ObjectSound:
		return "sound"
	case ObjectEffect:
		return "effect"
	default:
		return fmt.Sprintf("ObjectType(%d)", int32(t))
	}
}

// InvalidObjectTypeError is returned for an unknown object tag.
type InvalidObjectTypeError struct {
	Index int
	Value int32
}

func (e *InvalidObjectTypeError) Error() string {
	return fmt.Sprintf("object %d: invalid type %d", e.Index, e.Value)
}

// Model places an instance of a model.
type Model struct {
	Name      string // 1.3 and later
	AnimType  int32
	AnimSpeed float32
	BlockType int32
	Flag      uint8 // 2.6 build 162 and later
	File      string
	Node      string
	Position  [3]float32
	Rotation  [3]float32 // degrees
	Scale     [3]float32
}

type Light struct {
	Name     string
	Position [3]float32
	Color    [3]float32
	Range    float32
}

type Sound struct {
	Name     string
	File     string
	Position [3]float32
	Volume   float32
	Width    uint32
	Height   uint32
	Range    float32
	Cycle    float32 // seconds
}

// DefaultSoundCycle is the cycle of sounds before 2.0.
const DefaultSoundCycle = 4.0

type Effect struct {
	Name     string
	Position [3]float32
	ID       int32
	Delay    float32
	Params   [4]float32
}

// Decode parses a world from r.
func Decode(r io.Reader) (*World, error) {
	return DecodeWithDiagnostics(r, nil)
}

// DecodeWithDiagnostics is like Decode, but also reports anomalies to c.
func DecodeWithDiagnostics(r io.Reader, c *diag.Collector) (*World, error) {
	w := new(World)
	if err := w.Deserialize(r); err != nil {
		return nil, err
	}
	w.check(c)
	return w, nil
}

// Deserialize parses a World from r, which must contain nothing else.
func (w *World) Deserialize(r io.Reader) error {
	br := bin.NewReader(r)
	if err := br.Signature("rsw", Signature); err != nil {
		return err
	}

	var v [2]byte
	if err := br.Fixed(v[:]); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	*w = World{Version: format.V(v[0], v[1])}
	switch {
	case w.Version.In(format.V(1, 2), format.V(1, 10)):
	case w.Version.In(format.V(2, 0), format.V(2, 2)):
	case w.Version.In(format.V(2, 2), format.V(2, 5)):
		b, err := br.U8()
		if err != nil {
			return fmt.Errorf("read build: %w", err)
		}
		w.Version.Build = uint32(b)
	case w.Version.In(format.V(2, 5), format.V(2, 7)):
		b, err := br.U32()
		if err != nil {
			return fmt.Errorf("read build: %w", err)
		}
		w.Version.Build = b
		if w.Flag, err = br.U8(); err != nil {
			return fmt.Errorf("read flag: %w", err)
		}
	default:
		return &format.UnsupportedVersionError{Format: "rsw", Version: w.Version}
	}

	var err error
	if w.Ini, err = br.Path(pathSize); err != nil {
		return fmt.Errorf("read ini path: %w", err)
	}
	if w.Ground, err = br.Path(pathSize); err != nil {
		return fmt.Errorf("read ground path: %w", err)
	}
	if w.Version.AtLeast(1, 4) {
		if w.Altitude, err = br.Path(pathSize); err != nil {
			return fmt.Errorf("read altitude path: %w", err)
		}
		if w.Source, err = br.Path(pathSize); err != nil {
			return fmt.Errorf("read source path: %w", err)
		}
	}

	if w.Version.AtLeast(1, 3) && w.Version.Before(2, 6) {
		w.Water = new(Water)
		if err := w.Water.deserialize(br, w.Version); err != nil {
			return fmt.Errorf("read water: %w", err)
		}
	}

	w.Lighting = DefaultLighting()
	if w.Version.AtLeast(1, 5) {
		if err := w.Lighting.deserialize(br, w.Version); err != nil {
			return fmt.Errorf("read lighting: %w", err)
		}
	}

	w.Bounds = DefaultBounds()
	if w.Version.AtLeast(1, 6) {
		var b [4]int32
		if err := br.I32s(b[:]); err != nil {
			return fmt.Errorf("read bounds: %w", err)
		}
		w.Bounds = Bounds{Top: b[0], Bottom: b[1], Left: b[2], Right: b[3]}
	}

	if err := w.deserializeObjects(br); err != nil {
		return err
	}

	if w.Version.AtLeast(2, 1) {
		if err := w.QuadTree.deserialize(br); err != nil {
			return fmt.Errorf("read quad tree: %w", err)
		}
	}
	return br.Finish()
}

func (x *Water) deserialize(r *bin.Reader, v format.Version) error {
	*x = DefaultWater()
	var err error
	if x.Level, err = r.F32(); err != nil {
		return fmt.Errorf("read level: %w", err)
	}
	if v.AtLeast(1, 8) {
		if x.Type, err = r.I32(); err != nil {
			return fmt.Errorf("read type: %w", err)
		}
		var wave [3]float32
		if err := r.F32s(wave[:]); err != nil {
			return fmt.Errorf("read wave: %w", err)
		}
		x.WaveHeight, x.WaveSpeed, x.WavePitch = wave[0], wave[1], wave[2]
	}
	if v.AtLeast(1, 9) {
		if x.AnimSpeed, err = r.I32(); err != nil {
			return fmt.Errorf("read anim speed: %w", err)
		}
	}
	return nil
}

func (l *Lighting) deserialize(r *bin.Reader, v format.Version) error {
	var err error
	if l.Longitude, err = r.I32(); err != nil {
		return fmt.Errorf("read longitude: %w", err)
	}
	if l.Latitude, err = r.I32(); err != nil {
		return fmt.Errorf("read latitude: %w", err)
	}
	if l.Diffuse, err = r.Vec3(); err != nil {
		return fmt.Errorf("read diffuse: %w", err)
	}
	if l.Ambient, err = r.Vec3(); err != nil {
		return fmt.Errorf("read ambient: %w", err)
	}
	if v.AtLeast(1, 7) {
		if l.ShadowAlpha, err = r.F32(); err != nil {
			return fmt.Errorf("read shadow alpha: %w", err)
		}
	}
	return nil
}

// deserializeObjects reads the object list. The objects are stored in a
// single list, each prefixed by its type.
func (w *World) deserializeObjects(r *bin.Reader) error {
	n, err := r.Count()
	if err != nil {
		return fmt.Errorf("read object count: %w", err)
	}
	for i := 0; i < n; i++ {
		t, err := r.I32()
		if err != nil {
			return fmt.Errorf("read object %d type: %w", i, err)
		}
		switch ObjectType(t) {
		case ObjectModel:
			var x Model
			err = x.deserialize(r, w.Version)
			w.Models = append(w.Models, x)
		case ObjectLight:
			var x Light
			err = x.deserialize(r)
			w.Lights = append(w.Lights, x)
		case ObjectSound:
			var x Sound
			err = x.deserialize(r, w.Version)
			w.Sounds = append(w.Sounds, x)
		case ObjectEffect:
			var x Effect
			err = x.deserialize(r)
			w.Effects = append(w.Effects, x)
		default:
			return &InvalidObjectTypeError{Index: i, Value: t}
		}
		if err != nil {
			return fmt.Errorf("read object %d (%s): %w", i, ObjectType(t), err)
		}
	}
	return nil
}

func (x *Model) deserialize(r *bin.Reader, v format.Version) error {
	var err error
	x.AnimSpeed = 1
	if v.AtLeast(1, 3) {
		if x.Name, err = r.Name(pathSize); err != nil {
			return fmt.Errorf("read name: %w", err)
		}
		if x.AnimType, err = r.I32(); err != nil {
			return fmt.Errorf("read anim type: %w", err)
		}
		if x.AnimSpeed, err = r.F32(); err != nil {
			return fmt.Errorf("read anim speed: %w", err)
		}
		if x.BlockType, err = r.I32(); err != nil {
			return fmt.Errorf("read block type: %w", err)
		}
	}
	if v.AtLeast(2, 6) && v.Build >= 162 {
		if x.Flag, err = r.U8(); err != nil {
			return fmt.Errorf("read flag: %w", err)
		}
	}
	if x.File, err = r.Path(nameSize); err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if x.Node, err = r.Name(nameSize); err != nil {
		return fmt.Errorf("read node: %w", err)
	}
	if x.Position, err = r.Vec3(); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	if x.Rotation, err = r.Vec3(); err != nil {
		return fmt.Errorf("read rotation: %w", err)
	}
	if x.Scale, err = r.Vec3(); err != nil {
		return fmt.Errorf("read scale: %w", err)
	}
	return nil
}

func (x *Light) deserialize(r *bin.Reader) error {
	var err error
	if x.Name, err = r.Name(nameSize); err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	if x.Position, err = r.Vec3(); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	if x.Color, err = r.Vec3(); err != nil {
		return fmt.Errorf("read color: %w", err)
	}
	if x.Range, err = r.F32(); err != nil {
		return fmt.Errorf("read range: %w", err)
	}
	return nil
}

func (x *Sound) deserialize(r *bin.Reader, v format.Version) error {
	var err error
	if x.Name, err = r.Name(nameSize); err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	if x.File, err = r.Path(nameSize); err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if x.Position, err = r.Vec3(); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	if x.Volume, err = r.F32(); err != nil {
		return fmt.Errorf("read volume: %w", err)
	}
	if x.Width, err = r.U32(); err != nil {
		return fmt.Errorf("read width: %w", err)
	}
	if x.Height, err = r.U32(); err != nil {
		return fmt.Errorf("read height: %w", err)
	}
	if x.Range, err = r.F32(); err != nil {
		return fmt.Errorf("read range: %w", err)
	}
	x.Cycle = DefaultSoundCycle
	if v.AtLeast(2, 0) {
		if x.Cycle, err = r.F32(); err != nil {
			return fmt.Errorf("read cycle: %w", err)
		}
	}
	return nil
}

func (x *Effect) deserialize(r *bin.Reader) error {
	var err error
	if x.Name, err = r.Name(nameSize); err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	if x.Position, err = r.Vec3(); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	if x.ID, err = r.I32(); err != nil {
		return fmt.Errorf("read id: %w", err)
	}
	if x.Delay, err = r.F32(); err != nil {
		return fmt.Errorf("read delay: %w", err)
	}
	if x.Params, err = r.Vec4(); err != nil {
		return fmt.Errorf("read params: %w", err)
	}
	return nil
}

func (w *World) check(c *diag.Collector) {
	if c == nil {
		return
	}
	if w.Ground == "" {
		c.Add(diag.EmptyName, "ground path is empty")
	}
	for i, x := range w.Models {
		if x.File == "" {
			c.Add(diag.EmptyName, "model %d (%q) has an empty file path", i, x.Name)
		}
	}
	for i, x := range w.Sounds {
		if x.File == "" {
			c.Add(diag.EmptyName, "sound %d (%q) has an empty file path", i, x.Name)
		}
	}
}
