// Package act decodes sprite animations.
package act

import (
	"fmt"
	"io"

	"github.com/rorebuild/grf/diag"
	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/bin"
	"github.com/rorebuild/grf/spr"
)

// Signature is the magic at the start of an animation.
const Signature = "AC"

// DefaultFrameTime is used for every clip by versions which do not store frame
// times.
const DefaultFrameTime = 4.0

// event names are stored in fixed-width fields
const eventNameSize = 40

// Animation is a decoded animation. FrameTimes has one entry per clip.
type Animation struct {
	Version    format.Version
	Clips      []Clip
	Events     []string
	FrameTimes []float32
}

// Clip is a sequence of frames, typically one direction of one action.
type Clip struct {
	Frames []Frame
}

// Frame is a set of sprite layers drawn together.
type Frame struct {
	Layers     []Layer
	EventIndex *int32 // nil if the frame triggers no event
	Anchors    []Anchor
}

// Layer places a sprite image in a frame.
type Layer struct {
	Position    [2]int32
	SpriteIndex int32 // -1 for none
	Flipped     bool
	Tint        format.ColorU8
	Scale       [2]float32
	Rotation    int32 // degrees
	SpriteType  SpriteType
	Size        *[2]int32 // only stored from 2.5
}

// Anchor is an attachment point for another animation.
type Anchor struct {
	X, Y      int32
	Attribute int32
}

// SpriteType selects which image list of the sprite a layer refers to.
type SpriteType int32

const (
	Indexed   SpriteType = 0
	TrueColor SpriteType = 1
)

func (t SpriteType) String() string {
	switch t {
	case Indexed:
		return "indexed"
	case TrueColor:
		return "true-color"
	default:
		return fmt.Sprintf("SpriteType(%d)", int32(t))
	}
}

// InvalidSpriteTypeError is returned for a layer with an unknown sprite type.
type InvalidSpriteTypeError struct {
	Value int32
}

func (e *InvalidSpriteTypeError) Error() string {
	return fmt.Sprintf("act: invalid sprite type %d", e.Value)
}

// Decode parses an animation from r.
func Decode(r io.Reader) (*Animation, error) {
	return DecodeWithDiagnostics(r, nil)
}

// DecodeWithDiagnostics is like Decode, but also reports anomalies to c.
func DecodeWithDiagnostics(r io.Reader, c *diag.Collector) (*Animation, error) {
	a := new(Animation)
	if err := a.Deserialize(r); err != nil {
		return nil, err
	}
	a.check(c)
	return a, nil
}

// Deserialize parses an Animation from r, which must contain nothing else.
func (a *Animation) Deserialize(r io.Reader) error {
	br := bin.NewReader(r)
	if err := br.Signature("act", Signature); err != nil {
		return err
	}

	var v [2]byte
	if err := br.Fixed(v[:]); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	a.Version = format.V(v[1], v[0])

	var frameTimes bool
	switch a.Version {
	case format.V(2, 0), format.V(2, 1):
	case format.V(2, 3), format.V(2, 4), format.V(2, 5):
		frameTimes = true
	default:
		return &format.UnsupportedVersionError{Format: "act", Version: a.Version}
	}

	n, err := br.U16()
	if err != nil {
		return fmt.Errorf("read clip count: %w", err)
	}
	if err := br.Skip(10); err != nil {
		return fmt.Errorf("read reserved: %w", err)
	}

	a.Clips = make([]Clip, n)
	for i := range a.Clips {
		if err := a.Clips[i].deserialize(br, a.Version); err != nil {
			return fmt.Errorf("read clip %d: %w", i, err)
		}
	}

	a.Events = nil
	if a.Version.AtLeast(2, 1) {
		n, err := br.U32()
		if err != nil {
			return fmt.Errorf("read event count: %w", err)
		}
		for i := uint32(0); i < n; i++ {
			s, err := br.Name(eventNameSize)
			if err != nil {
				return fmt.Errorf("read event %d: %w", i, err)
			}
			a.Events = append(a.Events, s)
		}
	}

	a.FrameTimes = make([]float32, len(a.Clips))
	for i := range a.FrameTimes {
		if !frameTimes {
			a.FrameTimes[i] = DefaultFrameTime
		} else if a.FrameTimes[i], err = br.F32(); err != nil {
			return fmt.Errorf("read frame time %d: %w", i, err)
		}
	}
	return br.Finish()
}

func (c *Clip) deserialize(r *bin.Reader, v format.Version) error {
	n, err := r.U32()
	if err != nil {
		return fmt.Errorf("read frame count: %w", err)
	}
	c.Frames = make([]Frame, 0, min(n, 1024))
	for i := uint32(0); i < n; i++ {
		var f Frame
		if err := f.deserialize(r, v); err != nil {
			return fmt.Errorf("read frame %d: %w", i, err)
		}
		c.Frames = append(c.Frames, f)
	}
	return nil
}

func (f *Frame) deserialize(r *bin.Reader, v format.Version) error {
	if err := r.Skip(32); err != nil {
		return fmt.Errorf("read reserved: %w", err)
	}
	n, err := r.U32()
	if err != nil {
		return fmt.Errorf("read layer count: %w", err)
	}
	f.Layers = make([]Layer, 0, min(n, 1024))
	for i := uint32(0); i < n; i++ {
		var l Layer
		if err := l.deserialize(r, v); err != nil {
			return fmt.Errorf("read layer %d: %w", i, err)
		}
		f.Layers = append(f.Layers, l)
	}

	ev, err := r.I32()
	if err != nil {
		return fmt.Errorf("read event index: %w", err)
	}
	if ev != -1 {
		f.EventIndex = &ev
	}

	if v.AtLeast(2, 3) {
		n, err := r.U32()
		if err != nil {
			return fmt.Errorf("read anchor count: %w", err)
		}
		f.Anchors = make([]Anchor, 0, min(n, 1024))
		for i := uint32(0); i < n; i++ {
			var x Anchor
			if err := r.Skip(4); err != nil {
				return fmt.Errorf("read anchor %d: %w", i, err)
			}
			var p [3]int32
			if err := r.I32s(p[:]); err != nil {
				return fmt.Errorf("read anchor %d: %w", i, err)
			}
			x.X, x.Y, x.Attribute = p[0], p[1], p[2]
			f.Anchors = append(f.Anchors, x)
		}
	}
	return nil
}

func (l *Layer) deserialize(r *bin.Reader, v format.Version) error {
	var p [3]int32
	if err := r.I32s(p[:]); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	l.Position = [2]int32{p[0], p[1]}
	l.SpriteIndex = p[2]

	flipped, err := r.U32()
	if err != nil {
		return fmt.Errorf("read flipped: %w", err)
	}
	l.Flipped = flipped != 0

	if l.Tint, err = r.Color(); err != nil {
		return fmt.Errorf("read tint: %w", err)
	}

	if l.Scale[0], err = r.F32(); err != nil {
		return fmt.Errorf("read scale: %w", err)
	}
	l.Scale[1] = l.Scale[0]
	if v.AtLeast(2, 4) {
		if l.Scale[1], err = r.F32(); err != nil {
			return fmt.Errorf("read scale: %w", err)
		}
	}

	if l.Rotation, err = r.I32(); err != nil {
		return fmt.Errorf("read rotation: %w", err)
	}
	st, err := r.I32()
	if err != nil {
		return fmt.Errorf("read sprite type: %w", err)
	}
	switch l.SpriteType = SpriteType(st); l.SpriteType {
	case Indexed, TrueColor:
	default:
		return &InvalidSpriteTypeError{Value: st}
	}

	if v.AtLeast(2, 5) {
		var sz [2]int32
		if err := r.I32s(sz[:]); err != nil {
			return fmt.Errorf("read size: %w", err)
		}
		l.Size = &sz
	}
	return nil
}

func (a *Animation) check(c *diag.Collector) {
	if c == nil {
		return
	}
	seen := map[string]int{}
	for i, e := range a.Events {
		if e == "" {
			c.Add(diag.EmptyName, "event %d has no name", i)
			continue
		}
		if j, ok := seen[e]; ok {
			c.Add(diag.DuplicateName, "event %d %q duplicates event %d", i, e, j)
		} else {
			seen[e] = i
		}
	}
	for ci, clip := range a.Clips {
		for fi, f := range clip.Frames {
			if f.EventIndex != nil && (*f.EventIndex < 0 || int(*f.EventIndex) >= len(a.Events)) {
				c.Add(diag.IndexRange, "clip %d frame %d: event index %d out of range (%d events)", ci, fi, *f.EventIndex, len(a.Events))
			}
		}
	}
}

// CheckSprite reports layers of a referring to images which do not exist in
// s.
func (a *Animation) CheckSprite(s *spr.Sprite, c *diag.Collector) {
	for ci, clip := range a.Clips {
		for fi, f := range clip.Frames {
			for li, l := range f.Layers {
				if l.SpriteIndex == -1 {
					continue
				}
				n := len(s.Indexed)
				if l.SpriteType == TrueColor {
					n = len(s.TrueColor)
				}
				if l.SpriteIndex < 0 || int(l.SpriteIndex) >= n {
					c.Add(diag.IndexRange, "clip %d frame %d layer %d: %s sprite index %d out of range (%d images)", ci, fi, li, l.SpriteType, l.SpriteIndex, n)
				}
			}
		}
	}
}
