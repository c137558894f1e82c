// Package rsm decodes static models: a forest of meshes with optional
// keyframe tracks, used for props placed on maps.
package rsm

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rorebuild/grf/diag"
	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/bin"
)

// Signature is the magic at the start of a model.
const Signature = "GRSM"

const nameSize = 40

// ShadeType selects how normals are computed when lighting a model.
type ShadeType int32

const (
	Unlit ShadeType = iota
	Flat
	Smooth
)

func (s ShadeType) String() string {
	switch s {
	case Unlit:
		return "unlit"
	case Flat:
		return "flat"
	case Smooth:
		return "smooth"
	default:
		return fmt.Sprintf("ShadeType(%d)", int32(s))
	}
}

// InvalidShadeTypeError is returned for a shade type other than Unlit, Flat,
// or Smooth.
type InvalidShadeTypeError struct {
	Value int32
}

func (e *InvalidShadeTypeError) Error() string {
	return fmt.Sprintf("invalid shade type %d", e.Value)
}

// ErrInvalidNameSection is returned when a version 2 model lists no root
// meshes.
var ErrInvalidNameSection = errors.New("model has no root mesh names")

// InvalidFaceLengthError is returned for a version 2 face record whose size
// cannot hold the fixed fields followed by whole smoothing groups.
type InvalidFaceLengthError struct {
	Length int32
}

func (e *InvalidFaceLengthError) Error() string {
	return fmt.Sprintf("invalid face record length %d", e.Length)
}

// Duration is the length of the model animation. It is a FrameCount before
// version 2, and a FrameRate afterwards.
type Duration interface {
	// Time converts the duration to wall-clock time.
	Time() time.Duration
	isDuration()
}

// FrameCount is an animation length in milliseconds.
type FrameCount int32

func (f FrameCount) Time() time.Duration {
	return time.Duration(f) * time.Millisecond
}

// FrameRate is an animation length in frames played at FPS.
type FrameRate struct {
	Frames int32
	FPS    float32
}

func (f FrameRate) Time() time.Duration {
	if f.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(f.Frames) / float64(f.FPS) * float64(time.Second))
}

func (FrameCount) isDuration() {}
func (FrameRate) isDuration() {}

// Textures is the set of textures used by a mesh: either indices into the
// model texture list, or the paths themselves.
type Textures interface {
	Len() int
	isTextures()
}

// TextureIndices index Model.Textures.
type TextureIndices []int32

// TexturePaths are texture paths owned by the mesh.
type TexturePaths []string

func (t TextureIndices) Len() int { return len(t) }
func (t TexturePaths) Len() int { return len(t) }

func (TextureIndices) isTextures() {}
func (TexturePaths) isTextures() {}

// Transform places a mesh relative to its parent, in addition to Mesh.Matrix.
type Transform interface {
	isTransform()
}

// SimpleTransform is a translation only.
type SimpleTransform struct {
	Position [3]float32
}

// CompleteTransform is the full decomposition used before version 2.
type CompleteTransform struct {
	Offset        [3]float32
	Position      [3]float32
	RotationAngle float32 // radians
	RotationAxis  [3]float32
	Scale         [3]float32
}

func (SimpleTransform) isTransform() {}
func (CompleteTransform) isTransform() {}

// Model is a decoded model.
type Model struct {
	Version        format.Version
	ShadeType      ShadeType
	Alpha          uint8
	Duration       Duration
	Textures       []string // empty for 2.3, where meshes own their paths
	RootMeshes     []string
	Meshes         []Mesh
	ScaleKeyframes []ScaleKeyframe // before 1.5 only
	VolumeBoxes    []VolumeBox
}

// Mesh is a node of the model hierarchy.
type Mesh struct {
	Name              string
	Parent            string // empty for a root
	Textures          Textures
	Matrix            [9]float32 // row-major 3x3
	Transform         Transform
	Vertices          [][3]float32
	UVs               []UV
	Faces             []Face
	PositionKeyframes []PositionKeyframe
	RotationKeyframes []RotationKeyframe
	ScaleKeyframes    []ScaleKeyframe
	TextureAnimations []TextureAnimation
}

// UV is a texture coordinate with a vertex color.
type UV struct {
	Color format.ColorU8
	U, V  float32
}

// Face is a triangle.
type Face struct {
	Vertices        [3]uint16
	UVs             [3]uint16
	Texture         uint16 // index into Mesh.Textures
	TwoSided        int32
	SmoothingGroups []int32
}

type PositionKeyframe struct {
	Frame    int32
	Position [3]float32
	Data     int32
}

type RotationKeyframe struct {
	Frame      int32
	Quaternion [4]float32 // x, y, z, w
}

type ScaleKeyframe struct {
	Frame int32
	Scale [3]float32
	Data  float32
}

// TextureAnimation animates the mapping of one mesh texture.
type TextureAnimation struct {
	Texture int32
	Tracks  []TextureTrack
}

// TextureTrack is a keyframed value of a texture animation.
type TextureTrack struct {
	Type      int32
	Keyframes []TextureKeyframe
}

type TextureKeyframe struct {
	Frame  int32
	Offset float32
}

// VolumeBox is a bounding volume attached to the model.
type VolumeBox struct {
	Size     [3]float32
	Position [3]float32
	Rotation [3]float32
	Flag     int32 // 1.3 and later
}

// Decode parses a model from r.
func Decode(r io.Reader) (*Model, error) {
	return DecodeWithDiagnostics(r, nil)
}

// DecodeWithDiagnostics is like Decode, but also reports anomalies to c.
func DecodeWithDiagnostics(r io.Reader, c *diag.Collector) (*Model, error) {
	m := new(Model)
	if err := m.Deserialize(r); err != nil {
		return nil, err
	}
	m.check(c)
	return m, nil
}

// Deserialize parses a Model from r, which must contain nothing else.
func (m *Model) Deserialize(r io.Reader) error {
	br := bin.NewReader(r)
	if err := br.Signature("rsm", Signature); err != nil {
		return err
	}

	var v [2]byte
	if err := br.Fixed(v[:]); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	*m = Model{Version: format.V(v[0], v[1])}

	var err error
	switch m.Version {
	case format.V(1, 1), format.V(1, 2), format.V(1, 3), format.V(1, 4), format.V(1, 5):
		err = m.deserializeV1(br)
	case format.V(2, 2), format.V(2, 3):
		err = m.deserializeV2(br)
	default:
		return &format.UnsupportedVersionError{Format: "rsm", Version: m.Version}
	}
	if err != nil {
		return err
	}
	return br.Finish()
}

func (m *Model) deserializeHeader(r *bin.Reader) error {
	frames, err := r.I32()
	if err != nil {
		return fmt.Errorf("read animation length: %w", err)
	}
	m.Duration = FrameCount(frames)

	st, err := r.I32()
	if err != nil {
		return fmt.Errorf("read shade type: %w", err)
	}
	if st < int32(Unlit) || st > int32(Smooth) {
		return &InvalidShadeTypeError{Value: st}
	}
	m.ShadeType = ShadeType(st)

	m.Alpha = 0xff
	if m.Version.AtLeast(1, 4) {
		if m.Alpha, err = r.U8(); err != nil {
			return fmt.Errorf("read alpha: %w", err)
		}
	}
	return nil
}

func (m *Model) deserializeV1(r *bin.Reader) error {
	if err := m.deserializeHeader(r); err != nil {
		return err
	}
	if err := r.Skip(16); err != nil {
		return fmt.Errorf("read reserved: %w", err)
	}

	n, err := r.Count()
	if err != nil {
		return fmt.Errorf("read texture count: %w", err)
	}
	if m.Textures, err = r.Paths(n, nameSize); err != nil {
		return fmt.Errorf("read textures: %w", err)
	}

	root, err := r.Name(nameSize)
	if err != nil {
		return fmt.Errorf("read root mesh name: %w", err)
	}
	m.RootMeshes = []string{root}

	if n, err = r.Count(); err != nil {
		return fmt.Errorf("read mesh count: %w", err)
	}
	m.Meshes = make([]Mesh, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		var x Mesh
		if err := x.deserializeV1(r, m.Version); err != nil {
			return fmt.Errorf("read mesh %d: %w", i, err)
		}
		m.Meshes = append(m.Meshes, x)
	}

	if m.Version.Before(1, 5) {
		if m.ScaleKeyframes, err = readScaleKeyframes(r); err != nil {
			return fmt.Errorf("read scale keyframes: %w", err)
		}
	}

	// some exporters omit the volume boxes entirely, with nothing to
	// indicate it other than the end of the file
	n, err = r.Count()
	if err != nil {
		if bin.IsEOF(err) {
			return nil
		}
		return fmt.Errorf("read volume box count: %w", err)
	}
	if m.VolumeBoxes, err = readVolumeBoxes(r, n, m.Version.AtLeast(1, 3)); err != nil {
		return fmt.Errorf("read volume boxes: %w", err)
	}
	return nil
}

func (m *Model) deserializeV2(r *bin.Reader) error {
	if err := m.deserializeHeader(r); err != nil {
		return err
	}
	fps, err := r.F32()
	if err != nil {
		return fmt.Errorf("read frame rate: %w", err)
	}
	m.Duration = FrameRate{Frames: int32(m.Duration.(FrameCount)), FPS: fps}

	if m.Version == format.V(2, 2) {
		n, err := r.Count()
		if err != nil {
			return fmt.Errorf("read texture count: %w", err)
		}
		if m.Textures, err = r.LenPaths(n); err != nil {
			return fmt.Errorf("read textures: %w", err)
		}
	}

	n, err := r.I32()
	if err != nil {
		return fmt.Errorf("read root mesh count: %w", err)
	}
	if n < 1 {
		return ErrInvalidNameSection
	}
	m.RootMeshes = make([]string, 0, min(n, 64))
	for i := int32(0); i < n; i++ {
		s, err := r.LenName()
		if err != nil {
			return fmt.Errorf("read root mesh name %d: %w", i, err)
		}
		m.RootMeshes = append(m.RootMeshes, s)
	}

	c, err := r.Count()
	if err != nil {
		return fmt.Errorf("read mesh count: %w", err)
	}
	m.Meshes = make([]Mesh, 0, min(c, 1024))
	for i := 0; i < c; i++ {
		var x Mesh
		if err := x.deserializeV2(r, m.Version); err != nil {
			return fmt.Errorf("read mesh %d: %w", i, err)
		}
		m.Meshes = append(m.Meshes, x)
	}

	if c, err = r.Count(); err != nil {
		return fmt.Errorf("read volume box count: %w", err)
	}
	if m.VolumeBoxes, err = readVolumeBoxes(r, c, true); err != nil {
		return fmt.Errorf("read volume boxes: %w", err)
	}

	if m.Version == format.V(2, 2) {
		if err := r.Skip(4); err != nil {
			return fmt.Errorf("read padding: %w", err)
		}
	}
	return nil
}

func (x *Mesh) deserializeV1(r *bin.Reader, v format.Version) error {
	var err error
	if x.Name, err = r.Name(nameSize); err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	if x.Parent, err = r.Name(nameSize); err != nil {
		return fmt.Errorf("read parent: %w", err)
	}

	n, err := r.Count()
	if err != nil {
		return fmt.Errorf("read texture count: %w", err)
	}
	ts := make(TextureIndices, min(n, 1<<16))
	if n > len(ts) {
		return fmt.Errorf("too many textures (%d)", n)
	}
	if err := r.I32s(ts); err != nil {
		return fmt.Errorf("read textures: %w", err)
	}
	x.Textures = ts

	if err := r.F32s(x.Matrix[:]); err != nil {
		return fmt.Errorf("read matrix: %w", err)
	}

	var t CompleteTransform
	if err := r.F32s(t.Offset[:]); err != nil {
		return fmt.Errorf("read offset: %w", err)
	}
	if err := r.F32s(t.Position[:]); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	if t.RotationAngle, err = r.F32(); err != nil {
		return fmt.Errorf("read rotation angle: %w", err)
	}
	if err := r.F32s(t.RotationAxis[:]); err != nil {
		return fmt.Errorf("read rotation axis: %w", err)
	}
	if err := r.F32s(t.Scale[:]); err != nil {
		return fmt.Errorf("read scale: %w", err)
	}
	x.Transform = t

	if err := x.deserializeGeometry(r, v); err != nil {
		return err
	}

	if n, err = r.Count(); err != nil {
		return fmt.Errorf("read face count: %w", err)
	}
	x.Faces = make([]Face, 0, min(n, 1<<16))
	for i := 0; i < n; i++ {
		var f Face
		if err := f.deserialize(r); err != nil {
			return fmt.Errorf("read face %d: %w", i, err)
		}
		if v.AtLeast(1, 2) {
			g, err := r.I32()
			if err != nil {
				return fmt.Errorf("read face %d smoothing group: %w", i, err)
			}
			f.SmoothingGroups = []int32{g}
		}
		x.Faces = append(x.Faces, f)
	}

	if v.AtLeast(1, 5) {
		if x.ScaleKeyframes, err = readScaleKeyframes(r); err != nil {
			return fmt.Errorf("read scale keyframes: %w", err)
		}
	}
	if x.RotationKeyframes, err = readRotationKeyframes(r); err != nil {
		return fmt.Errorf("read rotation keyframes: %w", err)
	}
	return nil
}

func (x *Mesh) deserializeV2(r *bin.Reader, v format.Version) error {
	var err error
	if x.Name, err = r.LenName(); err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	if x.Parent, err = r.LenName(); err != nil {
		return fmt.Errorf("read parent: %w", err)
	}

	n, err := r.Count()
	if err != nil {
		return fmt.Errorf("read texture count: %w", err)
	}
	if v == format.V(2, 3) {
		ps, err := r.LenPaths(n)
		if err != nil {
			return fmt.Errorf("read textures: %w", err)
		}
		x.Textures = TexturePaths(ps)
	} else {
		ts := make(TextureIndices, min(n, 1<<16))
		if n > len(ts) {
			return fmt.Errorf("too many textures (%d)", n)
		}
		if err := r.I32s(ts); err != nil {
			return fmt.Errorf("read textures: %w", err)
		}
		x.Textures = ts
	}

	if err := r.F32s(x.Matrix[:]); err != nil {
		return fmt.Errorf("read matrix: %w", err)
	}
	var t SimpleTransform
	if err := r.F32s(t.Position[:]); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	x.Transform = t

	if err := x.deserializeGeometry(r, v); err != nil {
		return err
	}

	if n, err = r.Count(); err != nil {
		return fmt.Errorf("read face count: %w", err)
	}
	x.Faces = make([]Face, 0, min(n, 1<<16))
	for i := 0; i < n; i++ {
		l, err := r.I32()
		if err != nil {
			return fmt.Errorf("read face %d length: %w", i, err)
		}
		if l < faceSize+4 || (l-faceSize)%4 != 0 {
			return fmt.Errorf("read face %d: %w", i, &InvalidFaceLengthError{Length: l})
		}
		var f Face
		if err := f.deserialize(r); err != nil {
			return fmt.Errorf("read face %d: %w", i, err)
		}
		f.SmoothingGroups = make([]int32, (l-faceSize)/4)
		if err := r.I32s(f.SmoothingGroups); err != nil {
			return fmt.Errorf("read face %d smoothing groups: %w", i, err)
		}
		x.Faces = append(x.Faces, f)
	}

	if x.ScaleKeyframes, err = readScaleKeyframes(r); err != nil {
		return fmt.Errorf("read scale keyframes: %w", err)
	}
	if x.RotationKeyframes, err = readRotationKeyframes(r); err != nil {
		return fmt.Errorf("read rotation keyframes: %w", err)
	}
	if x.PositionKeyframes, err = readPositionKeyframes(r); err != nil {
		return fmt.Errorf("read position keyframes: %w", err)
	}

	if v == format.V(2, 3) {
		if x.TextureAnimations, err = readTextureAnimations(r); err != nil {
			return fmt.Errorf("read texture animations: %w", err)
		}
	}
	return nil
}

// deserializeGeometry reads the vertices and UVs, which are laid out the same
// way in every version.
func (x *Mesh) deserializeGeometry(r *bin.Reader, v format.Version) error {
	n, err := r.Count()
	if err != nil {
		return fmt.Errorf("read vertex count: %w", err)
	}
	x.Vertices = make([][3]float32, 0, min(n, 1<<16))
	for i := 0; i < n; i++ {
		p, err := r.Vec3()
		if err != nil {
			return fmt.Errorf("read vertex %d: %w", i, err)
		}
		x.Vertices = append(x.Vertices, p)
	}

	if n, err = r.Count(); err != nil {
		return fmt.Errorf("read uv count: %w", err)
	}
	x.UVs = make([]UV, 0, min(n, 1<<16))
	for i := 0; i < n; i++ {
		uv := UV{Color: format.ColorU8{R: 0xff, G: 0xff, B: 0xff, A: 0xff}}
		if v.AtLeast(1, 2) {
			if uv.Color, err = r.Color(); err != nil {
				return fmt.Errorf("read uv %d color: %w", i, err)
			}
		}
		if uv.U, err = r.F32(); err != nil {
			return fmt.Errorf("read uv %d: %w", i, err)
		}
		if uv.V, err = r.F32(); err != nil {
			return fmt.Errorf("read uv %d: %w", i, err)
		}
		x.UVs = append(x.UVs, uv)
	}
	return nil
}

// faceSize is the size of the fixed part of a face record.
const faceSize = 20

func (f *Face) deserialize(r *bin.Reader) error {
	var idx [8]uint16
	if err := r.U16s(idx[:]); err != nil {
		return fmt.Errorf("read indices: %w", err)
	}
	copy(f.Vertices[:], idx[0:3])
	copy(f.UVs[:], idx[3:6])
	f.Texture = idx[6]
	var err error
	if f.TwoSided, err = r.I32(); err != nil {
		return fmt.Errorf("read two-sided: %w", err)
	}
	return nil
}

func readScaleKeyframes(r *bin.Reader) ([]ScaleKeyframe, error) {
	n, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	ks := make([]ScaleKeyframe, 0, min(n, 1<<12))
	for i := 0; i < n; i++ {
		var k ScaleKeyframe
		if k.Frame, err = r.I32(); err == nil {
			if k.Scale, err = r.Vec3(); err == nil {
				k.Data, err = r.F32()
			}
		}
		if err != nil {
			return nil, fmt.Errorf("read keyframe %d: %w", i, err)
		}
		ks = append(ks, k)
	}
	return ks, nil
}

func readRotationKeyframes(r *bin.Reader) ([]RotationKeyframe, error) {
	n, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	ks := make([]RotationKeyframe, 0, min(n, 1<<12))
	for i := 0; i < n; i++ {
		var k RotationKeyframe
		if k.Frame, err = r.I32(); err == nil {
			k.Quaternion, err = r.Vec4()
		}
		if err != nil {
			return nil, fmt.Errorf("read keyframe %d: %w", i, err)
		}
		ks = append(ks, k)
	}
	return ks, nil
}

func readPositionKeyframes(r *bin.Reader) ([]PositionKeyframe, error) {
	n, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	ks := make([]PositionKeyframe, 0, min(n, 1<<12))
	for i := 0; i < n; i++ {
		var k PositionKeyframe
		if k.Frame, err = r.I32(); err == nil {
			if k.Position, err = r.Vec3(); err == nil {
				k.Data, err = r.I32()
			}
		}
		if err != nil {
			return nil, fmt.Errorf("read keyframe %d: %w", i, err)
		}
		ks = append(ks, k)
	}
	return ks, nil
}

func readTextureAnimations(r *bin.Reader) ([]TextureAnimation, error) {
	n, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	as := make([]TextureAnimation, 0, min(n, 256))
	for i := 0; i < n; i++ {
		var a TextureAnimation
		if a.Texture, err = r.I32(); err != nil {
			return nil, fmt.Errorf("read animation %d texture: %w", i, err)
		}
		tn, err := r.Count()
		if err != nil {
			return nil, fmt.Errorf("read animation %d track count: %w", i, err)
		}
		for j := 0; j < tn; j++ {
			var t TextureTrack
			if t.Type, err = r.I32(); err != nil {
				return nil, fmt.Errorf("read animation %d track %d type: %w", i, j, err)
			}
			kn, err := r.Count()
			if err != nil {
				return nil, fmt.Errorf("read animation %d track %d keyframe count: %w", i, j, err)
			}
			for k := 0; k < kn; k++ {
				var kf TextureKeyframe
				if kf.Frame, err = r.I32(); err == nil {
					kf.Offset, err = r.F32()
				}
				if err != nil {
					return nil, fmt.Errorf("read animation %d track %d keyframe %d: %w", i, j, k, err)
				}
				t.Keyframes = append(t.Keyframes, kf)
			}
			a.Tracks = append(a.Tracks, t)
		}
		as = append(as, a)
	}
	return as, nil
}

func readVolumeBoxes(r *bin.Reader, n int, flag bool) ([]VolumeBox, error) {
	bs := make([]VolumeBox, 0, min(n, 256))
	for i := 0; i < n; i++ {
		var b VolumeBox
		var err error
		if b.Size, err = r.Vec3(); err == nil {
			if b.Position, err = r.Vec3(); err == nil {
				b.Rotation, err = r.Vec3()
			}
		}
		if err == nil && flag {
			b.Flag, err = r.I32()
		}
		if err != nil {
			return nil, fmt.Errorf("read box %d: %w", i, err)
		}
		bs = append(bs, b)
	}
	return bs, nil
}

func (m *Model) check(c *diag.Collector) {
	if c == nil {
		return
	}
	if m.Alpha != 0xff {
		c.Add(diag.Alpha, "model alpha is %d", m.Alpha)
	}

	names := make(map[string]bool, len(m.Meshes))
	for i, x := range m.Meshes {
		switch {
		case x.Name == "":
			c.Add(diag.EmptyName, "mesh %d has an empty name", i)
		case names[x.Name]:
			c.Add(diag.DuplicateName, "mesh %d: duplicate name %q", i, x.Name)
		}
		names[x.Name] = true
	}
	for _, root := range m.RootMeshes {
		if !names[root] {
			c.Add(diag.MissingParent, "root mesh %q does not exist", root)
		}
	}

	for i, t := range m.Textures {
		if t == "" {
			c.Add(diag.EmptyName, "texture %d has an empty path", i)
		}
	}

	for i, x := range m.Meshes {
		if x.Parent != "" {
			if x.Parent == x.Name {
				c.Add(diag.SelfParent, "mesh %d (%q) is its own parent", i, x.Name)
			} else if !names[x.Parent] {
				c.Add(diag.MissingParent, "mesh %d (%q): parent %q does not exist", i, x.Name, x.Parent)
			}
		}
		if ts, ok := x.Textures.(TextureIndices); ok {
			for j, t := range ts {
				if t < 0 || int(t) >= len(m.Textures) {
					c.Add(diag.IndexRange, "mesh %d (%q): texture %d index %d out of range (%d textures)", i, x.Name, j, t, len(m.Textures))
				}
			}
		}
		var nt int
		if x.Textures != nil {
			nt = x.Textures.Len()
		}
		for j, f := range x.Faces {
			if int(f.Texture) >= nt {
				c.Add(diag.IndexRange, "mesh %d (%q): face %d texture %d out of range (%d textures)", i, x.Name, j, f.Texture, nt)
			}
			for _, vi := range f.Vertices {
				if int(vi) >= len(x.Vertices) {
					c.Add(diag.IndexRange, "mesh %d (%q): face %d vertex %d out of range (%d vertices)", i, x.Name, j, vi, len(x.Vertices))
					break
				}
			}
			for _, ui := range f.UVs {
				if int(ui) >= len(x.UVs) {
					c.Add(diag.IndexRange, "mesh %d (%q): face %d uv %d out of range (%d uvs)", i, x.Name, j, ui, len(x.UVs))
					break
				}
			}
		}
	}

	if m.Version.AtLeast(1, 5) && len(m.ScaleKeyframes) != 0 {
		c.Add(diag.UnexpectedData, "%d model scale keyframes in version %s", len(m.ScaleKeyframes), m.Version)
	}
}

// Mesh returns the mesh named name, or nil.
func (m *Model) Mesh(name string) *Mesh {
	for i := range m.Meshes {
		if m.Meshes[i].Name == name {
			return &m.Meshes[i]
		}
	}
	return nil
}

// Children returns the meshes whose parent is name. A mesh is never a child of
// itself.
func (m *Model) Children(name string) []*Mesh {
	var cs []*Mesh
	for i := range m.Meshes {
		if x := &m.Meshes[i]; x.Parent == name && x.Name != name {
			cs = append(cs, x)
		}
	}
	return cs
}
