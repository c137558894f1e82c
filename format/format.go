// Package format contains the types shared by the asset decoders: the on-disk
// version tag, colors, and the error kinds every decoder reports.
package format

import (
	"errors"
	"fmt"
)

// Version is the on-disk revision of an asset. Versions are ordered
// lexicographically on (Major, Minor, Build).
type Version struct {
	Major uint8
	Minor uint8
	Build uint32
}

// V returns a version with an implied build of zero.
func V(major, minor uint8) Version {
	return Version{Major: major, Minor: minor}
}

// Compare returns -1, 0 or 1 depending on whether v sorts before, equal to, or
// after o.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmp(uint32(v.Major), uint32(o.Major))
	case v.Minor != o.Minor:
		return cmp(uint32(v.Minor), uint32(o.Minor))
	default:
		return cmp(v.Build, o.Build)
	}
}

func cmp(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// AtLeast checks if v >= major.minor, ignoring the build.
func (v Version) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// Before checks if v < major.minor, ignoring the build.
func (v Version) Before(major, minor uint8) bool {
	return !v.AtLeast(major, minor)
}

// In checks if lo <= v < hi, ignoring the build.
func (v Version) In(lo, hi Version) bool {
	return v.AtLeast(lo.Major, lo.Minor) && v.Before(hi.Major, hi.Minor)
}

func (v Version) String() string {
	if v.Build != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ColorU8 is a byte-valued RGBA color.
type ColorU8 struct {
	R, G, B, A uint8
}

// Float normalizes c to the [0, 1] range.
func (c ColorU8) Float() ColorF32 {
	return ColorF32{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

// ColorF32 is a float-normalized RGBA color.
type ColorF32 struct {
	R, G, B, A float32
}

// ErrWrongSignature is matched (with errors.Is) by every signature mismatch.
var ErrWrongSignature = errors.New("wrong signature")

// SignatureError is returned when the leading magic bytes of an asset do not
// match.
type SignatureError struct {
	Format string
	Got    []byte
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s: wrong signature %q", e.Format, e.Got)
}

func (e *SignatureError) Is(target error) bool {
	return target == ErrWrongSignature
}

// UnsupportedVersionError is returned when a decoder has no layout for the
// version read from the stream.
type UnsupportedVersionError struct {
	Format  string
	Version Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: unsupported version %s", e.Format, e.Version)
}

// IncompleteReadError is returned when bytes remain after every declared field
// of an asset has been read.
type IncompleteReadError struct {
	Remaining int
}

func (e *IncompleteReadError) Error() string {
	return fmt.Sprintf("incomplete read: %d bytes left", e.Remaining)
}
