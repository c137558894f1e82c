package grfutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	for n, s := range map[int64]string{
		0:         "0 B",
		999:       "999 B",
		-5:        "-5 B",
		1000:      "1.0 kB",
		1536:      "1.5 kB",
		2500000:   "2.5 MB",
		-2500:     "-2.5 kB",
		3 << 40:   "3.3 TB",
		1<<63 - 1: "9.2 EB",
	} {
		assert.Equal(t, s, FormatSize(n), "%d", n)
	}
}

func TestMatchGlob(t *testing.T) {
	for _, x := range []struct {
		Pattern string
		Path    string
		Match   bool
		Error   bool
	}{
		{"/", "", true, false},
		{"/", "test", true, false},
		{"/", "a/b/c", true, false},
		{"*", "", false, false},
		{"*", "test", true, false},
		{"/test", "test", true, false},
		{"test", "test", true, false},
		{"test", "test1/test", true, false},
		{"/test", "test1/test", false, false},
		{"test", "test/test1", true, false},
		{"a", "a/b/c", true, false},
		{"b", "a/b/c", true, false},
		{"c", "a/b/c", true, false},
		{"a/b", "a/b/c", true, false},
		{"a/b/c", "a/b/c", true, false},
		{"b/c", "a/b/c", false, false}, // multiple components are only tested against full paths
		{"/a/b", "a/b/c", true, false},
		{"/b/c", "a/b/c", false, false},
		{"*x*", "axa/b/c", true, false},
		{"*x*", "a/xb/c", true, false},
		{"*x*", "a/b/x", true, false},
		{"/*x*", "axa/b/c", true, false},
		{"/*x*", "a/xb/c", false, false},
		{"*.BMP", "data/texture/a.bmp", true, false},
		{"/DATA/Texture", "data/texture/a.bmp", true, false},
		{`\data\texture`, "data/texture/a.bmp", true, false},
		{`data\texture`, `Data\Texture\A.bmp`, true, false},
		{"data//texture/", "/data/texture/a.bmp", true, false},
		{"data/sprite", "data/texture/a.bmp", false, false},
		{"/data/*/effect", "data/texture/effect/c.tga", true, false},
		{"[", "a", false, true},
	} {
		m, err := MatchGlob(x.Pattern, x.Path)
		if x.Error {
			assert.Error(t, err, "match(%q, %q)", x.Pattern, x.Path)
		} else {
			assert.NoError(t, err, "match(%q, %q)", x.Pattern, x.Path)
		}
		assert.Equal(t, x.Match, m, "match(%q, %q)", x.Pattern, x.Path)
	}
}
