package grfutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rorebuild/grf/diag"
	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/spr"
)

// testSprite returns a version 1.1 sprite with a single 2x1 image.
func testSprite(magenta bool) []byte {
	b := []byte("SP\x01\x01")
	b = append(b, 1, 0)       // images
	b = append(b, 2, 0, 1, 0) // 2x1
	b = append(b, 1, 2)
	for i := 0; i < spr.PaletteSize; i++ {
		switch {
		case i == 0:
			b = append(b, 0, 0, 0, 0)
		case magenta && i == 2:
			b = append(b, 255, 0, 255, 0)
		default:
			b = append(b, byte(i), 128, 64, 0)
		}
	}
	return b
}

func TestDecodeAsset(t *testing.T) {
	c := diag.New()
	v, err := DecodeAsset("data/sprite/TEST.SPR", testSprite(false), c)
	require.NoError(t, err)
	s, ok := v.(*spr.Sprite)
	require.True(t, ok)
	assert.Equal(t, format.V(1, 1), s.Version)
	assert.Equal(t, []byte{1, 2}, s.Indexed[0].Pixels)
	assert.Zero(t, c.Len())

	_, err = DecodeAsset("test.spr", testSprite(true), c)
	require.NoError(t, err)
	assert.True(t, c.Has(diag.PaletteMagenta))

	_, err = DecodeAsset("test.spr", []byte("SP"), nil)
	assert.Error(t, err)

	for _, name := range []string{"test.gat", "test", "test.spr.bak"} {
		_, err = DecodeAsset(name, testSprite(false), nil)
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "unsupported asset type", name)
	}

	for _, ext := range AssetExts {
		_, err = DecodeAsset("x"+ext, nil, nil)
		require.Error(t, err, ext)
		assert.NotContains(t, err.Error(), "unsupported asset type", ext)
	}
}

func TestDump(t *testing.T) {
	v, err := DecodeAsset("test.spr", testSprite(false), nil)
	require.NoError(t, err)

	var b bytes.Buffer
	require.NoError(t, Dump(&b, v, "yaml"))
	var m map[string]any
	require.NoError(t, yaml.Unmarshal(b.Bytes(), &m))
	assert.Contains(t, m, "indexed")
	assert.Contains(t, m, "palette")

	b.Reset()
	require.NoError(t, Dump(&b, v, "spew"))
	assert.True(t, strings.HasPrefix(b.String(), "(*spr.Sprite)"), b.String())
	assert.NotContains(t, b.String(), "0x")

	assert.Error(t, Dump(&b, v, "json"))
}
