package grf

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rorebuild/grf/format"
	"github.com/rorebuild/grf/internal/bin"
)

type testFile struct {
	name string
	mode Encryption
	data []byte
}

func testFiles() []testFile {
	rng := rand.New(rand.NewSource(5))
	random := func(n int) []byte {
		b := make([]byte, n)
		rng.Read(b)
		return b
	}
	return []testFile{
		{"data/clientinfo.xml", EncryptNone, []byte("<clientinfo/>")},
		{"data/empty.txt", EncryptNone, nil},
		{"data/texture/a.bmp", EncryptMixed, random(100)},
		{"data/texture/b.bmp", EncryptMixed, random(12345)},
		{"data/texture/effect/c.tga", EncryptHeader, random(4000)},
		{"data/texture/effect/d.tga", EncryptMixed, bytes.Repeat([]byte("compressible "), 10000)},
		{"data/model/유저인터페이스/e.rsm", EncryptHeader, random(7)},
		{"data/texture-extra.txt", EncryptNone, []byte("sorts between data/texture and its children")},
		{"readme.txt", EncryptNone, []byte("hello")},
	}
}

func buildArchive(t testing.TB, seed uint32, files []testFile, dirs ...string) *Archive {
	t.Helper()
	w := NewWriter()
	w.Seed = seed
	for _, f := range files {
		require.NoError(t, w.AddFile(f.name, f.data, f.mode))
	}
	for _, d := range dirs {
		require.NoError(t, w.AddDirectory(d))
	}
	var b bytes.Buffer
	n, err := w.WriteTo(&b)
	require.NoError(t, err)
	require.EqualValues(t, b.Len(), n)

	a, err := NewArchive(bytes.NewReader(b.Bytes()))
	require.NoError(t, err)
	return a
}

func TestArchiveRoundTrip(t *testing.T) {
	for _, seed := range []uint32{0, 1234, 0xFFFFFFFF} {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			files := testFiles()
			a := buildArchive(t, seed, files, "data", "data/texture")
			require.Len(t, a.Entries(), len(files)+2)

			for _, f := range files {
				b, err := a.ReadFile(f.name)
				require.NoError(t, err, f.name)
				if len(f.data) == 0 {
					assert.Empty(t, b)
				} else {
					assert.Equal(t, f.data, b, f.name)
				}

				e, ok := a.Lookup(f.name)
				require.True(t, ok)
				assert.EqualValues(t, len(f.data), e.Size)
				assert.Zero(t, e.AlignedSize%8)
				mode, err := e.Flags.Encryption()
				require.NoError(t, err)
				assert.Equal(t, f.mode, mode)
			}
		})
	}
}

func TestArchiveLookupNormalized(t *testing.T) {
	a := buildArchive(t, 0, testFiles())
	b, err := a.ReadPath(`DATA\Texture\A.BMP`)
	require.NoError(t, err)
	assert.Len(t, b, 100)

	_, ok := a.Lookup("/data//clientinfo.xml")
	assert.True(t, ok)
}

func TestArchiveMissing(t *testing.T) {
	a := buildArchive(t, 0, testFiles(), "data")
	_, err := a.ReadFile("data/missing.txt")
	assert.True(t, errors.Is(err, fs.ErrNotExist), "%v", err)

	_, err = a.ReadFile("data")
	assert.True(t, errors.Is(err, ErrNotFile), "%v", err)
}

func TestArchiveDirectories(t *testing.T) {
	a := buildArchive(t, 0, testFiles(), "data/texture", "data/sprite")

	for name, isDir := range map[string]bool{
		"":                   true,
		"data":               true, // implied
		"data/texture":       true,
		"data/texture/":      true,
		"data/texture/a.bmp": false,
		"data/sprite":        true, // empty
		"data/missing":       false,
		"data/tex":           false,
		"readme.txt":         false,
	} {
		assert.Equal(t, isDir, a.IsDirectory(name), name)
	}

	names := func(es []Entry) (s []string) {
		for _, e := range es {
			s = append(s, e.Path)
		}
		return
	}

	es, err := a.ReadDirectory("data/texture")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"data/texture/a.bmp",
		"data/texture/b.bmp",
		"data/texture/effect",
	}, names(es))
	assert.True(t, es[2].IsDir())

	es, err = a.ReadDirectory("data")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"data/clientinfo.xml",
		"data/empty.txt",
		"data/model",
		"data/sprite",
		"data/texture",
		"data/texture-extra.txt",
	}, names(es))

	es, err = a.ReadDirectory("")
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "readme.txt"}, names(es))

	es, err = a.ReadDirectory("data/sprite")
	require.NoError(t, err)
	assert.Empty(t, es)

	_, err = a.ReadDirectory("data/missing")
	assert.True(t, errors.Is(err, fs.ErrNotExist), "%v", err)

	_, err = a.ReadDirectory("readme.txt")
	assert.Error(t, err)
}

func TestArchiveConcurrentReads(t *testing.T) {
	files := testFiles()
	a := buildArchive(t, 99, files)

	rng := rand.New(rand.NewSource(6))
	for _, workers := range []int{1, 4, 16, 64} {
		picks := make([]int, workers*8)
		for i := range picks {
			picks[i] = rng.Intn(len(files))
		}

		var wg sync.WaitGroup
		errs := make(chan error, len(picks))
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(picks []int) {
				defer wg.Done()
				for _, i := range picks {
					f := files[i]
					b, err := a.ReadFile(f.name)
					if err != nil {
						errs <- err
					} else if !bytes.Equal(b, f.data) {
						errs <- fmt.Errorf("%s: data mismatch", f.name)
					}
				}
			}(picks[w*8 : w*8+8])
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}
	}
}

func TestArchiveEncryptionConflict(t *testing.T) {
	a := buildArchive(t, 0, testFiles())
	e, ok := a.Lookup("data/texture/a.bmp")
	require.True(t, ok)
	e.Flags |= FlagHeader

	_, err := a.ReadEntry(e)
	assert.True(t, errors.Is(err, format.ErrWrongSignature), "%v", err)
	assert.True(t, errors.Is(err, ErrEncryptionConflict), "%v", err)
}

func TestArchiveCorruptPayload(t *testing.T) {
	var b bytes.Buffer
	w := NewWriter()
	require.NoError(t, w.AddFile("a.txt", bytes.Repeat([]byte("a"), 1000), EncryptNone))
	require.NoError(t, w.AddFile("b.txt", []byte("fine"), EncryptNone))
	_, err := w.WriteTo(&b)
	require.NoError(t, err)

	raw := b.Bytes()
	raw[HeaderSize+4] ^= 0xFF // inside the a.txt deflate stream

	a, err := NewArchive(bytes.NewReader(raw))
	require.NoError(t, err)
	_, err = a.ReadFile("a.txt")
	assert.Error(t, err)

	d, err := a.ReadFile("b.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("fine"), d)
}

func TestArchiveSizeMismatch(t *testing.T) {
	a := buildArchive(t, 0, testFiles())
	e, _ := a.Lookup("readme.txt")

	e.Size++
	_, err := a.ReadEntry(e)
	assert.True(t, errors.Is(err, errShortInflate), "%v", err)

	e.Size -= 2
	_, err = a.ReadEntry(e)
	assert.Error(t, err)
}

func TestArchiveOversizedEntry(t *testing.T) {
	a := buildArchive(t, 0, testFiles())
	e, _ := a.Lookup("data/texture/b.bmp")

	x := e
	x.AlignedSize = 0xFFFFFFF8
	_, err := a.ReadEntry(x)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "past the end of the archive")

	x = e
	x.Offset = uint32(a.size)
	_, err = a.ReadEntry(x)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "past the end of the archive")

	x = e
	x.Size = 0xFFFFFFFF
	_, err = a.ReadEntry(x)
	assert.True(t, errors.Is(err, errShortInflate), "%v", err)
}

func TestArchiveHeader(t *testing.T) {
	var b bytes.Buffer
	_, err := NewWriter().WriteTo(&b)
	require.NoError(t, err)

	raw := b.Bytes()
	a, err := NewArchive(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Empty(t, a.Entries())
	assert.Equal(t, format.V(2, 0), a.Header.Version())

	bad := append([]byte(nil), raw...)
	bad[0] = 'X'
	_, err = NewArchive(bytes.NewReader(bad))
	assert.True(t, errors.Is(err, format.ErrWrongSignature), "%v", err)

	bad = append([]byte(nil), raw...)
	bad[44] = 3 // minor
	_, err = NewArchive(bytes.NewReader(bad))
	var uve *format.UnsupportedVersionError
	require.True(t, errors.As(err, &uve), "%v", err)
	assert.Equal(t, format.V(2, 3), uve.Version)

	bad = append([]byte(nil), raw...)
	bad[38] = 0 // scrambled count < seed + 7
	_, err = NewArchive(bytes.NewReader(bad))
	assert.Error(t, err)
}

func TestArchiveShortTable(t *testing.T) {
	var b bytes.Buffer
	w := NewWriter()
	require.NoError(t, w.AddFile("a.txt", []byte("a"), EncryptNone))
	require.NoError(t, w.AddFile("b.txt", []byte("b"), EncryptNone))
	_, err := w.WriteTo(&b)
	require.NoError(t, err)

	// claim more entries than the table holds
	raw := b.Bytes()
	raw[38] += 3

	a, err := NewArchive(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Len(t, a.Entries(), 2)
}

func TestArchiveFS(t *testing.T) {
	files := testFiles()
	a := buildArchive(t, 0, files, "data/sprite")

	var expected []string
	for _, f := range files {
		expected = append(expected, f.name)
	}
	require.NoError(t, fstest.TestFS(a, expected...))

	fi, err := a.Stat("data/texture/b.bmp")
	require.NoError(t, err)
	assert.Equal(t, "b.bmp", fi.Name())
	assert.EqualValues(t, 12345, fi.Size())
	assert.False(t, fi.IsDir())

	fi, err = a.Stat("data")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	_, err = a.Stat("/data")
	assert.Error(t, err)

	for _, name := range []string{
		"/readme.txt",
		"readme.txt/.",
		"data/../readme.txt",
		"data//clientinfo.xml",
		`data\clientinfo.xml`,
		"data/texture/",
	} {
		_, err := fs.ReadFile(a, name)
		assert.True(t, errors.Is(err, fs.ErrInvalid), "read %q: %v", name, err)
		_, err = a.Open(name)
		assert.True(t, errors.Is(err, fs.ErrInvalid), "open %q: %v", name, err)
		_, err = fs.Stat(a, name)
		assert.True(t, errors.Is(err, fs.ErrInvalid), "stat %q: %v", name, err)
		_, err = fs.ReadDir(a, name)
		assert.True(t, errors.Is(err, fs.ErrInvalid), "readdir %q: %v", name, err)
	}

	// archive-level reads stay lenient
	b, err := a.ReadPath(`\Data\ClientInfo.XML`)
	require.NoError(t, err)
	assert.Equal(t, []byte("<clientinfo/>"), b)

	b, err = fs.ReadFile(a, "README.TXT")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)

	b, err = fs.ReadFile(a, "readme.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)

	var walked []string
	require.NoError(t, fs.WalkDir(a, "data/texture", func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			walked = append(walked, p)
		}
		return err
	}))
	assert.Equal(t, []string{
		"data/texture/a.bmp",
		"data/texture/b.bmp",
		"data/texture/effect/c.tga",
		"data/texture/effect/d.tga",
	}, walked)
}

func TestClean(t *testing.T) {
	for in, out := range map[string]string{
		"":                   "",
		".":                  "",
		"/":                  "",
		`Data\Texture\A.bmp`: "data/texture/a.bmp",
		"data//x/":           "data/x",
		"/data/x":            "data/x",
	} {
		assert.Equal(t, out, Clean(in), in)
	}
}

func TestEntrySerialize(t *testing.T) {
	e := Entry{
		Path:           "data/texture/a.bmp",
		CompressedSize: 1,
		AlignedSize:    8,
		Size:           2,
		Flags:          FlagFile | FlagMixed,
		Offset:         3,
	}
	var b bytes.Buffer
	require.NoError(t, e.Serialize(bin.NewWriter(&b)))
	assert.True(t, bytes.HasPrefix(b.Bytes(), []byte("data\\texture\\a.bmp\x00")), "%q", b.Bytes())
	assert.Equal(t, len("data/texture/a.bmp")+1+entryTailSize, b.Len())

	var x Entry
	require.NoError(t, x.Deserialize(bin.NewReader(&b)))
	assert.Equal(t, e, x)
}

func TestDescribeFlags(t *testing.T) {
	assert.Equal(t, []string{"FILE", "MIXED"}, DescribeFlags(FlagFile|FlagMixed))
	assert.Equal(t, []string{"FILE", "07"}, DescribeFlags(FlagFile|0x80))
	assert.Nil(t, DescribeFlags(0))
}

func TestWriterCopy(t *testing.T) {
	files := testFiles()
	a := buildArchive(t, 42, files, "data/texture")

	w := NewWriter()
	w.Seed = a.Header.Seed
	for _, e := range a.Entries() {
		require.NoError(t, w.Copy(a, e))
	}
	assert.True(t, w.Remove("README.TXT"))
	assert.False(t, w.Remove("readme.txt"))
	require.NoError(t, w.AddFile("readme.txt", []byte("replaced"), EncryptMixed))

	var b bytes.Buffer
	_, err := w.WriteTo(&b)
	require.NoError(t, err)
	c, err := NewArchive(bytes.NewReader(b.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, len(a.Entries()), len(c.Entries()))
	for _, f := range files {
		got, err := c.ReadFile(f.name)
		require.NoError(t, err, f.name)
		if f.name == "readme.txt" {
			assert.Equal(t, []byte("replaced"), got)
			continue
		}
		assert.Equal(t, len(f.data), len(got), f.name)
		assert.True(t, bytes.Equal(f.data, got), f.name)

		e, _ := c.Lookup(f.name)
		o, _ := a.Lookup(f.name)
		assert.Equal(t, o.Flags, e.Flags, f.name)
	}
	assert.True(t, c.IsDirectory("data/texture"))
}
