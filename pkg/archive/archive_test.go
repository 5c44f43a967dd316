package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/crazy-max/imgplayer/pkg/errdefs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListChildren(t *testing.T) {
	dir := t.TempDir()
	archives := map[string]string{
		"zip":    writeZip(t, filepath.Join(dir, "book.zip"), bookEntries),
		"tar.gz": writeTarGz(t, filepath.Join(dir, "book.tar.gz"), bookEntries),
	}

	testCases := []struct {
		desc  string
		dir   string
		dirs  []string
		files []string
	}{
		{
			desc:  "top",
			dir:   "",
			dirs:  []string{"chapter1", "chapter2", "notes"},
			files: []string{"cover.png"},
		},
		{
			desc:  "explicit directory",
			dir:   "chapter1",
			dirs:  []string{},
			files: []string{"page2.png", "page10.png"},
		},
		{
			desc:  "implicit directory",
			dir:   "chapter2",
			dirs:  []string{},
			files: []string{"page1.png"},
		},
		{
			desc:  "implicit nested directory",
			dir:   "notes",
			dirs:  []string{"deep"},
			files: []string{},
		},
		{
			desc:  "missing directory",
			dir:   "chapter3",
			dirs:  []string{},
			files: []string{},
		},
	}

	for format, filename := range archives {
		a, err := Open(context.Background(), filename, zerolog.Nop())
		require.NoError(t, err)
		for _, tt := range testCases {
			t.Run(format+" "+tt.desc, func(t *testing.T) {
				dirs, files, err := a.ListChildren(context.Background(), tt.dir)
				require.NoError(t, err)
				assert.ElementsMatch(t, tt.dirs, dirs)
				assert.ElementsMatch(t, tt.files, files)
			})
		}
		require.NoError(t, a.Close())
	}
}

func TestListChildrenSingleFile(t *testing.T) {
	filename := writeZip(t, filepath.Join(t.TempDir(), "one.zip"), []entry{
		{name: "d/"},
		{name: "d/p.png", body: "p"},
	})

	a, err := Open(context.Background(), filename, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	dirs, files, err := a.ListChildren(context.Background(), "d")
	require.NoError(t, err)
	assert.Equal(t, []string{}, dirs)
	assert.Equal(t, []string{"p.png"}, files)
}

func TestReadEntry(t *testing.T) {
	dir := t.TempDir()
	for _, filename := range []string{
		writeZip(t, filepath.Join(dir, "book.cbz"), bookEntries),
		writeTarGz(t, filepath.Join(dir, "book.tgz"), bookEntries),
	} {
		t.Run(filepath.Base(filename), func(t *testing.T) {
			a, err := Open(context.Background(), filename, zerolog.Nop())
			require.NoError(t, err)
			defer a.Close()

			data, err := a.ReadEntry(context.Background(), "chapter1/page10.png")
			require.NoError(t, err)
			assert.Equal(t, "c1p10", string(data))

			data, err = a.ReadEntry(context.Background(), "cover.png")
			require.NoError(t, err)
			assert.Equal(t, "cover", string(data))

			for _, name := range []string{"chapter1/page3.png", "chapter1", "", "page2.png"} {
				_, err = a.ReadEntry(context.Background(), name)
				require.Error(t, err, name)
				assert.ErrorIs(t, err, errdefs.ErrEntryNotFound, name)
			}
		})
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(context.Background(), filepath.Join(dir, "missing.zip"), zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)

	_, err = Open(context.Background(), dir, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrArchiveOpen)

	image := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(image, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))
	_, err = Open(context.Background(), image, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrArchiveOpen)

	for _, name := range []string{"fake.zip", "fake.cbz", "fake.tar.gz", "fake.gz"} {
		fake := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(fake, []byte("this is not an archive\n"), 0o600))
		_, err = Open(context.Background(), fake, zerolog.Nop())
		require.Error(t, err, name)
		assert.ErrorIs(t, err, errdefs.ErrArchiveOpen, name)
	}
}

func TestOpenEmptyZip(t *testing.T) {
	filename := writeZip(t, filepath.Join(t.TempDir(), "empty.zip"), nil)

	a, err := Open(context.Background(), filename, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	dirs, files, err := a.ListChildren(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, dirs)
	assert.Empty(t, files)
}

func TestClosedArchive(t *testing.T) {
	filename := writeZip(t, filepath.Join(t.TempDir(), "book.zip"), bookEntries)

	a, err := Open(context.Background(), filename, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, _, err = a.ListChildren(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrArchiveOpen)
}

func TestNormalizeName(t *testing.T) {
	testCases := map[string]string{
		"a/b.png":    "a/b.png",
		"a/":         "a",
		"./a/b.png":  "a/b.png",
		"/a/b.png":   "a/b.png",
		`a\b.png`:    "a/b.png",
		"./":         "",
		"././a/b/c/": "a/b/c",
		"a//b.png":   "a/b.png",
		"a/./b.png":  "a/b.png",
		"//a/b/":     "a/b",
		".":          "",
		"/":          "",
	}
	for in, expected := range testCases {
		assert.Equal(t, expected, normalizeName(in), in)
	}
}

func TestReadEntryCanceled(t *testing.T) {
	filename := writeZip(t, filepath.Join(t.TempDir(), "book.zip"), bookEntries)

	a, err := Open(context.Background(), filename, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.ReadEntry(ctx, "cover.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUncleanEntryNames(t *testing.T) {
	filename := writeZip(t, filepath.Join(t.TempDir(), "unclean.zip"), []entry{
		{name: "a//b.png", body: "b"},
		{name: "a/./c.png", body: "c"},
		{name: "./d//e.png", body: "e"},
	})

	a, err := Open(context.Background(), filename, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	dirs, files, err := a.ListChildren(context.Background(), "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "d"}, dirs)
	assert.Empty(t, files)

	_, files, err = a.ListChildren(context.Background(), "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b.png", "c.png"}, files)

	data, err := a.ReadEntry(context.Background(), "a/c.png")
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))

	data, err = a.ReadEntry(context.Background(), "d/e.png")
	require.NoError(t, err)
	assert.Equal(t, "e", string(data))
}

func TestStatEntry(t *testing.T) {
	dir := t.TempDir()
	for _, filename := range []string{
		writeZip(t, filepath.Join(dir, "book.cbz"), bookEntries),
		writeTarGz(t, filepath.Join(dir, "book.tgz"), bookEntries),
	} {
		t.Run(filepath.Base(filename), func(t *testing.T) {
			a, err := Open(context.Background(), filename, zerolog.Nop())
			require.NoError(t, err)
			defer a.Close()

			size, err := a.StatEntry(context.Background(), "chapter1/page10.png")
			require.NoError(t, err)
			assert.Equal(t, int64(len("c1p10")), size)

			_, err = a.StatEntry(context.Background(), "chapter1")
			assert.ErrorIs(t, err, errdefs.ErrEntryNotFound)
		})
	}
}
