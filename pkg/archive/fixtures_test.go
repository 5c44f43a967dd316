package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	body string
}

// writeZip writes a zip archive; names ending with a slash are directories.
func writeZip(t *testing.T, filename string, entries []entry) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filename), 0o700))

	f, err := os.Create(filename)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		if !strings.HasSuffix(e.name, "/") {
			_, err = w.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return filename
}

// writeTarGz writes a gzip compressed tarball; names ending with a slash are
// directories.
func writeTarGz(t *testing.T, filename string, entries []entry) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filename), 0o700))

	f, err := os.Create(filename)
	require.NoError(t, err)
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	for _, e := range entries {
		hdr := &tar.Header{
			Name: e.name,
			Mode: 0o644,
			Size: int64(len(e.body)),
		}
		if strings.HasSuffix(e.name, "/") {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
			hdr.Size = 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Size > 0 {
			_, err = tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return filename
}

var bookEntries = []entry{
	{name: "cover.png", body: "cover"},
	{name: "chapter1/"},
	{name: "chapter1/page2.png", body: "c1p2"},
	{name: "chapter1/page10.png", body: "c1p10"},
	{name: "chapter2/page1.png", body: "c2p1"},
	{name: "notes/"},
	{name: "notes/deep/readme.txt", body: "readme"},
}
