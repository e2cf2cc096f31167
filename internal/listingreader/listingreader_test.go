package listingreader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provide-io/archiveset/internal/archiver"
	"github.com/provide-io/archiveset/internal/archivetest"
	"github.com/provide-io/archiveset/internal/operators/compress"
)

func bzip2Codec(t *testing.T) *compress.Bzip2 {
	t.Helper()
	codec, err := compress.Get("bzip2")
	require.NoError(t, err)
	return codec.(*compress.Bzip2)
}

func archiveFixture(t *testing.T) (destDir string) {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "N")
	require.NoError(t, os.Mkdir(source, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "b.txt"), []byte("world"), 0o644))
	destDir = filepath.Join(root, "archive")

	a := &archiver.Archiver{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	_, err := a.Archive(context.Background(), source, destDir, archiver.Options{})
	require.NoError(t, err)
	return destDir
}

func TestCheapListing(t *testing.T) {
	destDir := archiveFixture(t)

	listings, err := Cheap(destDir, "")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Contains(t, listings[0].Entries, "N/a.txt")
	require.Contains(t, listings[0].Entries, "N/b.txt")
}

func TestCheapListingFilter(t *testing.T) {
	destDir := archiveFixture(t)

	listings, err := Cheap(destDir, "a.txt")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.True(t, strings.Contains(listings[0].Entries, "a.txt"))
	require.False(t, strings.Contains(listings[0].Entries, "b.txt"))
}

func TestDeepListingMatchesCheap(t *testing.T) {
	destDir := archiveFixture(t)

	cheap, err := Cheap(destDir, "")
	require.NoError(t, err)
	deep, err := Deep(archivetest.FakeTar{Compress: bzip2Codec(t)}, destDir, "")
	require.NoError(t, err)

	require.Len(t, deep, 1)
	require.Contains(t, deep[0].Entries, "N/a.txt")
	require.Contains(t, deep[0].Entries, "N/b.txt")
	require.Len(t, cheap, 1)
	require.Equal(t, cheap[0].Entries, deep[0].Entries)
}
