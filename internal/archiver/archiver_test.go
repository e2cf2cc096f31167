package archiver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provide-io/archiveset/internal/archivetest"
	"github.com/provide-io/archiveset/internal/operators/compress"
)

func bzip2Codec(t *testing.T) *compress.Bzip2 {
	t.Helper()
	codec, err := compress.Get("bzip2")
	require.NoError(t, err)
	return codec.(*compress.Bzip2)
}

func buildSource(t *testing.T, fileSizes map[string]int) string {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "N")
	require.NoError(t, os.Mkdir(source, 0o755))
	for name, size := range fileSizes {
		require.NoError(t, os.WriteFile(filepath.Join(source, name), make([]byte, size), 0o644))
	}
	return source
}

// TestArchiveUnsplit covers S1: a source small enough for one part produces
// a single N.tar.lz quintet, with no .partK suffix.
func TestArchiveUnsplit(t *testing.T) {
	source := buildSource(t, map[string]int{"a.txt": 10, "b.txt": 10})
	destDir := filepath.Join(filepath.Dir(source), "dest")

	a := &Archiver{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	results, err := a.Archive(context.Background(), source, destDir, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "N", results[0].Name)
	require.FileExists(t, filepath.Join(destDir, "N.md5"))
	require.FileExists(t, filepath.Join(destDir, "N.tar.lz.md5"))
}

// TestArchiveSplit covers S2: a source that exceeds the bound produces
// multiple N.partK quintets, none exceeding the bound.
func TestArchiveSplit(t *testing.T) {
	sizes := map[string]int{}
	for i := 0; i < 6; i++ {
		sizes[string(rune('a'+i))+".bin"] = 40
	}
	source := buildSource(t, sizes)
	destDir := filepath.Join(filepath.Dir(source), "dest")

	a := &Archiver{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	results, err := a.Archive(context.Background(), source, destDir, Options{MaxPartBytes: 100})
	require.NoError(t, err)
	require.Greater(t, len(results), 1)
	for i, r := range results {
		require.Equal(t, "N.part"+string(rune('1'+i)), r.Name)
		require.FileExists(t, filepath.Join(destDir, r.Name+".md5"))
	}
}

func TestArchiveRefusesExistingDestinationWithoutForce(t *testing.T) {
	source := buildSource(t, map[string]int{"a.txt": 5})
	destDir := filepath.Join(filepath.Dir(source), "dest")
	require.NoError(t, os.Mkdir(destDir, 0o755))

	a := &Archiver{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	_, err := a.Archive(context.Background(), source, destDir, Options{})
	require.Error(t, err)
}
