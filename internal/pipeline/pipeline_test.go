package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provide-io/archiveset/internal/archivetest"
	"github.com/provide-io/archiveset/internal/operators/aesgcm"
	"github.com/provide-io/archiveset/internal/operators/compress"
	"github.com/provide-io/archiveset/internal/splitter"
)

func bzip2Codec(t *testing.T) *compress.Bzip2 {
	t.Helper()
	codec, err := compress.Get("bzip2")
	require.NoError(t, err)
	return codec.(*compress.Bzip2)
}

func TestPipelineRunUnsplit(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "N")
	require.NoError(t, os.Mkdir(source, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644))

	destDir := filepath.Join(root, "dest")
	require.NoError(t, os.Mkdir(destDir, 0o755))

	p := &Pipeline{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	part := splitter.Part{Index: 1, Paths: []string{source}, Bytes: 5}

	res, err := p.Run(context.Background(), destDir, source, part, "N", true, Options{CompressionLevel: 6})
	require.NoError(t, err)
	require.False(t, res.Encrypted)
	require.Empty(t, res.Tar, "tar is removed by the compressor")
	require.FileExists(t, res.Listing)
	require.FileExists(t, filepath.Join(destDir, "N.tar.md5"))
	require.FileExists(t, res.TarList)
	require.FileExists(t, res.Compressed)
	require.FileExists(t, filepath.Join(destDir, "N.tar.lz.md5"))
}

func TestPipelineRunSplitUsesFilesFromList(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "N")
	require.NoError(t, os.Mkdir(source, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("aaaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "b.txt"), []byte("bbbb"), 0o644))

	destDir := filepath.Join(root, "dest")
	require.NoError(t, os.Mkdir(destDir, 0o755))

	p := &Pipeline{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	part := splitter.Part{Index: 1, Paths: []string{filepath.Join(source, "a.txt")}, Bytes: 4}

	res, err := p.Run(context.Background(), destDir, source, part, "N.part1", false, Options{})
	require.NoError(t, err)
	require.FileExists(t, res.Compressed)
	require.Equal(t, "N.part1", res.Name)
}

func TestPipelineRunEncryptsAndOptionallyRemovesUnencrypted(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "N")
	require.NoError(t, os.Mkdir(source, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("secret"), 0o644))

	destDir := filepath.Join(root, "dest")
	require.NoError(t, os.Mkdir(destDir, 0o755))

	p := &Pipeline{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t), Encrypt: aesgcm.Codec{}}
	part := splitter.Part{Index: 1, Paths: []string{source}, Bytes: 6}

	res, err := p.Run(context.Background(), destDir, source, part, "N", true, Options{
		EncryptRecipients: []string{"alice-passphrase"},
		RemoveUnencrypted: true,
	})
	require.NoError(t, err)
	require.True(t, res.Encrypted)
	require.FileExists(t, res.EncryptedPath)
	require.NoFileExists(t, filepath.Join(destDir, "N.tar.lz"))
	require.Empty(t, res.Compressed)
}
