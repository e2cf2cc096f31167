package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provide-io/archiveset/internal/archiver"
	"github.com/provide-io/archiveset/internal/archivetest"
	"github.com/provide-io/archiveset/internal/hasher"
	"github.com/provide-io/archiveset/internal/operators/aesgcm"
	"github.com/provide-io/archiveset/internal/operators/compress"
)

func bzip2Codec(t *testing.T) *compress.Bzip2 {
	t.Helper()
	codec, err := compress.Get("bzip2")
	require.NoError(t, err)
	return codec.(*compress.Bzip2)
}

func archiveFixture(t *testing.T, files map[string]string, opts archiver.Options) (source, destDir string) {
	t.Helper()
	root := t.TempDir()
	source = filepath.Join(root, "N")
	require.NoError(t, os.Mkdir(source, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(source, name), []byte(content), 0o644))
	}
	destDir = filepath.Join(root, "archive")

	a := &archiver.Archiver{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t), Encrypt: aesgcm.Codec{}}
	_, err := a.Archive(context.Background(), source, destDir, opts)
	require.NoError(t, err)
	return source, destDir
}

// TestExtractUnsplitRoundTrip covers S1/S4: archive then extract a single
// unsplit source and confirm the extracted tree matches the original.
func TestExtractUnsplitRoundTrip(t *testing.T) {
	source, destDir := archiveFixture(t, map[string]string{"a.txt": "hello", "b.txt": "world"}, archiver.Options{})

	dest := filepath.Join(filepath.Dir(source), "restored")
	e := &Extractor{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	require.NoError(t, e.Extract(destDir, dest, Options{}))

	restoredRoot := filepath.Join(dest, "N")
	require.DirExists(t, restoredRoot)

	originalEntries, err := hasher.TreeListing(context.Background(), source, source, 1)
	require.NoError(t, err)
	restoredEntries, err := hasher.TreeListing(context.Background(), restoredRoot, restoredRoot, 1)
	require.NoError(t, err)
	require.Equal(t, hasher.AsSet(originalEntries), hasher.AsSet(restoredEntries))
}

func TestExtractRefusesExistingDestinationWithoutForce(t *testing.T) {
	_, destDir := archiveFixture(t, map[string]string{"a.txt": "x"}, archiver.Options{})

	dest := filepath.Join(filepath.Dir(destDir), "restored")
	require.NoError(t, os.Mkdir(dest, 0o755))

	e := &Extractor{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	err := e.Extract(destDir, dest, Options{})
	require.Error(t, err)
}

func TestExtractEncryptedArchive(t *testing.T) {
	t.Setenv("ARCHIVESET_AESGCM_PASSPHRASE", "bob-passphrase")

	source, destDir := archiveFixture(t, map[string]string{"secret.txt": "classified"}, archiver.Options{
		EncryptRecipients: []string{"bob-passphrase"},
		RemoveUnencrypted: true,
	})

	dest := filepath.Join(filepath.Dir(source), "restored")
	e := &Extractor{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t), Decrypt: aesgcm.Codec{}}
	require.NoError(t, e.Extract(destDir, dest, Options{}))

	restoredFile := filepath.Join(dest, "N", "secret.txt")
	data, err := os.ReadFile(restoredFile)
	require.NoError(t, err)
	require.Equal(t, "classified", string(data))
}
