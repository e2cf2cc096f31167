package encryptadapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provide-io/archiveset/internal/archiveerr"
	"github.com/provide-io/archiveset/internal/archiver"
	"github.com/provide-io/archiveset/internal/archivetest"
	"github.com/provide-io/archiveset/internal/operators/aesgcm"
	"github.com/provide-io/archiveset/internal/operators/compress"
)

func bzip2Codec(t *testing.T) *compress.Bzip2 {
	t.Helper()
	codec, err := compress.Get("bzip2")
	require.NoError(t, err)
	return codec.(*compress.Bzip2)
}

func compressedFixture(t *testing.T) (destDir string) {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "N")
	require.NoError(t, os.Mkdir(source, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644))
	destDir = filepath.Join(root, "archive")

	a := &archiver.Archiver{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	_, err := a.Archive(context.Background(), source, destDir, archiver.Options{})
	require.NoError(t, err)
	return destDir
}

func TestEncryptExistingThenDecryptExisting(t *testing.T) {
	destDir := compressedFixture(t)

	adapter := &Adapter{Encrypt: aesgcm.Codec{}, Decrypt: aesgcm.Codec{}}
	require.NoError(t, adapter.EncryptExisting(destDir, []string{"carol"}, Options{RemoveUnencrypted: true}))

	require.NoFileExists(t, filepath.Join(destDir, "N.tar.lz"))
	require.FileExists(t, filepath.Join(destDir, "N.tar.lz.gpg"))
	require.FileExists(t, filepath.Join(destDir, "N.tar.lz.gpg.md5"))

	err := adapter.EncryptExisting(destDir, []string{"carol"}, Options{})
	require.ErrorIs(t, err, archiveerr.ErrAlreadyEncrypted)

	t.Setenv("ARCHIVESET_AESGCM_PASSPHRASE", "carol")
	require.NoError(t, adapter.DecryptExisting(destDir, Options{RemoveUnencrypted: true}))
	require.FileExists(t, filepath.Join(destDir, "N.tar.lz"))
	require.NoFileExists(t, filepath.Join(destDir, "N.tar.lz.gpg"))

	err = adapter.DecryptExisting(destDir, Options{})
	require.ErrorIs(t, err, archiveerr.ErrAlreadyDecrypted)
}

func TestEncryptExistingNoCompressedArchives(t *testing.T) {
	dir := t.TempDir()
	adapter := &Adapter{Encrypt: aesgcm.Codec{}}
	err := adapter.EncryptExisting(dir, []string{"carol"}, Options{})
	require.ErrorIs(t, err, archiveerr.ErrNoCompressedArchives)
}
