package verifier

import (
	"context"
	"os"
	"path/filepath"
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

func archiveFixture(t *testing.T, files map[string]string) (source, destDir string) {
	t.Helper()
	root := t.TempDir()
	source = filepath.Join(root, "N")
	require.NoError(t, os.Mkdir(source, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(source, name), []byte(content), 0o644))
	}
	destDir = filepath.Join(root, "archive")

	a := &archiver.Archiver{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	_, err := a.Archive(context.Background(), source, destDir, archiver.Options{})
	require.NoError(t, err)
	return source, destDir
}

// TestCheckShallowOk covers S3: a freshly-produced archive passes a shallow
// check.
func TestCheckShallowOk(t *testing.T) {
	_, destDir := archiveFixture(t, map[string]string{"a.txt": "hello"})

	v := &Verifier{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	result := v.Check(destDir, false)
	require.Equal(t, Ok, result.Status)
}

// TestCheckDeepOk covers S4: a freshly-produced archive also passes the deep
// re-extraction check.
func TestCheckDeepOk(t *testing.T) {
	_, destDir := archiveFixture(t, map[string]string{"a.txt": "hello", "b.txt": "world"})

	v := &Verifier{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	result := v.Check(destDir, true)
	require.Equal(t, Ok, result.Status)
}

// TestCheckShallowFailedOnTamperedArtifact covers S5: editing a compressed
// artifact after archiving is caught by the shallow digest comparison.
func TestCheckShallowFailedOnTamperedArtifact(t *testing.T) {
	_, destDir := archiveFixture(t, map[string]string{"a.txt": "hello"})

	matches, err := filepath.Glob(filepath.Join(destDir, "*.tar.lz"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	f, err := os.OpenFile(matches[0], os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xff}, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	v := &Verifier{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	result := v.Check(destDir, false)
	require.Equal(t, ShallowFailed, result.Status)
	require.Equal(t, matches[0], result.FailedPart)
}

// TestCheckDeepFailedOnMutatedContent covers S6: the listing hash is
// rewritten so N/a.txt's recorded digest no longer matches its content. The
// compressed artifact and its digest sidecar are untouched, so the shallow
// check passes, but the deep check re-extracts, compares entries, and
// reports N/a.txt.
func TestCheckDeepFailedOnMutatedContent(t *testing.T) {
	_, destDir := archiveFixture(t, map[string]string{"a.txt": "hello"})

	listingPath := filepath.Join(destDir, "N.md5")
	require.NoError(t, os.WriteFile(listingPath, []byte("deadbeefdeadbeefdeadbeefdeadbeef N/a.txt\n"), 0o644))

	v := &Verifier{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	result := v.Check(destDir, true)
	require.Equal(t, DeepFailed, result.Status)
	require.Contains(t, result.MissingRelPaths, "N/a.txt")
}

func TestCheckSetupErrorOnMissingSidecar(t *testing.T) {
	_, destDir := archiveFixture(t, map[string]string{"a.txt": "hello"})
	require.NoError(t, os.Remove(filepath.Join(destDir, "N.tar.lz.md5")))

	v := &Verifier{Tar: archivetest.FakeTar{}, Compress: bzip2Codec(t)}
	result := v.Check(destDir, false)
	require.Equal(t, SetupError, result.Status)
	require.Equal(t, MissingSidecar, result.SetupKind)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "ok", Ok.String())
	require.Equal(t, "shallow_failed", ShallowFailed.String())
	require.Equal(t, "deep_failed", DeepFailed.String())
	require.Equal(t, "setup_error", SetupError.String())
}
