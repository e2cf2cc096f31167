package compress

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryHasBuiltinCodecs(t *testing.T) {
	names := Names()
	for _, want := range []string{"bzip2", "zstd", "lz4", "xz"} {
		require.Contains(t, names, want)
	}
}

func TestGetUnknownCodec(t *testing.T) {
	_, err := Get("does-not-exist")
	require.Error(t, err)
}

func testCodecRoundTrip(t *testing.T, name string) {
	t.Helper()
	codec, err := Get(name)
	require.NoError(t, err)

	dir := t.TempDir()
	inPath := filepath.Join(dir, "part.tar")
	payload := bytes.Repeat([]byte("archiveset-round-trip-payload "), 256)
	require.NoError(t, os.WriteFile(inPath, payload, 0o644))

	outPath, err := codec.Encode(inPath, 6, 1)
	require.NoError(t, err)
	require.NotEqual(t, inPath, outPath)

	_, statErr := os.Stat(inPath)
	require.True(t, os.IsNotExist(statErr), "Encode must remove its input on success")

	size, err := codec.UncompressedSize(outPath)
	require.NoError(t, err)
	require.EqualValues(t, len(payload), size)

	var buf bytes.Buffer
	require.NoError(t, codec.DecodeStream(outPath, &buf))
	require.Equal(t, payload, buf.Bytes())
}

func TestCodecRoundTrips(t *testing.T) {
	for _, name := range []string{"bzip2", "zstd", "lz4", "xz"} {
		name := name
		t.Run(name, func(t *testing.T) {
			testCodecRoundTrip(t, name)
		})
	}
}
