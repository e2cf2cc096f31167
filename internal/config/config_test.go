package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultUsesFallbacksWhenUnset(t *testing.T) {
	t.Setenv("ARCHIVESET_THREADS", "")
	t.Setenv("ARCHIVESET_COMPRESSION_LEVEL", "")
	t.Setenv("ARCHIVESET_CODEC", "")

	opts := Default()
	require.Equal(t, 1, opts.Threads)
	require.Equal(t, 6, opts.CompressionLevel)
	require.Equal(t, "lzip", opts.Codec)
}

func TestDefaultReadsEnvOverrides(t *testing.T) {
	t.Setenv("ARCHIVESET_THREADS", "4")
	t.Setenv("ARCHIVESET_COMPRESSION_LEVEL", "9")
	t.Setenv("ARCHIVESET_CODEC", "zstd")

	opts := Default()
	require.Equal(t, 4, opts.Threads)
	require.Equal(t, 9, opts.CompressionLevel)
	require.Equal(t, "zstd", opts.Codec)
}

func TestDefaultIgnoresUnparsableInt(t *testing.T) {
	t.Setenv("ARCHIVESET_THREADS", "not-a-number")
	opts := Default()
	require.Equal(t, 1, opts.Threads)
}
