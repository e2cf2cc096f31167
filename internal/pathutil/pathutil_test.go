package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provide-io/archiveset/internal/archiveerr"
)

func TestOnDiskSize(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("12345"), 0o644))
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.txt"), []byte("1234567890"), 0o644))

	size, err := OnDiskSize(root)
	require.NoError(t, err)
	require.EqualValues(t, 15, size)
}

func TestImmediateSubdirsAndFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir1"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir2"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file1"), nil, 0o644))

	subdirs, err := ImmediateSubdirs(root)
	require.NoError(t, err)
	require.Len(t, subdirs, 2)

	files, err := ImmediateFiles(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestCreateDestination(t *testing.T) {
	parent := t.TempDir()

	t.Run("creates fresh directory", func(t *testing.T) {
		dest := filepath.Join(parent, "fresh")
		require.NoError(t, CreateDestination(dest, false))
		info, err := os.Stat(dest)
		require.NoError(t, err)
		require.True(t, info.IsDir())
	})

	t.Run("refuses existing without force", func(t *testing.T) {
		dest := filepath.Join(parent, "exists")
		require.NoError(t, os.Mkdir(dest, 0o755))
		err := CreateDestination(dest, false)
		require.ErrorIs(t, err, archiveerr.ErrDestinationExists)
	})

	t.Run("overwrites existing with force", func(t *testing.T) {
		dest := filepath.Join(parent, "forced")
		require.NoError(t, os.Mkdir(dest, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.txt"), nil, 0o644))
		require.NoError(t, CreateDestination(dest, true))
		entries, err := os.ReadDir(dest)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("fails when parent is missing", func(t *testing.T) {
		dest := filepath.Join(parent, "missing-parent", "dest")
		err := CreateDestination(dest, false)
		require.ErrorIs(t, err, archiveerr.ErrDestinationNoParent)
	})
}

func TestSanitizeRelPath(t *testing.T) {
	require.Equal(t, "N/file.txt", SanitizeRelPath("N/file.txt"))
}
