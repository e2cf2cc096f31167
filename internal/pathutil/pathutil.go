// Package pathutil provides the filesystem primitives the archive lifecycle
// engine needs that are not specific to hashing or tar/compress/encrypt:
// on-disk sizing, free-space queries, directory creation with overwrite
// handling, and path sanitization.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/safearchive/sanitizer"
	"github.com/provide-io/archiveset/internal/archiveerr"
)

// RequiredSpaceMultiplier is the safety factor applied to a capacity
// precheck before extraction or decryption, to absorb filesystem block
// overhead and metadata.
const RequiredSpaceMultiplier = 1.15

// OnDiskSize returns the total apparent size, in bytes, of every regular
// file under root. Directories, symlinks, and other non-regular entries
// contribute zero bytes of their own; a symlink's target is not followed.
func OnDiskSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("computing on-disk size of %s: %w", root, err)
	}
	return total, nil
}

// ImmediateSubdirs returns the absolute paths of the directories (not
// files) that are direct children of dir, sorted by name.
func ImmediateSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, filepath.Join(dir, entry.Name()))
		}
	}
	return subdirs, nil
}

// ImmediateFiles returns the absolute paths of the non-directory entries
// (regular files, symlinks, and other special files) that are direct
// children of dir, sorted by name.
func ImmediateFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// CreateDestination creates dir, failing with ErrDestinationExists unless
// force is set, and failing if dir's parent does not exist. This mirrors
// both archive-directory creation and extraction-destination creation,
// which share the same overwrite rules per spec.
func CreateDestination(dir string, force bool) error {
	parent := filepath.Dir(dir)
	if parent != "." && parent != string(filepath.Separator) {
		if _, err := os.Stat(parent); err != nil {
			return fmt.Errorf("%w: %s", archiveerr.ErrDestinationNoParent, parent)
		}
	}

	if _, err := os.Stat(dir); err == nil {
		if !force {
			return fmt.Errorf("%w: %s", archiveerr.ErrDestinationExists, dir)
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing existing destination %s: %w", dir, err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating destination %s: %w", dir, err)
	}
	return nil
}

// SanitizeRelPath lexically sanitizes a POSIX relative path before it is
// written into a listing-hash sidecar or a tar file list, so that a
// maliciously-named entry (or a symlink target resolved earlier) cannot
// smuggle ".." segments out of the rooted N/ prefix.
func SanitizeRelPath(relpath string) string {
	return filepath.ToSlash(sanitizer.SanitizePath(relpath))
}
