// Package hasher computes the streaming 128-bit digests that back every
// sidecar in an archive part: the listing hash, the tar digest, the
// compressed digest, and (if encrypted) the encrypted digest.
package hasher

import (
	"context"
	"crypto/md5" //nolint:gosec // digest is a content-change detector, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/provide-io/archiveset/internal/pathutil"
)

// Entry is one (relpath, digest) pair produced by a tree listing.
type Entry struct {
	RelPath string
	Digest  string
}

// FileDigest streams the contents of path through MD5 and returns the
// 32-character lowercase hex digest.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for digest: %w", path, err)
	}
	defer f.Close()

	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digesting %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteSignatureDigest writes a single-token signature-digest sidecar
// (e.g. M.tar.md5) for the artifact at artifactPath.
func WriteSignatureDigest(artifactPath, sidecarPath string) (string, error) {
	digest, err := FileDigest(artifactPath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(sidecarPath, []byte(digest), 0o644); err != nil {
		return "", fmt.Errorf("writing signature digest %s: %w", sidecarPath, err)
	}
	return digest, nil
}

// ReadSignatureDigest reads a single-token signature-digest file, trimming
// whitespace and lowercasing the hex, per the §6 format.
func ReadSignatureDigest(sidecarPath string) (string, error) {
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return "", fmt.Errorf("reading signature digest %s: %w", sidecarPath, err)
	}
	return strings.ToLower(strings.TrimSpace(string(data))), nil
}

// TreeListing walks root (a file or directory) and digests every regular
// file found, including symlink targets that are themselves regular files;
// broken symlinks are skipped. Each entry's RelPath is POSIX-style and
// rooted at the base name of treeBase (i.e. relative to treeBase's parent).
// Entry order is unspecified but every entry is present exactly once.
func TreeListing(ctx context.Context, root, treeBase string, maxWorkers int) ([]Entry, error) {
	base := filepath.Dir(filepath.Clean(treeBase))

	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, statErr := os.Stat(path)
			if statErr != nil {
				// Broken symlink: ignored per spec.
				return nil
			}
			if !target.Mode().IsRegular() {
				return nil
			}
			paths = append(paths, path)
			return nil
		}
		if info.Mode().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	entries := make([]Entry, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			digest, err := FileDigest(p)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(base, p)
			if err != nil {
				return fmt.Errorf("relativizing %s against %s: %w", p, base, err)
			}
			rel = pathutil.SanitizeRelPath(filepath.ToSlash(rel))
			entries[i] = Entry{RelPath: rel, Digest: digest}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return entries, nil
}

// WriteListing writes entries to path in the "<hex> <relpath>\n" format
// described in §6, one line per file, order unspecified.
func WriteListing(path string, entries []Entry) error {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s %s\n", e.Digest, e.RelPath)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing listing hash %s: %w", path, err)
	}
	return nil
}

// ReadListing parses a listing-hash sidecar into its entries.
func ReadListing(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading listing hash %s: %w", path, err)
	}
	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed listing line in %s: %q", path, line)
		}
		entries = append(entries, Entry{
			Digest:  strings.ToLower(parts[0]),
			RelPath: parts[1],
		})
	}
	return entries, nil
}

// AsSet returns entries keyed by "<hex> <relpath>" for set-style comparison,
// resolving the §9 open question (deep verification compares sets of
// (hex, relpath) pairs rather than doing substring containment against raw
// file text).
func AsSet(entries []Entry) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.Digest+" "+e.RelPath] = struct{}{}
	}
	return set
}

// SortedRelPaths returns the entries' relative paths sorted, useful for
// deterministic test assertions and diagnostic output.
func SortedRelPaths(entries []Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.RelPath
	}
	sort.Strings(paths)
	return paths
}
