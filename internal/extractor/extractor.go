// Package extractor implements the extract operation described in spec
// §4.5: turn an archive directory (or single part) back into a directory
// tree, decrypting and decompressing as needed, with capacity prechecks
// before either step touches disk.
package extractor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/archiveset/internal/archiveerr"
	"github.com/provide-io/archiveset/internal/operators"
	"github.com/provide-io/archiveset/internal/pathutil"
)

// Options configures a single extract call.
type Options struct {
	Partial              string // inner-path filter; empty means extract everything
	Threads              int
	Force                bool
	ExtractAtDestination bool // decrypt straight into dest instead of a scratch dir
}

// Extractor turns an archive source back into a plain directory tree.
type Extractor struct {
	Tar      operators.Tar
	Compress operators.Compress
	Decrypt  operators.Decrypt
	Logger   hclog.Logger
}

func (e *Extractor) logger() hclog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return hclog.NewNullLogger()
}

// Extract implements spec §4.5's extract(source, dest, partial?, threads?,
// force, extract_at_destination?).
func (e *Extractor) Extract(source, dest string, opts Options) error {
	if err := pathutil.CreateDestination(dest, opts.Force); err != nil {
		return err
	}

	encrypted, parts, err := discoverParts(source)
	if err != nil {
		return err
	}

	if encrypted {
		decryptDir := dest
		var cleanup func()
		if !opts.ExtractAtDestination {
			scratch, err := os.MkdirTemp("", "archiveset-decrypt-*")
			if err != nil {
				return fmt.Errorf("creating scratch directory: %w", err)
			}
			cleanup = func() { os.RemoveAll(scratch) }
			decryptDir = scratch
		}
		if cleanup != nil {
			defer cleanup()
		}

		var encryptedTotal int64
		for _, p := range parts {
			info, err := os.Stat(p)
			if err != nil {
				return fmt.Errorf("stating %s: %w", p, err)
			}
			encryptedTotal += info.Size()
		}
		if err := checkCapacity(dest, encryptedTotal); err != nil {
			return err
		}

		decrypted := make([]string, len(parts))
		for i, p := range parts {
			base := strings.TrimSuffix(filepath.Base(p), ".gpg")
			out := filepath.Join(decryptDir, base)
			if err := e.Decrypt.DecryptFile(p, out); err != nil {
				return &archiveerr.OperatorFailure{Operator: "decrypt", Part: filepath.Base(p), Err: err}
			}
			decrypted[i] = out
		}
		parts = decrypted
	}

	var uncompressedTotal int64
	for _, p := range parts {
		size, err := e.Compress.UncompressedSize(p)
		if err != nil {
			return &archiveerr.OperatorFailure{Operator: "compress", Part: filepath.Base(p), Err: err}
		}
		uncompressedTotal += size
	}
	if err := checkCapacity(dest, uncompressedTotal); err != nil {
		return err
	}

	for _, p := range parts {
		if opts.Partial != "" {
			if err := e.extractPartial(p, dest, opts.Partial, opts.Threads); err != nil {
				return err
			}
			continue
		}
		if err := e.extractStreamed(p, dest, opts.Threads); err != nil {
			return err
		}
	}

	e.logger().Info("extraction complete", "source", source, "dest", dest, "parts", len(parts))
	return nil
}

// extractPartial extracts only entries matching innerPath from one part.
// Best-effort across parts: the target file may live in only one of them, so
// a miss in any individual part's Tar.Extract is logged and not returned.
// Extract therefore reports success even when no part contained innerPath;
// callers check dest to see whether the file surfaced.
func (e *Extractor) extractPartial(compressedPart, dest, innerPath string, threads int) error {
	tarPath, cleanup, err := decompressToScratch(e.Compress, compressedPart)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := e.Tar.Extract(tarPath, dest, innerPath, threads); err != nil {
		e.logger().Debug("partial extract miss", "part", compressedPart, "inner_path", innerPath, "err", err)
	}
	return nil
}

// extractStreamed decompresses compressedPart into a scratch tar file and
// then runs Tar.Extract on it. The uncompressed tar is written to disk in
// full (it is not piped into Tar.Extract); the scratch file is removed when
// extraction finishes.
func (e *Extractor) extractStreamed(compressedPart, dest string, threads int) error {
	tarPath, cleanup, err := decompressToScratch(e.Compress, compressedPart)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := e.Tar.Extract(tarPath, dest, "", threads); err != nil {
		return &archiveerr.OperatorFailure{Operator: "tar", Part: filepath.Base(compressedPart), Err: err}
	}
	return nil
}

// decompressToScratch materializes the decompressed tar into a scratch file
// so the Tar operator (which expects a path, not a stream) can read it; the
// scratch file is removed by the returned cleanup regardless of outcome.
func decompressToScratch(c operators.Compress, compressedPath string) (string, func(), error) {
	scratch, err := os.MkdirTemp("", "archiveset-extract-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(scratch) }

	tarPath := filepath.Join(scratch, "part.tar")
	f, err := os.Create(tarPath)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("creating scratch tar %s: %w", tarPath, err)
	}
	defer f.Close()

	var w io.Writer = f
	if err := c.DecodeStream(compressedPath, w); err != nil {
		cleanup()
		return "", nil, &archiveerr.OperatorFailure{Operator: "compress", Part: filepath.Base(compressedPath), Err: err}
	}
	return tarPath, cleanup, nil
}

// discoverParts decides encrypted-vs-plain and enumerates source's parts,
// sorted for stable sequential processing.
func discoverParts(source string) (encrypted bool, parts []string, err error) {
	info, err := os.Stat(source)
	if err != nil {
		return false, nil, fmt.Errorf("%w: %s", archiveerr.ErrSourceMissing, source)
	}

	if !info.IsDir() {
		if strings.HasSuffix(source, ".tar.lz.gpg") {
			return true, []string{source}, nil
		}
		if strings.HasSuffix(source, ".tar.lz") {
			return false, []string{source}, nil
		}
		return false, nil, fmt.Errorf("%w: %s", archiveerr.ErrWrongFileType, source)
	}

	gpgs, err := filepath.Glob(filepath.Join(source, "*.tar.lz.gpg"))
	if err != nil {
		return false, nil, fmt.Errorf("scanning %s: %w", source, err)
	}
	if len(gpgs) > 0 {
		sort.Strings(gpgs)
		return true, gpgs, nil
	}

	plain, err := filepath.Glob(filepath.Join(source, "*.tar.lz"))
	if err != nil {
		return false, nil, fmt.Errorf("scanning %s: %w", source, err)
	}
	sort.Strings(plain)
	return false, plain, nil
}

func checkCapacity(dest string, required int64) error {
	avail, err := pathutil.AvailableBytes(dest)
	if err != nil {
		return fmt.Errorf("querying free space on %s: %w", dest, err)
	}
	needed := int64(float64(required) * pathutil.RequiredSpaceMultiplier)
	if avail < needed {
		return fmt.Errorf("%w: need %d bytes, have %d", archiveerr.ErrInsufficientSpace, needed, avail)
	}
	return nil
}
