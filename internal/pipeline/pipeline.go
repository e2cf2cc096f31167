// Package pipeline orchestrates the per-part quintet production described
// in spec §4.3: hash-listing, tar, archive-hash, listing-file, compress,
// compressed-hash, and optional encrypt+encrypted-hash.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/archiveset/internal/archiveerr"
	"github.com/provide-io/archiveset/internal/hasher"
	"github.com/provide-io/archiveset/internal/operators"
	"github.com/provide-io/archiveset/internal/splitter"
)

// Options configures a single part's run.
type Options struct {
	Threads int
	// CompressionLevel is 0-9, where 0 is a legitimate (store/fastest)
	// request. UnsetCompressionLevel means "use the default" (6).
	CompressionLevel  int
	EncryptRecipients []string
	RemoveUnencrypted bool
}

// UnsetCompressionLevel is the CompressionLevel sentinel meaning "caller
// did not specify a level", distinct from the valid level 0.
const UnsetCompressionLevel = -1

// Result records the sidecar paths produced for one part, and whether it
// was encrypted.
type Result struct {
	Name             string // effective name M
	Encrypted        bool
	Listing          string
	Tar              string // empty if deleted after compression
	TarDigest        string
	TarList          string
	Compressed       string // empty if removed after encryption
	CompressedDigest string
	EncryptedPath    string
	EncryptedDigest  string
}

// Pipeline runs the quintet steps for one part against a destination
// directory. Parts are processed strictly sequentially by the caller;
// Pipeline itself does not fan out across parts.
type Pipeline struct {
	Tar      operators.Tar
	Compress operators.Compress
	Encrypt  operators.Encrypt
	Logger   hclog.Logger
}

// Run is the entry point callers use: it takes the destination directory
// explicitly (Preconditions in §4.3: D exists, S exists) and produces one
// part's quintet/septet inside it. unsplit is true iff this is the archive's
// only part, in which case the tar step uses a single positional entry
// (basename(sourceRoot)) rather than a --files-from list of the part's
// constituent paths.
func (p *Pipeline) Run(ctx context.Context, destDir, sourceRoot string, part splitter.Part, effectiveName string, unsplit bool, opts Options) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	sidecar := func(suffix string) string {
		return filepath.Join(destDir, effectiveName+suffix)
	}

	res := &Result{Name: effectiveName}

	// Step 1: hash listing, from the part's actual path set (a single
	// source directory for unsplit archives, or the part's path subset for
	// a split one).
	var entries []hasher.Entry
	for _, path := range part.Paths {
		sub, err := hasher.TreeListing(ctx, path, sourceRoot, opts.Threads)
		if err != nil {
			return nil, &archiveerr.OperatorFailure{Operator: "hasher", Part: effectiveName, Err: err}
		}
		entries = append(entries, sub...)
	}
	res.Listing = sidecar(".md5")
	if err := hasher.WriteListing(res.Listing, entries); err != nil {
		return nil, err
	}
	logger.Debug("wrote listing hash", "part", effectiveName, "files", len(entries))

	// Step 2: tar.
	res.Tar = sidecar(".tar")
	workdir := filepath.Dir(filepath.Clean(sourceRoot))
	if unsplit {
		entryName, err := filepath.Rel(workdir, sourceRoot)
		if err != nil {
			return nil, fmt.Errorf("relativizing source root: %w", err)
		}
		if err := p.Tar.Create(res.Tar, workdir, []string{entryName}, "", opts.Threads); err != nil {
			return nil, &archiveerr.OperatorFailure{Operator: "tar", Part: effectiveName, Err: err}
		}
	} else {
		filesFrom, cleanup, err := writeFilesFromList(workdir, part.Paths)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		if err := p.Tar.Create(res.Tar, workdir, nil, filesFrom, opts.Threads); err != nil {
			return nil, &archiveerr.OperatorFailure{Operator: "tar", Part: effectiveName, Err: err}
		}
	}
	logger.Debug("wrote tar", "part", effectiveName, "path", res.Tar)

	// Step 3: archive digest.
	var err error
	res.TarDigest, err = hasher.WriteSignatureDigest(res.Tar, sidecar(".tar.md5"))
	if err != nil {
		return nil, err
	}

	// Step 4: tar listing.
	listing, err := p.Tar.List(res.Tar, "")
	if err != nil {
		return nil, &archiveerr.OperatorFailure{Operator: "tar", Part: effectiveName, Err: err}
	}
	res.TarList = sidecar(".tar.lst")
	if err := os.WriteFile(res.TarList, []byte(listing), 0o644); err != nil {
		return nil, fmt.Errorf("writing tar listing %s: %w", res.TarList, err)
	}

	// Step 5: compress.
	level := opts.CompressionLevel
	if level < 0 {
		level = 6
	}
	compressedPath, err := p.Compress.Encode(res.Tar, level, opts.Threads)
	if err != nil {
		return nil, &archiveerr.OperatorFailure{Operator: "compress", Part: effectiveName, Err: err}
	}
	res.Tar = "" // removed by the compressor, per §6.
	res.Compressed = compressedPath
	logger.Debug("compressed part", "part", effectiveName, "path", res.Compressed)

	// Step 6: compressed digest.
	res.CompressedDigest, err = hasher.WriteSignatureDigest(res.Compressed, sidecar(".tar.lz.md5"))
	if err != nil {
		return nil, err
	}

	// Step 7: encrypt (optional).
	if len(opts.EncryptRecipients) > 0 {
		if p.Encrypt == nil {
			return nil, fmt.Errorf("encryption requested but no Encrypt operator configured")
		}
		encPath := sidecar(".tar.lz.gpg")
		if err := p.Encrypt.EncryptFile(res.Compressed, encPath, opts.EncryptRecipients); err != nil {
			return nil, &archiveerr.OperatorFailure{Operator: "encrypt", Part: effectiveName, Err: err}
		}
		encDigest, err := hasher.WriteSignatureDigest(encPath, encPath+".md5")
		if err != nil {
			return nil, err
		}
		res.Encrypted = true
		res.EncryptedPath = encPath
		res.EncryptedDigest = encDigest

		if opts.RemoveUnencrypted {
			if err := os.Remove(res.Compressed); err != nil {
				return nil, fmt.Errorf("removing unencrypted compressed artifact %s: %w", res.Compressed, err)
			}
			if err := os.Remove(sidecar(".tar.lz.md5")); err != nil {
				return nil, fmt.Errorf("removing unencrypted digest sidecar: %w", err)
			}
			res.Compressed = ""
			res.CompressedDigest = ""
		}
	}

	return res, nil
}
