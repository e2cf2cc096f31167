// Package verifier implements the two-level integrity check described in
// spec §4.6: a cheap shallow signature comparison, and an optional deep
// check that re-extracts every part into a scratch directory and compares
// its actual contents against the recorded listing hash.
package verifier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/archiveset/internal/archiveerr"
	"github.com/provide-io/archiveset/internal/hasher"
	"github.com/provide-io/archiveset/internal/operators"
	"github.com/provide-io/archiveset/internal/pathutil"
)

// Status tags the outcome of a Check call, standing in for the sum type
// described in spec §4.6.
type Status int

const (
	// Ok means every part reached its terminal success state.
	Ok Status = iota
	// ShallowFailed means a part's live digest did not match its recorded
	// signature digest.
	ShallowFailed
	// DeepFailed means deep re-extraction surfaced at least one file whose
	// (digest, relpath) pair is absent from its part's listing hash. Listing
	// entries with no matching extracted file are not reported.
	DeepFailed
	// SetupError means the check could not proceed at all (a missing
	// sidecar or insufficient scratch-disk capacity).
	SetupError
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "ok"
	case ShallowFailed:
		return "shallow_failed"
	case DeepFailed:
		return "deep_failed"
	case SetupError:
		return "setup_error"
	default:
		return "unknown"
	}
}

// SetupErrorKind distinguishes setup failure causes.
type SetupErrorKind int

const (
	MissingSidecar SetupErrorKind = iota
	InsufficientSpace
)

// Result is the tagged outcome of a Check call.
type Result struct {
	Status Status

	// ShallowFailed: the part whose digest mismatched.
	FailedPart string

	// DeepFailed: relpaths found missing across all parts, aggregated
	// rather than stopping at the first failing part, per the §9 open
	// question.
	MissingRelPaths []string

	// SetupError:
	SetupKind SetupErrorKind
	SetupErr  error
}

// part pairs a compressed (or encrypted) artifact with its signature-digest
// and listing-hash sidecars.
type part struct {
	artifact      string
	signaturePath string
	listingPath   string
	encrypted     bool
}

// Verifier runs shallow and deep integrity checks against archive
// directories or single parts.
type Verifier struct {
	Tar      operators.Tar
	Compress operators.Compress
	Decrypt  operators.Decrypt
	Logger   hclog.Logger
}

func (v *Verifier) logger() hclog.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return hclog.NewNullLogger()
}

// Check implements spec §4.6's check(source, deep).
func (v *Verifier) Check(source string, deep bool) Result {
	parts, err := discoverParts(source)
	if err != nil {
		return Result{Status: SetupError, SetupKind: MissingSidecar, SetupErr: err}
	}

	for _, p := range parts {
		if _, err := os.Stat(p.signaturePath); err != nil {
			return Result{Status: SetupError, SetupKind: MissingSidecar, SetupErr: fmt.Errorf("%w: %s", archiveerr.ErrMissingSidecar, p.signaturePath)}
		}
		if _, err := os.Stat(p.listingPath); err != nil {
			return Result{Status: SetupError, SetupKind: MissingSidecar, SetupErr: fmt.Errorf("%w: %s", archiveerr.ErrMissingSidecar, p.listingPath)}
		}
	}

	for _, p := range parts {
		live, err := hasher.FileDigest(p.artifact)
		if err != nil {
			return Result{Status: SetupError, SetupKind: MissingSidecar, SetupErr: err}
		}
		recorded, err := hasher.ReadSignatureDigest(p.signaturePath)
		if err != nil {
			return Result{Status: SetupError, SetupKind: MissingSidecar, SetupErr: err}
		}
		if live != recorded {
			v.logger().Warn("shallow check failed", "part", p.artifact)
			return Result{Status: ShallowFailed, FailedPart: p.artifact}
		}
	}

	if !deep {
		return Result{Status: Ok}
	}

	// Every part is checked and failures are aggregated, rather than
	// returning on the first failing part, per the §9 open question.
	var missing []string
	for _, p := range parts {
		partMissing, err := v.deepCheckPart(p)
		if err != nil {
			return Result{Status: SetupError, SetupKind: InsufficientSpace, SetupErr: err}
		}
		missing = append(missing, partMissing...)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return Result{Status: DeepFailed, MissingRelPaths: missing}
	}
	return Result{Status: Ok}
}

func (v *Verifier) deepCheckPart(p part) ([]string, error) {
	scratch, err := os.MkdirTemp("", "archiveset-verify-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	compressedPath := p.artifact
	if p.encrypted {
		decryptedPath := filepath.Join(scratch, strings.TrimSuffix(filepath.Base(p.artifact), ".gpg"))
		if err := v.Decrypt.DecryptFile(p.artifact, decryptedPath); err != nil {
			return nil, &archiveerr.OperatorFailure{Operator: "decrypt", Part: filepath.Base(p.artifact), Err: err}
		}
		compressedPath = decryptedPath
	}

	uncompressedSize, err := v.Compress.UncompressedSize(compressedPath)
	if err != nil {
		return nil, &archiveerr.OperatorFailure{Operator: "compress", Part: filepath.Base(p.artifact), Err: err}
	}
	avail, err := pathutil.AvailableBytes(scratch)
	if err != nil {
		return nil, fmt.Errorf("querying free space on %s: %w", scratch, err)
	}
	needed := int64(float64(uncompressedSize) * pathutil.RequiredSpaceMultiplier)
	if avail < needed {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", archiveerr.ErrInsufficientSpace, needed, avail)
	}

	tarPath := filepath.Join(scratch, "part.tar")
	f, err := os.Create(tarPath)
	if err != nil {
		return nil, fmt.Errorf("creating scratch tar %s: %w", tarPath, err)
	}
	if err := v.Compress.DecodeStream(compressedPath, f); err != nil {
		f.Close()
		return nil, &archiveerr.OperatorFailure{Operator: "compress", Part: filepath.Base(p.artifact), Err: err}
	}
	f.Close()

	extractRoot := filepath.Join(scratch, "extracted")
	if err := os.MkdirAll(extractRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating extraction root %s: %w", extractRoot, err)
	}
	if err := v.Tar.Extract(tarPath, extractRoot, "", 0); err != nil {
		return nil, &archiveerr.OperatorFailure{Operator: "tar", Part: filepath.Base(p.artifact), Err: err}
	}

	topEntries, err := pathutil.ImmediateSubdirs(extractRoot)
	if err != nil {
		return nil, err
	}
	topFiles, err := pathutil.ImmediateFiles(extractRoot)
	if err != nil {
		return nil, err
	}
	var extractedRoot string
	switch len(topEntries) + len(topFiles) {
	case 0:
		extractedRoot = extractRoot
	case 1:
		if len(topEntries) == 1 {
			extractedRoot = topEntries[0]
		} else {
			extractedRoot = topFiles[0]
		}
	default:
		return nil, fmt.Errorf("part %s extracted more than one top-level entry into scratch directory", p.artifact)
	}

	actual, err := hasher.TreeListing(context.Background(), extractedRoot, extractedRoot, 1)
	if err != nil {
		return nil, err
	}

	expected, err := hasher.ReadListing(p.listingPath)
	if err != nil {
		return nil, err
	}
	expectedSet := hasher.AsSet(expected)

	var missing []string
	for _, entry := range actual {
		key := entry.Digest + " " + entry.RelPath
		if _, ok := expectedSet[key]; !ok {
			missing = append(missing, entry.RelPath)
		}
	}
	return missing, nil
}

// discoverParts enumerates source's parts, preferring .tar.lz.gpg over
// .tar.lz when both are present, per spec §4.6's discovery rule, and
// resolves each part's listing-hash sidecar by stripping both the
// compression and (if present) encryption suffix rather than splitting on
// the first ".", which mishandles split parts like N.part2.tar.lz (the §9
// open question on listing-hash path resolution).
func discoverParts(source string) ([]part, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", archiveerr.ErrSourceMissing, source)
	}

	var artifacts []string
	var encrypted bool
	if info.IsDir() {
		gpgs, err := filepath.Glob(filepath.Join(source, "*.tar.lz.gpg"))
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", source, err)
		}
		if len(gpgs) > 0 {
			sort.Strings(gpgs)
			artifacts, encrypted = gpgs, true
		} else {
			plain, err := filepath.Glob(filepath.Join(source, "*.tar.lz"))
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", source, err)
			}
			sort.Strings(plain)
			artifacts = plain
		}
	} else {
		artifacts = []string{source}
		encrypted = strings.HasSuffix(source, ".gpg")
	}

	parts := make([]part, len(artifacts))
	for i, a := range artifacts {
		stem := strings.TrimSuffix(a, ".gpg")
		stem = strings.TrimSuffix(stem, ".tar.lz")
		parts[i] = part{
			artifact:      a,
			signaturePath: a + ".md5",
			listingPath:   stem + ".md5",
			encrypted:     encrypted,
		}
	}
	return parts, nil
}
