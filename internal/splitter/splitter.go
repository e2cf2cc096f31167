// Package splitter implements the size-bounded directory partitioner: a
// depth-first walk of a source tree that lazily yields ordered parts whose
// cumulative on-disk size stays strictly below a caller-supplied bound.
package splitter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/provide-io/archiveset/internal/archiveerr"
	"github.com/provide-io/archiveset/internal/pathutil"
)

// Part is an ordered set of absolute paths whose total on-disk size is
// < the split bound. It is non-empty except for the single empty part that
// an empty root yields. Paths may be whole directories (pruned from further
// descent) or individual files.
type Part struct {
	Index int
	Paths []string
	Bytes int64
}

// Split walks root depth-first and returns every part. Eager collection is
// a legal implementation of the design note's "lazy splitter" recommendation
// (§9) and is what callers of this package get; Stream below provides the
// generator form for callers that want to start the pipeline on part 1
// before later parts are computed.
func Split(root string, bound int64) ([]Part, error) {
	if bound <= 0 {
		return nil, fmt.Errorf("split bound must be > 0, got %d", bound)
	}

	var parts []Part
	ch := make(chan Part)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		errCh <- walk(root, bound, ch)
	}()

	for p := range ch {
		parts = append(parts, p)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return parts, nil
}

// Stream is the pull-based generator form: it walks root in a goroutine and
// sends each completed Part on the returned channel, closing it when done.
// Errors are delivered on the second channel, which receives at most one
// value. A caller must drain the parts channel to avoid leaking the
// goroutine.
func Stream(root string, bound int64) (<-chan Part, <-chan error) {
	parts := make(chan Part)
	errCh := make(chan error, 1)

	go func() {
		defer close(parts)
		errCh <- walk(root, bound, parts)
	}()

	return parts, errCh
}

type state struct {
	bound        int64
	currentPaths []string
	currentBytes int64
	nextIndex    int
	out          chan<- Part
}

func walk(root string, bound int64, out chan<- Part) error {
	s := &state{bound: bound, nextIndex: 1, out: out}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s", archiveerr.ErrSourceMissing, root)
	}

	if !info.IsDir() {
		size := info.Size()
		if err := s.addFile(root, size); err != nil {
			return err
		}
		return s.flush()
	}

	if err := s.descend(root); err != nil {
		return err
	}
	return s.flush()
}

func (s *state) descend(dir string) error {
	subdirs, err := pathutil.ImmediateSubdirs(dir)
	if err != nil {
		return err
	}
	files, err := pathutil.ImmediateFiles(dir)
	if err != nil {
		return err
	}

	// Mirror os.walk's ordering: a subdirectory that fits whole is folded in
	// here (pruning descent), but one that doesn't fit is only descended
	// into after dir's own files have been processed below, not before.
	var toDescend []string
	for _, sub := range subdirs {
		size, err := pathutil.OnDiskSize(sub)
		if err != nil {
			return err
		}
		if s.currentBytes+size < s.bound {
			s.currentPaths = append(s.currentPaths, sub)
			s.currentBytes += size
			continue
		}
		toDescend = append(toDescend, sub)
	}

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return fmt.Errorf("stating %s: %w", f, err)
		}
		if err := s.addFile(f, info.Size()); err != nil {
			return err
		}
	}

	for _, sub := range toDescend {
		if err := s.descend(sub); err != nil {
			return err
		}
	}

	return nil
}

func (s *state) addFile(path string, size int64) error {
	if s.currentBytes+size < s.bound {
		s.currentPaths = append(s.currentPaths, path)
		s.currentBytes += size
		return nil
	}
	if size < s.bound {
		if err := s.emit(); err != nil {
			return err
		}
		s.currentPaths = []string{path}
		s.currentBytes = size
		return nil
	}
	return &archiveerr.PartTooLarge{Path: path, Size: size, Bound: s.bound}
}

func (s *state) emit() error {
	if len(s.currentPaths) == 0 {
		return nil
	}
	s.out <- Part{Index: s.nextIndex, Paths: s.currentPaths, Bytes: s.currentBytes}
	s.nextIndex++
	s.currentPaths = nil
	s.currentBytes = 0
	return nil
}

func (s *state) flush() error {
	// An empty root still emits one (possibly empty) part so the rest of
	// the pipeline produces one quintet, per §4.1.
	if len(s.currentPaths) == 0 && s.nextIndex == 1 {
		s.out <- Part{Index: s.nextIndex, Paths: nil, Bytes: 0}
		s.nextIndex++
		return nil
	}
	return s.emit()
}

// EffectiveName returns the quintet's effective name M for part index idx
// out of total parts, given source name N: N itself when there is exactly
// one part, N.partK otherwise (K = idx, 1-based).
func EffectiveName(sourceName string, idx, total int) string {
	if total <= 1 {
		return sourceName
	}
	return fmt.Sprintf("%s.part%d", sourceName, idx)
}

// SourceName returns the last path component of source, the source name N.
func SourceName(source string) string {
	return filepath.Base(filepath.Clean(source))
}
