// Package archivetest provides in-process operator test doubles backed by
// the standard library's archive/tar, so the pipeline, archiver, extractor,
// and verifier packages can be exercised end-to-end without a system tar
// binary, exactly the "test doubles in-process" design note calls for.
package archivetest

import (
	"archive/tar"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/provide-io/archiveset/internal/operators"
)

// FakeTar implements operators.Tar using archive/tar directly. When
// Compress is set, List decodes a ".lz" path through it before reading the
// tar; otherwise every path is read as an uncompressed tar.
type FakeTar struct {
	Compress operators.Compress
}

func (FakeTar) Create(outTar, workdir string, entries []string, filesFrom string, threads int) error {
	if filesFrom != "" {
		data, err := os.ReadFile(filesFrom)
		if err != nil {
			return fmt.Errorf("reading files-from %s: %w", filesFrom, err)
		}
		entries = nil
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				entries = append(entries, line)
			}
		}
	}

	out, err := os.Create(outTar)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outTar, err)
	}
	defer out.Close()

	tw := tar.NewWriter(out)
	defer tw.Close()

	for _, entry := range entries {
		full := filepath.Join(workdir, entry)
		if err := addToTar(tw, workdir, full); err != nil {
			return err
		}
	}
	return nil
}

func addToTar(tw *tar.Writer, workdir, path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(workdir, p)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			f, err := os.Open(p)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := io.Copy(tw, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (ft FakeTar) List(tarPath string, innerPath string) (string, error) {
	f, err := os.Open(tarPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", tarPath, err)
	}
	defer f.Close()

	var src io.Reader = f
	if ft.Compress != nil && strings.HasSuffix(tarPath, ".lz") {
		var decoded bytes.Buffer
		if err := ft.Compress.DecodeStream(tarPath, &decoded); err != nil {
			return "", fmt.Errorf("decoding %s: %w", tarPath, err)
		}
		src = &decoded
	}

	var sb strings.Builder
	tr := tar.NewReader(src)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", tarPath, err)
		}
		if innerPath != "" && !strings.Contains(hdr.Name, innerPath) {
			continue
		}
		fmt.Fprintf(&sb, "%s %d %s\n", hdr.FileInfo().Mode(), hdr.Size, hdr.Name)
	}
	return sb.String(), nil
}

func (FakeTar) Extract(tarPath, dest, innerPath string, threads int) error {
	f, err := os.Open(tarPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", tarPath, err)
	}
	defer f.Close()

	tr := tar.NewReader(bufio.NewReader(f))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", tarPath, err)
		}
		if innerPath != "" && !strings.Contains(hdr.Name, innerPath) {
			continue
		}
		target := filepath.Join(dest, hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
	return nil
}
