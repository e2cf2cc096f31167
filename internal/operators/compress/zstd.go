package compress

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

func init() {
	Register(&Zstd{})
}

// Zstd is an in-process Compress codec built on klauspost/compress/zstd,
// grounded in quay-claircore's direct dependency on the same module.
type Zstd struct{}

func (z *Zstd) Name() string { return "zstd" }

func (z *Zstd) Encode(inPath string, level int, threads int) (string, error) {
	outPath := inPath + ".lz"
	encLevel := zstdLevel(level)
	_, err := writeWithFooter(inPath, outPath, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(encLevel))
	})
	if err != nil {
		return "", fmt.Errorf("zstd encode %s: %w", inPath, err)
	}
	if err := os.Remove(inPath); err != nil {
		return "", fmt.Errorf("zstd encode %s: removing input: %w", inPath, err)
	}
	return outPath, nil
}

func (z *Zstd) DecodeStream(inPath string, w io.Writer) error {
	return decodeStream(inPath, func(r io.Reader) (io.Reader, error) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	})(w)
}

func (z *Zstd) UncompressedSize(inPath string) (int64, error) {
	size, _, err := readFooter(inPath)
	return size, err
}

// zstdLevel maps the 0-9 compression level range onto klauspost's coarser
// speed/ratio presets.
func zstdLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 5:
		return zstd.SpeedDefault
	case level <= 8:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}
