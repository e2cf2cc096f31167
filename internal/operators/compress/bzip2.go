package compress

import (
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
)

func init() {
	Register(&Bzip2{})
}

// Bzip2 is an in-process Compress codec built on dsnet/compress/bzip2,
// promoted from an indirect dependency to a direct, exercised one.
// Selectable via "archive --codec bzip2" and usable without any external
// compressor binary installed.
type Bzip2 struct{}

func (b *Bzip2) Name() string { return "bzip2" }

func (b *Bzip2) Encode(inPath string, level int, threads int) (string, error) {
	if level < 1 || level > 9 {
		level = 6
	}
	outPath := inPath + ".lz"
	_, err := writeWithFooter(inPath, outPath, func(w io.Writer) (io.WriteCloser, error) {
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: level})
	})
	if err != nil {
		return "", fmt.Errorf("bzip2 encode %s: %w", inPath, err)
	}
	if err := os.Remove(inPath); err != nil {
		return "", fmt.Errorf("bzip2 encode %s: removing input: %w", inPath, err)
	}
	return outPath, nil
}

func (b *Bzip2) DecodeStream(inPath string, w io.Writer) error {
	return decodeStream(inPath, func(r io.Reader) (io.Reader, error) {
		return bzip2.NewReader(r, nil)
	})(w)
}

func (b *Bzip2) UncompressedSize(inPath string) (int64, error) {
	size, _, err := readFooter(inPath)
	return size, err
}
