package compress

import (
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

func init() {
	Register(&LZ4{})
}

// LZ4 is an in-process Compress codec built on pierrec/lz4/v4, grounded in
// nabbar-golib's and quay-claircore's pack of real compression
// dependencies.
type LZ4 struct{}

func (l *LZ4) Name() string { return "lz4" }

func (l *LZ4) Encode(inPath string, level int, threads int) (string, error) {
	outPath := inPath + ".lz"
	_, err := writeWithFooter(inPath, outPath, func(w io.Writer) (io.WriteCloser, error) {
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4Level(level))); err != nil {
			return nil, err
		}
		return zw, nil
	})
	if err != nil {
		return "", fmt.Errorf("lz4 encode %s: %w", inPath, err)
	}
	if err := os.Remove(inPath); err != nil {
		return "", fmt.Errorf("lz4 encode %s: removing input: %w", inPath, err)
	}
	return outPath, nil
}

func (l *LZ4) DecodeStream(inPath string, w io.Writer) error {
	return decodeStream(inPath, func(r io.Reader) (io.Reader, error) {
		return lz4.NewReader(r), nil
	})(w)
}

func (l *LZ4) UncompressedSize(inPath string) (int64, error) {
	size, _, err := readFooter(inPath)
	return size, err
}

// lz4Level maps the 0-9 compression level range onto lz4's named levels.
func lz4Level(level int) lz4.CompressionLevel {
	switch {
	case level <= 0:
		return lz4.Fast
	case level >= 9:
		return lz4.Level9
	default:
		levels := [...]lz4.CompressionLevel{lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8}
		return levels[level-1]
	}
}
