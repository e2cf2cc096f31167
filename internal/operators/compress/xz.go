package compress

import (
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

func init() {
	Register(&XZ{})
}

// XZ is an in-process Compress codec built on ulikunitz/xz, grounded in
// nabbar-golib's and quay-claircore's direct dependencies on the module.
type XZ struct{}

func (x *XZ) Name() string { return "xz" }

func (x *XZ) Encode(inPath string, level int, threads int) (string, error) {
	outPath := inPath + ".lz"
	_, err := writeWithFooter(inPath, outPath, func(w io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(w)
	})
	if err != nil {
		return "", fmt.Errorf("xz encode %s: %w", inPath, err)
	}
	if err := os.Remove(inPath); err != nil {
		return "", fmt.Errorf("xz encode %s: removing input: %w", inPath, err)
	}
	return outPath, nil
}

func (x *XZ) DecodeStream(inPath string, w io.Writer) error {
	return decodeStream(inPath, func(r io.Reader) (io.Reader, error) {
		return xz.NewReader(r)
	})(w)
}

func (x *XZ) UncompressedSize(inPath string) (int64, error) {
	size, _, err := readFooter(inPath)
	return size, err
}
