package subprocess

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/archiveset/internal/operators/compress"
)

func init() {
	compress.Register(&Lzip{})
}

// Lzip shells out to "plzip" (falling back to "lzip"), matching
// original_source/archiver/archiver.py's compress_using_lzip. This is the
// default, production Compress implementation named "lzip" in the codec
// registry.
type Lzip struct {
	Logger hclog.Logger
	Binary string // defaults to "plzip"
}

func (l *Lzip) binary() string {
	if l.Binary == "" {
		return "plzip"
	}
	return l.Binary
}

func (l *Lzip) Name() string { return "lzip" }

// Encode compresses inPath in place: plzip replaces <in> with <in>.lz.
func (l *Lzip) Encode(inPath string, level int, threads int) (string, error) {
	if level < 0 || level > 9 {
		level = 6
	}
	args := []string{fmt.Sprintf("-%d", level)}
	if threads > 0 {
		args = append(args, "-n", strconv.Itoa(threads))
	}
	args = append(args, inPath)

	if _, err := run(l.Logger, l.binary(), args...); err != nil {
		return "", fmt.Errorf("lzip encode %s: %w", inPath, err)
	}
	outPath := inPath + ".lz"
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("lzip encode %s: output %s was not produced: %w", inPath, outPath, err)
	}
	return outPath, nil
}

// DecodeStream decompresses inPath to w via "plzip -d -c".
func (l *Lzip) DecodeStream(inPath string, w io.Writer) error {
	cmd := exec.Command(l.binary(), "-d", "-c", inPath)
	cmd.Stdout = w
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("lzip decode %s: %w: %s", inPath, err, stderr.String())
	}
	return nil
}

// UncompressedSize queries "plzip -l" (list mode) for the decompressed
// size, used by capacity prechecks without materializing the tar.
func (l *Lzip) UncompressedSize(inPath string) (int64, error) {
	out, err := run(l.Logger, l.binary(), "-l", inPath)
	if err != nil {
		return 0, fmt.Errorf("lzip size %s: %w", inPath, err)
	}
	return parseLzipListing(out)
}

// parseLzipListing extracts the "out-size" column from plzip -l's output,
// whose header row looks like:
//
//	  version  CRC      dict  comp-size  out-size  saved  file
func parseLzipListing(out string) (int64, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")

	outSizeCol := -1
	for _, line := range lines {
		fields := strings.Fields(line)
		if outSizeCol < 0 {
			for i, f := range fields {
				if strings.EqualFold(f, "out-size") {
					outSizeCol = i
					break
				}
			}
			continue
		}
		if outSizeCol < len(fields) {
			if n, err := strconv.ParseInt(fields[outSizeCol], 10, 64); err == nil {
				return n, nil
			}
		}
	}
	return 0, fmt.Errorf("could not parse plzip -l output: %q", out)
}
