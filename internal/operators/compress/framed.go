package compress

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// footerSize is the width of the trailing uncompressed-size footer every
// in-process codec appends to its compressed output, so UncompressedSize
// can answer capacity prechecks without decompressing the whole stream.
const footerSize = 8

// writeWithFooter compresses src's bytes through encode (a codec-specific
// streaming writer factory) into a new file at dstPath, appending the
// uncompressed size as a trailing 8-byte big-endian footer. It leaves src in
// place; each in-process Compress.Encode removes it afterwards. This is the
// common shape of every in-process Compress.Encode.
func writeWithFooter(srcPath, dstPath string, newEncoder func(w io.Writer) (io.WriteCloser, error)) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", srcPath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, fmt.Errorf("stating %s: %w", srcPath, err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", dstPath, err)
	}
	defer dst.Close()

	bw := bufio.NewWriter(dst)
	enc, err := newEncoder(bw)
	if err != nil {
		return 0, fmt.Errorf("initializing encoder for %s: %w", dstPath, err)
	}

	if _, err := io.Copy(enc, src); err != nil {
		return 0, fmt.Errorf("compressing %s: %w", srcPath, err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("closing encoder for %s: %w", dstPath, err)
	}

	var footer [footerSize]byte
	binary.BigEndian.PutUint64(footer[:], uint64(info.Size()))
	if _, err := bw.Write(footer[:]); err != nil {
		return 0, fmt.Errorf("writing size footer to %s: %w", dstPath, err)
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flushing %s: %w", dstPath, err)
	}

	return info.Size(), nil
}

// readFooter returns the uncompressed size recorded in path's trailing
// footer and the byte offset at which the compressed payload ends.
func readFooter(path string) (size int64, payloadEnd int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("stating %s: %w", path, err)
	}
	if info.Size() < footerSize {
		return 0, 0, fmt.Errorf("%s is too small to contain a size footer", path)
	}

	footer := make([]byte, footerSize)
	if _, err := f.ReadAt(footer, info.Size()-footerSize); err != nil {
		return 0, 0, fmt.Errorf("reading size footer from %s: %w", path, err)
	}

	return int64(binary.BigEndian.Uint64(footer)), info.Size() - footerSize, nil
}

// decodeStream decompresses the framed payload in path (everything up to
// the size footer) through newDecoder, streaming into w.
func decodeStream(path string, newDecoder func(r io.Reader) (io.Reader, error)) func(w io.Writer) error {
	return func(w io.Writer) error {
		_, payloadEnd, err := readFooter(path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()

		dec, err := newDecoder(io.LimitReader(f, payloadEnd))
		if err != nil {
			return fmt.Errorf("initializing decoder for %s: %w", path, err)
		}
		if _, err := io.Copy(w, dec); err != nil {
			return fmt.Errorf("decompressing %s: %w", path, err)
		}
		return nil
	}
}
