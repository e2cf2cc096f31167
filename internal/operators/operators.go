// Package operators defines the abstraction seam the archive lifecycle
// engine uses for the four external collaborators described in spec §6:
// Tar, Compress, Encrypt, and Decrypt. Default implementations shell out to
// real tools (package subprocess); the Compress seam additionally supports
// in-process codecs (package compress) so the pipeline can be exercised
// without any external binaries, per the design note in spec §9.
package operators

import "io"

// Tar is the archive-bundling operator.
type Tar interface {
	// Create builds outTar with working directory workdir. If filesFrom is
	// non-empty it names a file containing one relative path per line
	// (tar's --files-from); otherwise entries lists positional arguments
	// relative to workdir.
	Create(outTar, workdir string, entries []string, filesFrom string, threads int) error

	// List returns a verbose listing of tarPath (which may be compressed;
	// implementations detect that from the extension), optionally filtered
	// to entries matching innerPath.
	List(tarPath string, innerPath string) (string, error)

	// Extract unpacks tarPath into dest, optionally restricted to
	// innerPath.
	Extract(tarPath, dest, innerPath string, threads int) error
}

// Compress is the compression operator. Implementations replace inTar with
// inTar+".lz" (whatever the codec) and remove the input, matching the
// external compressor contract in spec §6.
type Compress interface {
	// Name is the codec's registry key ("lzip", "bzip2", "zstd", ...).
	Name() string

	// Encode compresses inPath at the given level (0-9) and returns the
	// path to the compressed output; inPath is removed on success.
	Encode(inPath string, level int, threads int) (string, error)

	// DecodeStream decompresses inPath and streams the uncompressed bytes
	// to w.
	DecodeStream(inPath string, w io.Writer) error

	// UncompressedSize reports the size, in bytes, inPath will expand to,
	// without fully materializing it, for use in capacity prechecks.
	UncompressedSize(inPath string) (int64, error)
}

// Encrypt is the multi-recipient encryption operator.
type Encrypt interface {
	EncryptFile(inPath, outPath string, recipients []string) error
}

// Decrypt is the symmetric decryption operator, consulting an ambient
// keyring rather than taking explicit key material.
type Decrypt interface {
	DecryptFile(inPath, outPath string) error
}
