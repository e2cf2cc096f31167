package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provide-io/archiveset/internal/extractor"
)

var (
	extractSubpath string
	extractThreads int
	extractForce   bool
	extractAtDest  bool
	extractCodec   string
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <archive_dir> <destination>",
		Short: "Extract an archive set into a directory",
		Args:  cobra.ExactArgs(2),
		RunE:  runExtract,
	}
	cmd.Flags().StringVarP(&extractSubpath, "subpath", "s", "", "extract only entries under this inner path (best-effort)")
	cmd.Flags().IntVarP(&extractThreads, "threads", "n", 1, "worker threads for operators")
	cmd.Flags().BoolVar(&extractForce, "force", false, "overwrite an existing destination")
	cmd.Flags().BoolVar(&extractAtDest, "extract-at-destination", false, "decrypt directly into the destination instead of a scratch directory")
	cmd.Flags().StringVar(&extractCodec, "codec", "lzip", "compression codec the archive was written with")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	source, dest := args[0], args[1]
	logger := newLogger()

	codec, err := newCompress(extractCodec)
	if err != nil {
		return withExitCode(1, err)
	}

	e := &extractor.Extractor{
		Tar:      newTar(logger),
		Compress: codec,
		Decrypt:  newDecrypt(logger),
		Logger:   logger,
	}

	opts := extractor.Options{
		Partial:              extractSubpath,
		Threads:              extractThreads,
		Force:                extractForce,
		ExtractAtDestination: extractAtDest,
	}

	if err := e.Extract(source, dest, opts); err != nil {
		return withExitCode(1, err)
	}

	fmt.Printf("Extracted to: %s\n", dest)
	return nil
}
