package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provide-io/archiveset/internal/archiver"
)

var (
	archiveThreads     int
	archiveCompression int
	archiveSplitBytes  int64
	archiveEncryptKeys []string
	archiveRemoveUnenc bool
	archiveForce       bool
	archiveCodec       string
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <source> <archive_dir>",
		Short: "Archive a source directory into a space-bounded archive set",
		Args:  cobra.ExactArgs(2),
		RunE:  runArchive,
	}
	cmd.Flags().IntVarP(&archiveThreads, "threads", "n", 1, "worker threads for hashing and operators")
	cmd.Flags().IntVarP(&archiveCompression, "compression", "c", 6, "compression level 0-9")
	cmd.Flags().Int64Var(&archiveSplitBytes, "split", 0, "maximum bytes per part (0 disables splitting)")
	cmd.Flags().StringArrayVar(&archiveEncryptKeys, "encrypt", nil, "recipient key id; repeat for multiple recipients")
	cmd.Flags().BoolVar(&archiveRemoveUnenc, "remove-unencrypted", false, "delete unencrypted artifacts once encrypted copies exist")
	cmd.Flags().BoolVar(&archiveForce, "force", false, "overwrite an existing archive directory")
	cmd.Flags().StringVar(&archiveCodec, "codec", "lzip", "compression codec: lzip, bzip2, zstd, lz4, xz")
	return cmd
}

func runArchive(cmd *cobra.Command, args []string) error {
	source, destDir := args[0], args[1]
	logger := newLogger()

	codec, err := newCompress(archiveCodec)
	if err != nil {
		return withExitCode(1, err)
	}

	a := &archiver.Archiver{
		Tar:      newTar(logger),
		Compress: codec,
		Encrypt:  newEncrypt(logger),
		Logger:   logger,
	}

	opts := archiver.Options{
		MaxPartBytes:      archiveSplitBytes,
		Threads:           archiveThreads,
		CompressionLevel:  archiveCompression,
		EncryptRecipients: archiveEncryptKeys,
		RemoveUnencrypted: archiveRemoveUnenc,
		Force:             archiveForce,
	}

	results, err := a.Archive(context.Background(), source, destDir, opts)
	if err != nil {
		return withExitCode(1, err)
	}

	fmt.Printf("Archive created: %s (%d part(s))\n", destDir, len(results))
	return nil
}
