package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/provide-io/archiveset/internal/verifier"
)

var (
	checkDeep  bool
	checkCodec string
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <archive_dir>",
		Short: "Verify an archive set's integrity",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().BoolVar(&checkDeep, "deep", false, "also re-extract and verify file content, not just signatures")
	cmd.Flags().StringVar(&checkCodec, "codec", "lzip", "compression codec the archive was written with")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	source := args[0]
	logger := newLogger()

	codec, err := newCompress(checkCodec)
	if err != nil {
		return withExitCode(1, err)
	}

	v := &verifier.Verifier{
		Tar:      newTar(logger),
		Compress: codec,
		Decrypt:  newDecrypt(logger),
		Logger:   logger,
	}

	fmt.Println("Starting integrity check...")
	result := v.Check(source, checkDeep)

	switch result.Status {
	case verifier.Ok:
		fmt.Println("Integrity check successful")
		return nil
	case verifier.ShallowFailed:
		fmt.Printf("Signature of file %s has changed.\n", filepath.Base(result.FailedPart))
		fmt.Println("Integrity check unsuccessful...")
		return withExitCode(3, fmt.Errorf("shallow check failed for %s", result.FailedPart))
	case verifier.DeepFailed:
		for _, rel := range result.MissingRelPaths {
			fmt.Printf("Signature of %s has changed.\n", rel)
		}
		fmt.Println("Integrity check unsuccessful...")
		return withExitCode(3, fmt.Errorf("deep check found %d changed file(s)", len(result.MissingRelPaths)))
	default:
		fmt.Println("Integrity check unsuccessful...")
		return withExitCode(1, result.SetupErr)
	}
}
