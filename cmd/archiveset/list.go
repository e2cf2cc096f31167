package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provide-io/archiveset/internal/listingreader"
)

var listDeep bool

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <archive_dir> [subpath]",
		Short: "List the contents recorded in an archive set",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runList,
	}
	cmd.Flags().BoolVarP(&listDeep, "deep", "d", false, "re-read the compressed tars instead of trusting the .tar.lst sidecars")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	source := args[0]
	var filter string
	if len(args) == 2 {
		filter = args[1]
	}

	var listings []listingreader.Listing
	var err error
	if listDeep {
		logger := newLogger()
		listings, err = listingreader.Deep(newTar(logger), source, filter)
	} else {
		listings, err = listingreader.Cheap(source, filter)
	}
	if err != nil {
		return withExitCode(1, err)
	}

	for _, l := range listings {
		fmt.Println(l.Entries)
	}
	return nil
}
