package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/provide-io/archiveset/internal/pathutil"
)

// writeFilesFromList builds a tar --files-from file in a scratch directory
// scoped to this call, containing each of paths made relative to workdir,
// one per line. The returned cleanup func removes the scratch directory on
// every exit path, successful or not, per the design note in spec §9.
func writeFilesFromList(workdir string, paths []string) (string, func(), error) {
	scratchDir, err := os.MkdirTemp("", "archiveset-filesfrom-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(scratchDir) }

	var sb strings.Builder
	for _, p := range paths {
		rel, err := filepath.Rel(workdir, p)
		if err != nil {
			cleanup()
			return "", nil, fmt.Errorf("relativizing %s against %s: %w", p, workdir, err)
		}
		sb.WriteString(pathutil.SanitizeRelPath(filepath.ToSlash(rel)))
		sb.WriteByte('\n')
	}

	listPath := filepath.Join(scratchDir, "files-from.txt")
	if err := os.WriteFile(listPath, []byte(sb.String()), 0o644); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("writing files-from list: %w", err)
	}

	return listPath, cleanup, nil
}
