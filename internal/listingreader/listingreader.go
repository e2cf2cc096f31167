// Package listingreader implements the list operation described in spec
// §4.7: either trust the .tar.lst sidecars written during archiving (cheap
// mode), or re-run the Tar operator's list mode against the compressed
// parts directly (deep mode, the source of truth).
package listingreader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/provide-io/archiveset/internal/archiveerr"
	"github.com/provide-io/archiveset/internal/operators"
)

// Listing enumerates a single part's entries, as either mode produces them.
type Listing struct {
	Part    string
	Entries string // raw listing text for this part, one entry per line
}

// Cheap reads the .tar.lst sidecar(s) for source, optionally filtering
// lines by whether filter appears as a substring.
func Cheap(source, filter string) ([]Listing, error) {
	lstFiles, err := discoverListings(source)
	if err != nil {
		return nil, err
	}

	out := make([]Listing, 0, len(lstFiles))
	for _, lst := range lstFiles {
		data, err := os.ReadFile(lst)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", archiveerr.ErrMissingSidecar, lst)
		}
		out = append(out, Listing{Part: lst, Entries: filterLines(string(data), filter)})
	}
	return out, nil
}

// Deep re-runs tar.List against each compressed part, bypassing the
// sidecar entirely.
func Deep(tar operators.Tar, source, filter string) ([]Listing, error) {
	parts, err := discoverParts(source)
	if err != nil {
		return nil, err
	}

	out := make([]Listing, 0, len(parts))
	for _, p := range parts {
		text, err := tar.List(p, filter)
		if err != nil {
			return nil, &archiveerr.OperatorFailure{Operator: "tar", Part: filepath.Base(p), Err: err}
		}
		out = append(out, Listing{Part: p, Entries: text})
	}
	return out, nil
}

func filterLines(text, filter string) string {
	if filter == "" {
		return text
	}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, filter) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func discoverListings(source string) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", archiveerr.ErrSourceMissing, source)
	}
	if !info.IsDir() {
		return []string{strings.TrimSuffix(strings.TrimSuffix(source, ".gpg"), ".tar.lz") + ".tar.lst"}, nil
	}
	lsts, err := filepath.Glob(filepath.Join(source, "*.tar.lst"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", source, err)
	}
	sort.Strings(lsts)
	return lsts, nil
}

func discoverParts(source string) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", archiveerr.ErrSourceMissing, source)
	}
	if !info.IsDir() {
		return []string{source}, nil
	}

	gpgs, err := filepath.Glob(filepath.Join(source, "*.tar.lz.gpg"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", source, err)
	}
	if len(gpgs) > 0 {
		sort.Strings(gpgs)
		return gpgs, nil
	}

	plain, err := filepath.Glob(filepath.Join(source, "*.tar.lz"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", source, err)
	}
	sort.Strings(plain)
	return plain, nil
}
