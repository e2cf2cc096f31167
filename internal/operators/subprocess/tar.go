package subprocess

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// Tar shells out to the system "tar" binary, matching
// original_source/archiver/archiver.py's create_tar_archive/
// create_archive_listing and archiver/extract.py's extraction calls.
type Tar struct {
	Logger hclog.Logger
	Binary string // defaults to "tar"
}

func (t *Tar) binary() string {
	if t.Binary == "" {
		return "tar"
	}
	return t.Binary
}

// Create builds outTar from either an explicit entries list or a
// --files-from file, with working directory workdir so tar entries are
// named relative to it (producing "N/..." entries per §3).
func (t *Tar) Create(outTar, workdir string, entries []string, filesFrom string, threads int) error {
	args := []string{"-cf", outTar, "-C", workdir}
	if filesFrom != "" {
		args = append(args, "--files-from", filesFrom)
	} else {
		args = append(args, entries...)
	}
	_, err := run(t.Logger, t.binary(), args...)
	if err != nil {
		return fmt.Errorf("tar create %s: %w", outTar, err)
	}
	return nil
}

// List returns a verbose listing ("tar -tvf"), optionally filtered to a
// single inner path.
func (t *Tar) List(tarPath string, innerPath string) (string, error) {
	args := []string{"-tvf", tarPath}
	if innerPath != "" {
		args = append(args, innerPath)
	}
	out, err := run(t.Logger, t.binary(), args...)
	if err != nil {
		return "", fmt.Errorf("tar list %s: %w", tarPath, err)
	}
	return out, nil
}

// Extract unpacks tarPath into dest, optionally restricted to a single
// inner path (best-effort: the caller handles the case where the path
// isn't present in this part).
func (t *Tar) Extract(tarPath, dest, innerPath string, threads int) error {
	args := []string{"-xf", tarPath, "-C", dest}
	if innerPath != "" {
		args = append(args, innerPath)
	}
	_, err := run(t.Logger, t.binary(), args...)
	if err != nil {
		return fmt.Errorf("tar extract %s: %w", tarPath, err)
	}
	return nil
}
