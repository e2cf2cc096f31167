// Package subprocess provides the default Tar/Encrypt/Decrypt operator
// implementations, each shelling out to a real system tool the way the
// teacher's launcher spawns child processes: start, wait, map a non-zero
// exit code to an error.
package subprocess

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"
)

// run executes cmd, capturing combined stdout/stderr for diagnostics on
// failure, and maps a non-zero exit to an error naming the command.
func run(logger hclog.Logger, name string, args ...string) (string, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	cmd := exec.Command(name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Debug("executing command", "path", name, "args", args)

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", name, err)
	}

	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			logger.Debug("process exited", "name", name, "code", exitErr.ExitCode(), "output", out.String())
			return out.String(), fmt.Errorf("%s exit code %d: %s", name, exitErr.ExitCode(), out.String())
		}
		return out.String(), fmt.Errorf("%s process error: %w", name, err)
	}

	logger.Debug("process completed", "name", name)
	return out.String(), nil
}
