package subprocess

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
)

// GPG shells out to the "gpg" binary for multi-recipient public-key
// encryption and ambient-keyring decryption, matching §6's Encrypt/Decrypt
// operator contract.
type GPG struct {
	Logger hclog.Logger
	Binary string // defaults to "gpg"
}

func (g *GPG) binary() string {
	if g.Binary == "" {
		return "gpg"
	}
	return g.Binary
}

// EncryptFile encrypts inPath for every recipient key ID, writing outPath.
func (g *GPG) EncryptFile(inPath, outPath string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("gpg encrypt %s: no recipients supplied", inPath)
	}
	args := []string{"--batch", "--yes", "--output", outPath, "--encrypt"}
	for _, r := range recipients {
		args = append(args, "--recipient", r)
	}
	args = append(args, inPath)

	if _, err := run(g.Logger, g.binary(), args...); err != nil {
		return fmt.Errorf("gpg encrypt %s: %w", inPath, err)
	}
	if _, statErr := os.Stat(outPath); statErr != nil {
		return fmt.Errorf("gpg encrypt %s: output %s was not produced: %w", inPath, outPath, statErr)
	}
	return nil
}

// DecryptFile decrypts inPath using the ambient keyring, writing outPath.
func (g *GPG) DecryptFile(inPath, outPath string) error {
	args := []string{"--batch", "--yes", "--output", outPath, "--decrypt", inPath}
	if _, err := run(g.Logger, g.binary(), args...); err != nil {
		return fmt.Errorf("gpg decrypt %s: %w", inPath, err)
	}
	return nil
}
