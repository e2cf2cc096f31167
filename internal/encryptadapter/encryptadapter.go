// Package encryptadapter implements the encrypt_existing_archive /
// decrypt_existing_archive operation described in spec §4.4: bulk,
// all-or-nothing encryption or decryption of an already-produced archive
// directory (or a single .tar.lz file).
package encryptadapter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/archiveset/internal/archiveerr"
	"github.com/provide-io/archiveset/internal/hasher"
	"github.com/provide-io/archiveset/internal/operators"
	"github.com/provide-io/archiveset/internal/pathutil"
)

// Options configures an encrypt or decrypt run.
type Options struct {
	Destination       string // empty reroutes nowhere: operate in place
	RemoveUnencrypted bool
	Force             bool
}

// Adapter performs bulk encrypt/decrypt over an archive directory or file.
type Adapter struct {
	Encrypt operators.Encrypt
	Decrypt operators.Decrypt
	Logger  hclog.Logger
}

func (a *Adapter) logger() hclog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return hclog.NewNullLogger()
}

// EncryptExisting implements spec §4.4's encrypt_existing_archive. target
// may be a directory (encrypt every *.tar.lz within, all-or-nothing) or a
// single *.tar.lz file.
func (a *Adapter) EncryptExisting(target string, keys []string, opts Options) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("%w: %s", archiveerr.ErrSourceMissing, target)
	}

	outDir := opts.Destination
	if info.IsDir() {
		gpgs, err := filepath.Glob(filepath.Join(target, "*.tar.lz.gpg"))
		if err != nil {
			return fmt.Errorf("scanning %s for encrypted parts: %w", target, err)
		}
		if len(gpgs) > 0 {
			return fmt.Errorf("%w: %s", archiveerr.ErrAlreadyEncrypted, target)
		}

		compressed, err := filepath.Glob(filepath.Join(target, "*.tar.lz"))
		if err != nil {
			return fmt.Errorf("scanning %s for compressed parts: %w", target, err)
		}
		if len(compressed) == 0 {
			return fmt.Errorf("%w: %s", archiveerr.ErrNoCompressedArchives, target)
		}
		sort.Strings(compressed)

		if outDir == "" {
			outDir = target
		} else if err := pathutil.CreateDestination(outDir, opts.Force); err != nil {
			return err
		}

		for _, in := range compressed {
			if err := a.encryptOne(in, outDir, keys, opts); err != nil {
				return err
			}
		}
		return nil
	}

	if !strings.HasSuffix(target, ".tar.lz") {
		return fmt.Errorf("%w: %s is not a .tar.lz file", archiveerr.ErrWrongFileType, target)
	}
	if outDir == "" {
		outDir = filepath.Dir(target)
	} else if err := pathutil.CreateDestination(outDir, opts.Force); err != nil {
		return err
	}
	return a.encryptOne(target, outDir, keys, opts)
}

func (a *Adapter) encryptOne(in, outDir string, keys []string, opts Options) error {
	outPath := filepath.Join(outDir, filepath.Base(in)+".gpg")
	if err := a.Encrypt.EncryptFile(in, outPath, keys); err != nil {
		return &archiveerr.OperatorFailure{Operator: "encrypt", Part: filepath.Base(in), Err: err}
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("encrypting %s: output %s missing: %w", in, outPath, err)
	}
	if _, err := hasher.WriteSignatureDigest(outPath, outPath+".md5"); err != nil {
		return err
	}

	if opts.RemoveUnencrypted {
		if err := os.Remove(in); err != nil {
			return fmt.Errorf("removing unencrypted %s: %w", in, err)
		}
		sidecar := in + ".md5"
		if _, err := os.Stat(sidecar); err == nil {
			os.Remove(sidecar)
		}
	}

	a.logger().Debug("encrypted part", "input", in, "output", outPath)
	return nil
}

// DecryptExisting implements the symmetric operation described in spec
// §4.4: refuses a directory that already contains any .tar.lz (to avoid
// overwrite ambiguity), then decrypts every .tar.lz.gpg using the ambient
// keyring. With opts.RemoveUnencrypted set, each .tar.lz.gpg and its digest
// sidecar are removed once the decrypted .tar.lz and its digest exist.
func (a *Adapter) DecryptExisting(target string, opts Options) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("%w: %s", archiveerr.ErrSourceMissing, target)
	}

	outDir := opts.Destination

	if info.IsDir() {
		plain, err := filepath.Glob(filepath.Join(target, "*.tar.lz"))
		if err != nil {
			return fmt.Errorf("scanning %s for decrypted parts: %w", target, err)
		}
		if len(plain) > 0 {
			return fmt.Errorf("%w: %s", archiveerr.ErrAlreadyDecrypted, target)
		}

		encrypted, err := filepath.Glob(filepath.Join(target, "*.tar.lz.gpg"))
		if err != nil {
			return fmt.Errorf("scanning %s for encrypted parts: %w", target, err)
		}
		sort.Strings(encrypted)

		if outDir == "" {
			outDir = target
		} else if err := pathutil.CreateDestination(outDir, opts.Force); err != nil {
			return err
		}

		for _, in := range encrypted {
			if err := a.decryptOne(in, outDir, opts); err != nil {
				return err
			}
		}
		return nil
	}

	if !strings.HasSuffix(target, ".tar.lz.gpg") {
		return fmt.Errorf("%w: %s is not a .tar.lz.gpg file", archiveerr.ErrWrongFileType, target)
	}
	if outDir == "" {
		outDir = filepath.Dir(target)
	} else if err := pathutil.CreateDestination(outDir, opts.Force); err != nil {
		return err
	}
	return a.decryptOne(target, outDir, opts)
}

func (a *Adapter) decryptOne(in, outDir string, opts Options) error {
	base := strings.TrimSuffix(filepath.Base(in), ".gpg")
	outPath := filepath.Join(outDir, base)
	if err := a.Decrypt.DecryptFile(in, outPath); err != nil {
		return &archiveerr.OperatorFailure{Operator: "decrypt", Part: filepath.Base(in), Err: err}
	}
	if _, err := hasher.WriteSignatureDigest(outPath, outPath+".md5"); err != nil {
		return err
	}

	if opts.RemoveUnencrypted {
		if err := os.Remove(in); err != nil {
			return fmt.Errorf("removing encrypted %s: %w", in, err)
		}
		sidecar := in + ".md5"
		if _, err := os.Stat(sidecar); err == nil {
			os.Remove(sidecar)
		}
	}
	a.logger().Debug("decrypted part", "input", in, "output", outPath)
	return nil
}
