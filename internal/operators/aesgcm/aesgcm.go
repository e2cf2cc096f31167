// Package aesgcm provides an in-process Encrypt/Decrypt test double for
// exercising the Encryption Adapter and Integrity Verifier without a gpg
// binary or keyring available. No library in the retrieval pack binds a
// multi-recipient OpenPGP implementation, so this one piece is built on
// crypto/aes and crypto/cipher rather than a pack dependency; see
// DESIGN.md for why.
//
// Recipients are not real public-key identities: each recipient string is
// treated as a passphrase, scrypt-derived into a per-recipient AES-256 key,
// and each recipient gets its own copy of a random per-file content key
// wrapped under their derived key — a minimal multi-recipient envelope, not
// a production KMS.
package aesgcm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/scrypt"
)

const (
	keySize   = 32
	saltSize  = 16
	nonceSize = 12
)

// Codec implements operators.Encrypt and operators.Decrypt entirely
// in-process.
type Codec struct{}

type wrappedKey struct {
	salt  [saltSize]byte
	nonce [nonceSize]byte
	ct    []byte // contentKey encrypted under the recipient-derived key
}

// EncryptFile wraps a fresh random content key for each recipient and uses
// it to seal inPath's contents with AES-256-GCM.
func (Codec) EncryptFile(inPath, outPath string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("aesgcm encrypt %s: no recipients supplied", inPath)
	}

	contentKey := make([]byte, keySize)
	if _, err := rand.Read(contentKey); err != nil {
		return fmt.Errorf("aesgcm encrypt %s: generating content key: %w", inPath, err)
	}

	wrapped := make([]wrappedKey, len(recipients))
	for i, recipient := range recipients {
		var salt [saltSize]byte
		if _, err := rand.Read(salt[:]); err != nil {
			return fmt.Errorf("aesgcm encrypt %s: generating salt: %w", inPath, err)
		}
		recipientKey, err := deriveKey(recipient, salt[:])
		if err != nil {
			return fmt.Errorf("aesgcm encrypt %s: deriving key for recipient %d: %w", inPath, i, err)
		}
		gcm, err := newGCM(recipientKey)
		if err != nil {
			return err
		}
		var nonce [nonceSize]byte
		if _, err := rand.Read(nonce[:]); err != nil {
			return fmt.Errorf("aesgcm encrypt %s: generating nonce: %w", inPath, err)
		}
		ct := gcm.Seal(nil, nonce[:], contentKey, nil)
		wrapped[i] = wrappedKey{salt: salt, nonce: nonce, ct: ct}
	}

	plaintext, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("aesgcm encrypt %s: %w", inPath, err)
	}
	defer plaintext.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("aesgcm encrypt %s: creating %s: %w", inPath, outPath, err)
	}
	defer out.Close()

	if err := writeHeader(out, wrapped); err != nil {
		return fmt.Errorf("aesgcm encrypt %s: writing header: %w", inPath, err)
	}

	contentGCM, err := newGCM(contentKey)
	if err != nil {
		return err
	}
	var fileNonce [nonceSize]byte
	if _, err := rand.Read(fileNonce[:]); err != nil {
		return fmt.Errorf("aesgcm encrypt %s: generating file nonce: %w", inPath, err)
	}
	data, err := io.ReadAll(plaintext)
	if err != nil {
		return fmt.Errorf("aesgcm encrypt %s: reading input: %w", inPath, err)
	}
	sealed := contentGCM.Seal(nil, fileNonce[:], data, nil)

	if _, err := out.Write(fileNonce[:]); err != nil {
		return fmt.Errorf("aesgcm encrypt %s: writing nonce: %w", inPath, err)
	}
	if _, err := out.Write(sealed); err != nil {
		return fmt.Errorf("aesgcm encrypt %s: writing ciphertext: %w", inPath, err)
	}

	return nil
}

// DecryptFile tries recipient to unwrap the content key against every
// envelope entry until one succeeds, then decrypts the payload. recipient
// stands in for the ambient ("ambient keyring") passphrase a real
// implementation would hold.
func (Codec) DecryptFile(inPath, outPath string) error {
	recipient := os.Getenv("ARCHIVESET_AESGCM_PASSPHRASE")
	if recipient == "" {
		return fmt.Errorf("aesgcm decrypt %s: ARCHIVESET_AESGCM_PASSPHRASE not set", inPath)
	}

	f, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("aesgcm decrypt %s: %w", inPath, err)
	}
	defer f.Close()

	wrapped, err := readHeader(f)
	if err != nil {
		return fmt.Errorf("aesgcm decrypt %s: reading header: %w", inPath, err)
	}

	var contentKey []byte
	for _, w := range wrapped {
		key, err := deriveKey(recipient, w.salt[:])
		if err != nil {
			continue
		}
		gcm, err := newGCM(key)
		if err != nil {
			continue
		}
		if pt, err := gcm.Open(nil, w.nonce[:], w.ct, nil); err == nil {
			contentKey = pt
			break
		}
	}
	if contentKey == nil {
		return fmt.Errorf("aesgcm decrypt %s: no envelope entry unwraps under the supplied passphrase", inPath)
	}

	var fileNonce [nonceSize]byte
	if _, err := io.ReadFull(f, fileNonce[:]); err != nil {
		return fmt.Errorf("aesgcm decrypt %s: reading file nonce: %w", inPath, err)
	}
	ciphertext, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("aesgcm decrypt %s: reading ciphertext: %w", inPath, err)
	}

	gcm, err := newGCM(contentKey)
	if err != nil {
		return err
	}
	plaintext, err := gcm.Open(nil, fileNonce[:], ciphertext, nil)
	if err != nil {
		return fmt.Errorf("aesgcm decrypt %s: authentication failed: %w", inPath, err)
	}

	if err := os.WriteFile(outPath, plaintext, 0o644); err != nil {
		return fmt.Errorf("aesgcm decrypt %s: writing %s: %w", inPath, outPath, err)
	}
	return nil
}

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, keySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("constructing AES cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// writeHeader writes a recipient count followed by each wrapped key's
// salt, nonce, ciphertext length, and ciphertext.
func writeHeader(w io.Writer, wrapped []wrappedKey) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(wrapped))); err != nil {
		return err
	}
	for _, wk := range wrapped {
		if _, err := w.Write(wk.salt[:]); err != nil {
			return err
		}
		if _, err := w.Write(wk.nonce[:]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(len(wk.ct))); err != nil {
			return err
		}
		if _, err := w.Write(wk.ct); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(r io.Reader) ([]wrappedKey, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	wrapped := make([]wrappedKey, count)
	for i := range wrapped {
		if _, err := io.ReadFull(r, wrapped[i].salt[:]); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(r, wrapped[i].nonce[:]); err != nil {
			return nil, err
		}
		var ctLen uint32
		if err := binary.Read(r, binary.BigEndian, &ctLen); err != nil {
			return nil, err
		}
		wrapped[i].ct = make([]byte, ctLen)
		if _, err := io.ReadFull(r, wrapped[i].ct); err != nil {
			return nil, err
		}
	}
	return wrapped, nil
}
