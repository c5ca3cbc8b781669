// Package crypto seals secrets persisted at rest: Spotify refresh tokens
// and user-supplied AI provider API keys.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// Scrypt parameters for deriving the sealing key from the app secret.
// N=16384 (2^14), r=8, p=1 are recommended for interactive use.
const (
	scryptN = 16384
	scryptR = 8
	scryptP = 1

	keyLen    = 32
	nonceLen  = 24
	kdfDomain = "geraai-secretbox-v1"
)

var errCiphertextInvalid = errors.New("crypto: ciphertext invalid")

// Sealer encrypts and decrypts short secrets with a key derived from the
// application secret. Construct once at startup and share.
type Sealer struct {
	key [keyLen]byte
}

// NewSealer derives the sealing key from the given app secret.
func NewSealer(appSecret string) (*Sealer, error) {
	dk, err := scrypt.Key([]byte(appSecret), []byte(kdfDomain), scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("crypto: key derivation failed: %w", err)
	}
	s := &Sealer{}
	copy(s.key[:], dk)
	return s, nil
}

// Seal encrypts plaintext and returns a base64 string with the nonce prepended.
// Empty input seals to the empty string so optional columns stay empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("crypto: nonce generation failed: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Empty input opens to the empty string.
func (s *Sealer) Open(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errCiphertextInvalid
	}
	if len(raw) < nonceLen {
		return "", errCiphertextInvalid
	}

	var nonce [nonceLen]byte
	copy(nonce[:], raw[:nonceLen])

	plaintext, ok := secretbox.Open(nil, raw[nonceLen:], &nonce, &s.key)
	if !ok {
		return "", errCiphertextInvalid
	}
	return string(plaintext), nil
}
