package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength   = 32 // AES-256
	saltLength  = 16
	nonceLength = 12

	// DefaultIterations is the PBKDF2 iteration count used in production.
	// Do not lower this below the NIST-recommended floor for
	// PBKDF2-HMAC-SHA256.
	DefaultIterations = 480000
)

// Params configures a Cipher. A zero Iterations value falls back to
// DefaultIterations; tests may pass a lower count to keep the KDF fast.
type Params struct {
	Iterations int
}

// Cipher protects family secrets with password-derived keys. It holds no
// mutable state and is safe for concurrent use.
type Cipher struct {
	iterations int
}

// New creates a Cipher with the given parameters.
func New(params Params) *Cipher {
	iterations := params.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Cipher{iterations: iterations}
}

// DeriveKey stretches a password into a 32-byte key using PBKDF2-HMAC-SHA256.
// If salt is nil a fresh random salt is generated. The returned salt is the
// one actually used, so callers can persist it alongside the ciphertext.
func (c *Cipher) DeriveKey(password string, salt []byte) (key, usedSalt []byte, err error) {
	if salt == nil {
		salt = make([]byte, saltLength)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, &CryptoError{Msg: "failed to generate salt", Err: err}
		}
	}
	key = pbkdf2.Key([]byte(password), salt, c.iterations, keyLength, sha256.New)
	return key, salt, nil
}

// Encrypt seals secret under a key derived from password using AES-256-GCM.
// A fresh salt and nonce are generated on every call; reusing a (key, nonce)
// pair would break GCM confidentiality entirely. The result is
// base64(salt || nonce || ciphertext+tag).
func (c *Cipher) Encrypt(secret, password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", &CryptoError{Msg: "failed to generate salt", Err: err}
	}

	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", &CryptoError{Msg: "failed to generate nonce", Err: err}
	}

	key, _, err := c.DeriveKey(password, salt)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(secret), nil)

	blob := make([]byte, 0, saltLength+nonceLength+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. A wrong password surfaces as a CryptoError with
// an "authentication failed" message (the GCM tag does not verify); this is
// the expected failure path and callers must not treat it as corruption.
func (c *Cipher) Decrypt(encoded, password string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", &CryptoError{Msg: "malformed encrypted blob", Err: err}
	}
	if len(blob) < saltLength+nonceLength+1 {
		return "", &CryptoError{Msg: fmt.Sprintf("encrypted blob too short: %d bytes", len(blob))}
	}

	salt := blob[:saltLength]
	nonce := blob[saltLength : saltLength+nonceLength]
	ciphertext := blob[saltLength+nonceLength:]

	key, _, err := c.DeriveKey(password, salt)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", &CryptoError{Msg: "authentication failed", Err: err}
	}

	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &CryptoError{Msg: "failed to create cipher", Err: err}
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, &CryptoError{Msg: "failed to create GCM", Err: err}
	}
	return gcm, nil
}
