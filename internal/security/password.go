package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// HashPassword derives a one-way hash of password with a fresh random salt.
// The result is base64(salt || hash) and is safe to persist.
func (c *Cipher) HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", &CryptoError{Msg: "failed to generate salt", Err: err}
	}

	hash := pbkdf2.Key([]byte(password), salt, c.iterations, keyLength, sha256.New)

	combined := make([]byte, 0, saltLength+keyLength)
	combined = append(combined, salt...)
	combined = append(combined, hash...)

	return base64.StdEncoding.EncodeToString(combined), nil
}

// VerifyPassword re-derives the hash with the stored salt and compares in
// constant time. A non-matching password returns (false, nil); only a blob
// too short to parse produces an error.
func (c *Cipher) VerifyPassword(password, encoded string) (bool, error) {
	combined, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, &CryptoError{Msg: "malformed password hash", Err: err}
	}
	if len(combined) <= saltLength {
		return false, &CryptoError{Msg: fmt.Sprintf("password hash too short: %d bytes", len(combined))}
	}

	salt := combined[:saltLength]
	storedHash := combined[saltLength:]

	hash := pbkdf2.Key([]byte(password), salt, c.iterations, len(storedHash), sha256.New)

	return subtle.ConstantTimeCompare(hash, storedHash) == 1, nil
}
