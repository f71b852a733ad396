package security

import (
	"crypto/rand"
	"math/big"
)

// secretAlphabet avoids visually ambiguous characters (0/O, 1/l/i) so the
// secret can be read aloud or written down by family members.
const secretAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// secretLength of 10 over a 31-character alphabet gives just under 50 bits
// of entropy.
const secretLength = 10

// GenerateFamilySecret returns a short, human-shareable random secret. It is
// shown to the requesting admin exactly once; afterwards it only exists
// encrypted under the admin's password.
func GenerateFamilySecret() (string, error) {
	max := big.NewInt(int64(len(secretAlphabet)))
	buf := make([]byte, secretLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", &CryptoError{Msg: "failed to generate family secret", Err: err}
		}
		buf[i] = secretAlphabet[n.Int64()]
	}
	return string(buf), nil
}
