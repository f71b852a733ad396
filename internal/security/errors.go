package security

// CryptoError reports a failure in key derivation, encryption, decryption,
// or password hashing. Decrypting with the wrong password produces a
// CryptoError just like a tampered blob does; only the calling context can
// tell the two apart.
type CryptoError struct {
	Msg string
	Err error
}

func (e *CryptoError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}
