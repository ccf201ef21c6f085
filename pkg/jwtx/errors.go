package jwtx

import "errors"

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrKind        = errors.New("jwtx: unexpected token kind")

	// ErrDecryptFailed covers every failure on the encrypted-token path after
	// structural parsing: key unwrap, nonce, tag, payload. Callers must not
	// surface which step failed.
	ErrDecryptFailed = errors.New("jwtx: decryption failed")
)
