package jwtx

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// rs256Signer implements Signer using RSA SHA-256.
type rs256Signer struct {
	kid string
	key *rsa.PrivateKey
}

// newRS256Signer loads an RSA private key from PEM bytes. Handles both PKCS1
// and PKCS8 so key provenance doesn't matter.
func newRS256Signer(kid string, pemKey []byte) (*rs256Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for RSA key")
	}

	var key *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		parsed, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS1: %w", err)
		}
		key = parsed
	case "PRIVATE KEY":
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
		}
		rk, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not an RSA private key")
		}
		key = rk
	default:
		return nil, fmt.Errorf("jwtx: unsupported PEM type %q", block.Type)
	}

	return &rs256Signer{kid: kid, key: key}, nil
}

func (s *rs256Signer) Alg() string { return jwt.SigningMethodRS256.Alg() }
func (s *rs256Signer) KID() string { return s.kid }

// Sign serializes the claims into a signed compact JWT.
func (s *rs256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *rs256Signer) Public() crypto.PublicKey { return &s.key.PublicKey }
