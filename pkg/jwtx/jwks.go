package jwtx

import (
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"sort"
)

// JWK is a single public key in RFC 7517 form. Only the members needed for
// verification are emitted.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg,omitempty"`

	// OKP (Ed25519)
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
}

// JWKS is the key set document served at the well-known endpoint.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicJWKS renders every registered key as a JWKS document. Keys of
// unsupported types are skipped.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()

	keys := make([]JWK, 0, len(k.pub))
	for kid, pub := range k.pub {
		switch key := pub.(type) {
		case ed25519.PublicKey:
			keys = append(keys, JWK{
				Kty: "OKP",
				Kid: kid,
				Use: "sig",
				Alg: "EdDSA",
				Crv: "Ed25519",
				X:   base64.RawURLEncoding.EncodeToString(key),
			})
		case *rsa.PublicKey:
			keys = append(keys, JWK{
				Kty: "RSA",
				Kid: kid,
				Use: "sig",
				Alg: "RS256",
				N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			})
		}
	}

	// Stable order so the document is cache-friendly.
	sort.Slice(keys, func(i, j int) bool { return keys[i].Kid < keys[j].Kid })

	return JWKS{Keys: keys}
}
