package jwtx

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Encrypted tokens use JWE compact serialization (RFC 7516): five base64url
// segments "header.encryptedKey.iv.ciphertext.tag". The content is encrypted
// for the recipient with a fresh AES-256-GCM key, which is in turn wrapped
// with the recipient's RSA public key (OAEP-SHA256). The issuer keeps no way
// to read these tokens back unless it also holds the counterpart private key.
const (
	jweAlg = "RSA-OAEP-256"
	jweEnc = "A256GCM"
	jweCty = "JWT"

	cekSize   = 32
	nonceSize = 12
	tagSize   = 16
)

// EncryptedHeader is the protected JWE header.
type EncryptedHeader struct {
	Alg string `json:"alg"`
	Enc string `json:"enc"`
	Cty string `json:"cty,omitempty"`
}

// Encrypter produces encrypted tokens readable only by the holder of the
// recipient's private key.
type Encrypter struct {
	pub *rsa.PublicKey
}

// NewEncrypter wraps a recipient public key.
func NewEncrypter(recipient *rsa.PublicKey) *Encrypter {
	return &Encrypter{pub: recipient}
}

// Encrypt serializes the claims and encrypts them for the recipient.
func (e *Encrypter) Encrypt(claims Claims) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("jwtx: marshal claims: %w", err)
	}

	headerJSON, err := json.Marshal(EncryptedHeader{Alg: jweAlg, Enc: jweEnc, Cty: jweCty})
	if err != nil {
		return "", fmt.Errorf("jwtx: marshal header: %w", err)
	}
	protected := base64.RawURLEncoding.EncodeToString(headerJSON)

	cek := make([]byte, cekSize)
	if _, err := rand.Read(cek); err != nil {
		return "", fmt.Errorf("jwtx: generate cek: %w", err)
	}

	wrappedKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, e.pub, cek, nil)
	if err != nil {
		return "", fmt.Errorf("jwtx: wrap cek: %w", err)
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return "", fmt.Errorf("jwtx: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("jwtx: create gcm: %w", err)
	}

	iv := make([]byte, nonceSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("jwtx: generate iv: %w", err)
	}

	// The protected header is bound as additional authenticated data, so a
	// swapped header fails the tag check.
	sealed := gcm.Seal(nil, iv, payload, []byte(protected))
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		protected,
		base64.RawURLEncoding.EncodeToString(wrappedKey),
		base64.RawURLEncoding.EncodeToString(iv),
		base64.RawURLEncoding.EncodeToString(ciphertext),
		base64.RawURLEncoding.EncodeToString(tag),
	}, "."), nil
}

// Decrypter opens encrypted tokens with the recipient's private key. The
// issuer only holds one for external audiences whose callback flow it has to
// accept tokens back from.
type Decrypter struct {
	key *rsa.PrivateKey
}

// NewDecrypter wraps a recipient private key.
func NewDecrypter(key *rsa.PrivateKey) *Decrypter {
	return &Decrypter{key: key}
}

// Decrypt opens an encrypted token and returns its claims. Every failure
// after structural parsing collapses into ErrDecryptFailed.
func (d *Decrypter) Decrypt(token string) (Claims, error) {
	protected, parts, err := splitEncrypted(token)
	if err != nil {
		return Claims{}, err
	}

	wrappedKey, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrMalformed
	}
	iv, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return Claims{}, ErrMalformed
	}
	ciphertext, err := base64.RawURLEncoding.DecodeString(parts[3])
	if err != nil {
		return Claims{}, ErrMalformed
	}
	tag, err := base64.RawURLEncoding.DecodeString(parts[4])
	if err != nil {
		return Claims{}, ErrMalformed
	}
	if len(iv) != nonceSize || len(tag) != tagSize {
		return Claims{}, ErrMalformed
	}

	cek, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, d.key, wrappedKey, nil)
	if err != nil {
		return Claims{}, ErrDecryptFailed
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return Claims{}, ErrDecryptFailed
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return Claims{}, ErrDecryptFailed
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	payload, err := gcm.Open(nil, iv, sealed, []byte(protected))
	if err != nil {
		return Claims{}, ErrDecryptFailed
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrDecryptFailed
	}

	return claims, nil
}

// ParseEncrypted performs the structural check available without any key:
// five segments and a well-formed protected header with the expected
// algorithm pair. It cannot read or authenticate the claims.
func ParseEncrypted(token string) (EncryptedHeader, error) {
	_, parts, err := splitEncrypted(token)
	if err != nil {
		return EncryptedHeader{}, err
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return EncryptedHeader{}, ErrMalformed
	}

	var header EncryptedHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return EncryptedHeader{}, ErrMalformed
	}
	if header.Alg != jweAlg || header.Enc != jweEnc {
		return EncryptedHeader{}, ErrAlgMismatch
	}

	return header, nil
}

func splitEncrypted(token string) (protected string, parts []string, err error) {
	parts = strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 5 {
		return "", nil, ErrMalformed
	}
	for _, p := range parts {
		if p == "" {
			return "", nil, ErrMalformed
		}
	}
	return parts[0], parts, nil
}
