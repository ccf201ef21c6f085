package jwtx

import (
	"crypto"
	"sync"
)

// KeySet holds the public verification keys in memory, keyed by kid.
// Thread-safe so the verifier and key bootstrap can share one instance.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]crypto.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]crypto.PublicKey)}
}

// AddSigner registers a Signer's public key under its kid.
func (k *KeySet) AddSigner(s Signer) {
	k.Add(s.KID(), s.Public())
}

// Add registers a public key under the given kid, replacing any previous one.
func (k *KeySet) Add(kid string, pub crypto.PublicKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[kid] = pub
}

// Get returns the public key for the given kid.
func (k *KeySet) Get(kid string) (crypto.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrUnknownKID
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}
