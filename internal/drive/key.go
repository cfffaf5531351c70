// Package drive publishes content trees to hyperdrives. A drive's identity is an
// ed25519 key pair derived from a project seed; its URL is the hex public key.
package drive

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/seed"
)

// Scheme prefixes every drive URL.
const Scheme = "hyper://"

// PublicKey derives the drive's public key from s.
func PublicKey(s seed.Seed) ed25519.PublicKey {
	return ed25519.NewKeyFromSeed(s[:]).Public().(ed25519.PublicKey)
}

// URLFor returns hyper://<hex public key> for s.
func URLFor(s seed.Seed) string {
	return Scheme + hex.EncodeToString(PublicKey(s))
}

// DiscoveryKey is the hash peers announce on the swarm instead of the public key.
func DiscoveryKey(pub ed25519.PublicKey) []byte {
	h, err := blake2b.New256(pub)
	if err != nil {
		// blake2b only rejects keys longer than 64 bytes.
		panic(err)
	}
	_, _ = h.Write([]byte("hypercore"))
	return h.Sum(nil)
}

// KeyFromURL extracts and validates the hex key of a drive URL.
func KeyFromURL(u string) (string, error) {
	key := strings.TrimSuffix(strings.TrimPrefix(u, Scheme), "/")
	raw, err := hex.DecodeString(key)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return "", errors.ValidationError("invalid drive URL").
			WithContext("url", u).
			Build()
	}
	return strings.ToLower(key), nil
}
