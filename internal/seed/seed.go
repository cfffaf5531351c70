// Package seed manages per-project drive identity material. A seed is 32 random
// bytes persisted under the project's private directory; once written it is never
// regenerated, rewritten or deleted.
package seed

import (
	"encoding/hex"
	"fmt"
)

// Size is the exact length of a seed file.
const Size = 32

// Seed is the secret from which a drive key pair is derived.
type Seed [Size]byte

// Hex renders the seed for handing to an external publisher process.
func (s Seed) Hex() string { return hex.EncodeToString(s[:]) }

// String redacts the seed so it never ends up in logs.
func (s Seed) String() string { return "seed(redacted)" }

// Purpose distinguishes the drives of one project.
type Purpose string

const (
	PurposeWebsite Purpose = "website"
	PurposeAPI     Purpose = "api"
)

// FileName returns the on-disk name of the seed for p.
func (p Purpose) FileName() string {
	switch p {
	case PurposeWebsite:
		return "dat-seed-www"
	case PurposeAPI:
		return "dat-seed-api"
	default:
		return "dat-seed-" + string(p)
	}
}

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool { return p == PurposeWebsite || p == PurposeAPI }

// FromBytes copies b into a Seed, failing unless len(b) == Size.
func FromBytes(b []byte) (Seed, error) {
	var s Seed
	if len(b) != Size {
		return s, fmt.Errorf("seed must be %d bytes, got %d", Size, len(b))
	}
	copy(s[:], b)
	return s, nil
}
