package blockstore

import (
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

// ToV1 upgrades a CIDv0 to the equivalent CIDv1. CIDv1 values are returned as-is.
func ToV1(c cid.Cid) cid.Cid {
	if c.Version() == 0 {
		return cid.NewCidV1(cid.DagProtobuf, c.Hash())
	}
	return c
}

// Canonical renders c as base32 CIDv1, which is safe inside a DNS label.
func Canonical(c cid.Cid) (string, error) {
	if !c.Defined() {
		return "", errors.ValidationError("undefined CID").Build()
	}
	s, err := ToV1(c).StringOfBase(multibase.Base32)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to encode CID").Build()
	}
	return s, nil
}

// Parse decodes a CID string in any multibase, or a base58 CIDv0.
func Parse(s string) (cid.Cid, error) {
	c, err := cid.Decode(strings.TrimSpace(s))
	if err != nil {
		return cid.Undef, errors.PublishError("block store returned an invalid CID").
			WithCause(err).
			WithContext("cid", s).
			Build()
	}
	return c, nil
}
