package blockstore

import (
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

func testHash(t *testing.T, data string) multihash.Multihash {
	t.Helper()
	mh, err := multihash.Sum([]byte(data), multihash.SHA2_256, -1)
	require.NoError(t, err)
	return mh
}

func TestCanonical(t *testing.T) {
	mh := testHash(t, "hello")
	v0 := cid.NewCidV0(mh)
	v1 := cid.NewCidV1(cid.DagProtobuf, mh)

	require.True(t, strings.HasPrefix(v0.String(), "Qm"))

	got, err := Canonical(v0)
	require.NoError(t, err)
	require.Equal(t, v1.String(), got)
	require.True(t, strings.HasPrefix(got, "bafy"))
	require.Equal(t, strings.ToLower(got), got)

	again, err := Canonical(v1)
	require.NoError(t, err)
	require.Equal(t, got, again)

	_, err = Canonical(cid.Undef)
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	mh := testHash(t, "hello")
	v0 := cid.NewCidV0(mh)

	got, err := Parse(" " + v0.String() + "\n")
	require.NoError(t, err)
	require.True(t, got.Equals(v0))
	require.True(t, ToV1(got).Equals(cid.NewCidV1(cid.DagProtobuf, mh)))

	_, err = Parse("not-a-cid")
	require.True(t, errors.HasCategory(err, errors.CategoryPublish))
}
