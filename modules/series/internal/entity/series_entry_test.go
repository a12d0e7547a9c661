package entity

import (
	"testing"

	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeriesEntrySeedsIssuer(t *testing.T) {
	t.Parallel()

	entry := NewSeriesEntry("asset-1", "SERIESA", 250, "beneficiary", "manager", "issuer")
	assert.Equal(t, constants.RoyaltyClaimCount, entry.ClaimBalance("issuer"))
	assert.NoError(t, entry.CheckClaimsInvariant())
}

func TestTransferRoyaltyClaims(t *testing.T) {
	t.Parallel()

	newEntry := func() *SeriesEntry {
		return NewSeriesEntry("asset-1", "SERIESA", 250, "beneficiary", "manager", "alice")
	}

	t.Run("moves shares and preserves sum", func(t *testing.T) {
		t.Parallel()
		entry := newEntry()
		require.NoError(t, entry.TransferRoyaltyClaims("alice", "bob", 30))
		assert.Equal(t, int64(70), entry.ClaimBalance("alice"))
		assert.Equal(t, int64(30), entry.ClaimBalance("bob"))
		assert.Equal(t, constants.RoyaltyClaimCount, entry.TotalClaims())
	})

	t.Run("removes entry drained to zero", func(t *testing.T) {
		t.Parallel()
		entry := newEntry()
		require.NoError(t, entry.TransferRoyaltyClaims("alice", "bob", constants.RoyaltyClaimCount))
		_, exists := entry.RoyaltyClaims["alice"]
		assert.False(t, exists)
		assert.Equal(t, constants.RoyaltyClaimCount, entry.ClaimBalance("bob"))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		t.Parallel()
		entry := newEntry()
		assert.ErrorIs(t, entry.TransferRoyaltyClaims("alice", "bob", 0), errs.InvalidArgument)
		assert.ErrorIs(t, entry.TransferRoyaltyClaims("alice", "bob", -5), errs.InvalidArgument)
	})

	t.Run("rejects quantity above total claim count", func(t *testing.T) {
		t.Parallel()
		entry := newEntry()
		assert.ErrorIs(t, entry.TransferRoyaltyClaims("alice", "bob", constants.RoyaltyClaimCount+1), errs.InvalidArgument)
	})

	t.Run("rejects insufficient sender balance", func(t *testing.T) {
		t.Parallel()
		entry := newEntry()
		require.NoError(t, entry.TransferRoyaltyClaims("alice", "bob", 90))
		err := entry.TransferRoyaltyClaims("alice", "carol", 20)
		assert.ErrorIs(t, err, errs.InvalidState)
		// table unchanged on failure
		assert.Equal(t, int64(10), entry.ClaimBalance("alice"))
		assert.Equal(t, int64(90), entry.ClaimBalance("bob"))
		assert.Equal(t, constants.RoyaltyClaimCount, entry.TotalClaims())
	})

	t.Run("validation errors are public", func(t *testing.T) {
		t.Parallel()
		entry := newEntry()
		err := entry.TransferRoyaltyClaims("alice", "bob", 0)
		pub := new(errs.PublicError)
		assert.ErrorAs(t, err, &pub)
	})
}

func TestSeriesEntryClone(t *testing.T) {
	t.Parallel()

	entry := NewSeriesEntry("asset-1", "SERIESA", 250, "beneficiary", "manager", "alice")
	clone := entry.Clone()
	require.NoError(t, clone.TransferRoyaltyClaims("alice", "bob", 10))
	assert.Equal(t, constants.RoyaltyClaimCount, entry.ClaimBalance("alice"), "clone mutation must not leak")
}
