package entity

import (
	"testing"

	"github.com/mintvault/series-ledger/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenEntryAmountInCirculation(t *testing.T) {
	t.Parallel()

	t.Run("conservation identity", func(t *testing.T) {
		t.Parallel()
		entry := &TokenEntry{
			AssetId:           "token-1",
			Precision:         2,
			AmountMinted:      100,
			AmountInInventory: 60,
			AmountBurned:      10,
		}
		circulation, err := entry.AmountInCirculation()
		require.NoError(t, err)
		assert.Equal(t, int64(30), circulation)
		assert.Equal(t, entry.AmountMinted, entry.AmountInInventory+circulation+entry.AmountBurned)
	})

	t.Run("negative circulation is fatal", func(t *testing.T) {
		t.Parallel()
		entry := &TokenEntry{AssetId: "token-1", Precision: 2, AmountMinted: 10, AmountInInventory: 20}
		_, err := entry.AmountInCirculation()
		assert.ErrorIs(t, err, errs.InvariantViolation)
	})

	t.Run("circulation above one whole unit is fatal", func(t *testing.T) {
		t.Parallel()
		entry := &TokenEntry{AssetId: "token-1", Precision: 1, AmountMinted: 50, AmountInInventory: 0}
		_, err := entry.AmountInCirculation()
		assert.ErrorIs(t, err, errs.InvariantViolation)
	})
}

func TestTokenEntryRemainingMintable(t *testing.T) {
	t.Parallel()

	entry := &TokenEntry{AssetId: "token-1", Precision: 2, AmountMinted: 60, AmountBurned: 15}
	remaining, err := entry.RemainingMintable()
	require.NoError(t, err)
	assert.Equal(t, int64(25), remaining)

	entry.AmountMinted = 100
	remaining, err = entry.RemainingMintable()
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)
}

func TestTokenEntryIsBackable(t *testing.T) {
	t.Parallel()

	assert.False(t, (&TokenEntry{}).IsBackable())
	assert.True(t, (&TokenEntry{RequiredBackingPerSubdivision: 500}).IsBackable())
}
