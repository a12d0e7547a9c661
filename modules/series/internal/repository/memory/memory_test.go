package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryAssetLookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewRepository()
	repo.SeedAsset(&entity.Asset{Id: "asset-1", Symbol: "SERIESA", Issuer: "alice"})
	repo.SeedAsset(&entity.Asset{Id: "asset-2", Symbol: "SERIESA.SUB1", Issuer: "alice"})

	asset, err := repo.GetAsset(ctx, "asset-1")
	require.NoError(t, err)
	assert.Equal(t, "SERIESA", asset.Symbol)

	asset, err = repo.GetAssetBySymbol(ctx, "SERIESA.SUB1")
	require.NoError(t, err)
	assert.Equal(t, entity.AssetId("asset-2"), asset.Id)

	_, err = repo.GetAsset(ctx, "missing")
	assert.ErrorIs(t, err, errs.NotFound)

	found, err := repo.HasAssetWithSymbolPrefix(ctx, "SERIESA.")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.HasAssetWithSymbolPrefix(ctx, "SERIESB.")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepositorySeriesUniqueIndexes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewRepository()
	entry := entity.NewSeriesEntry("asset-1", "SERIESA", 0, "alice", "alice", "alice")
	require.NoError(t, repo.CreateSeries(ctx, entry))

	err := repo.CreateSeries(ctx, entity.NewSeriesEntry("asset-1", "OTHER", 0, "alice", "alice", "alice"))
	assert.ErrorIs(t, err, errs.AlreadyExists)

	err = repo.CreateSeries(ctx, entity.NewSeriesEntry("asset-2", "SERIESA", 0, "alice", "alice", "alice"))
	assert.ErrorIs(t, err, errs.AlreadyExists)

	byName, err := repo.GetSeriesByName(ctx, "SERIESA")
	require.NoError(t, err)
	assert.Equal(t, entity.AssetId("asset-1"), byName.AssetId)
}

func TestRepositoryTokensBySeriesOrdering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewRepository()
	for _, name := range []string{"SERIESA.SUB3", "SERIESA.SUB1", "SERIESA.SUB2"} {
		require.NoError(t, repo.CreateToken(ctx, &entity.TokenEntry{
			AssetId:       entity.AssetId("token-" + name),
			Name:          name,
			SeriesAssetId: "asset-1",
			Precision:     2,
		}))
	}

	tokens, err := repo.GetTokensBySeries(ctx, "asset-1")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "SERIESA.SUB1", tokens[0].Name)
	assert.Equal(t, "SERIESA.SUB2", tokens[1].Name)
	assert.Equal(t, "SERIESA.SUB3", tokens[2].Name)
}

func TestRepositoryBalanceFloor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewRepository()
	require.NoError(t, repo.AdjustBalance(ctx, "alice", "CORE", 100))

	err := repo.AdjustBalance(ctx, "alice", "CORE", -150)
	assert.ErrorIs(t, err, errs.InvalidState)

	balance, err := repo.GetBalance(ctx, "alice", "CORE")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestRepositoryTxCommitAndRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewRepository()
	repo.SeedBalance("alice", "CORE", 50)

	t.Run("rollback discards writes", func(t *testing.T) {
		tx, err := repo.BeginSeriesTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.AdjustBalance(ctx, "alice", "CORE", 25))
		require.NoError(t, tx.Rollback(ctx))

		balance, err := repo.GetBalance(ctx, "alice", "CORE")
		require.NoError(t, err)
		assert.Equal(t, int64(50), balance)
	})

	t.Run("commit publishes writes", func(t *testing.T) {
		tx, err := repo.BeginSeriesTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.AdjustBalance(ctx, "alice", "CORE", 25))
		require.NoError(t, tx.Commit(ctx))
		// rollback after commit is a no-op
		require.NoError(t, tx.Rollback(ctx))

		balance, err := repo.GetBalance(ctx, "alice", "CORE")
		require.NoError(t, err)
		assert.Equal(t, int64(75), balance)
	})

	t.Run("tx reads its own writes", func(t *testing.T) {
		tx, err := repo.BeginSeriesTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.AdjustBalance(ctx, "bob", "CORE", 10))
		balance, err := tx.GetBalance(ctx, "bob", "CORE")
		require.NoError(t, err)
		assert.Equal(t, int64(10), balance)
		require.NoError(t, tx.Rollback(ctx))
	})
}

func TestRepositoryEventsOrdered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewRepository()
	require.NoError(t, repo.CreateRoyaltyPaidEvent(ctx, &entity.RoyaltyPaidEvent{TokenAssetId: "token-1", Payer: "alice", RoyaltyAmount: 1}))
	require.NoError(t, repo.CreateRedemptionEvent(ctx, &entity.RedemptionEvent{TokenAssetId: "token-1", Bearer: "bob", AmountReturned: 2}))
	require.NoError(t, repo.CreateRoyaltyPaidEvent(ctx, &entity.RoyaltyPaidEvent{TokenAssetId: "token-1", Payer: "carol", RoyaltyAmount: 3}))

	royalty := repo.RoyaltyPaidEvents()
	require.Len(t, royalty, 2)
	assert.Equal(t, uint64(1), royalty[0].Id)
	assert.Equal(t, uint64(3), royalty[1].Id)

	redemptions := repo.RedemptionEvents()
	require.Len(t, redemptions, 1)
	assert.Equal(t, uint64(2), redemptions[0].Id)
}

func TestRepositoryClock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewRepository()
	pinned := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.SetClock(pinned)

	now, err := repo.CurrentTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, pinned, now)

	// tx snapshots the clock at begin
	tx, err := repo.BeginSeriesTx(ctx)
	require.NoError(t, err)
	now, err = tx.CurrentTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, pinned, now)
	require.NoError(t, tx.Rollback(ctx))
}
