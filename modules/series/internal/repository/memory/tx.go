package memory

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
)

// txRepository operates on a private snapshot of the parent state. Commit
// publishes the snapshot atomically; Rollback discards it. Rollback after
// Commit is a no-op so it can sit in a defer.
type txRepository struct {
	parent   *Repository
	state    *state
	now      func() time.Time
	finished bool
}

var _ datagateway.SeriesDataGatewayWithTx = (*txRepository)(nil)

func (t *txRepository) Commit(ctx context.Context) error {
	if t.finished {
		return errors.Wrap(errs.InvalidState, "transaction already finished")
	}
	t.finished = true
	t.parent.mu.Lock()
	t.parent.state = t.state
	t.parent.mu.Unlock()
	return nil
}

func (t *txRepository) Rollback(ctx context.Context) error {
	if t.finished {
		return nil
	}
	t.finished = true
	return nil
}

func (t *txRepository) BeginSeriesTx(ctx context.Context) (datagateway.SeriesDataGatewayWithTx, error) {
	return nil, errors.Wrap(errs.Unsupported, "nested transactions are not supported")
}

func (t *txRepository) GetAsset(ctx context.Context, id entity.AssetId) (*entity.Asset, error) {
	return getAsset(t.state, id)
}

func (t *txRepository) GetAssetBySymbol(ctx context.Context, symbol string) (*entity.Asset, error) {
	id, ok := t.state.assetsBySymbol[symbol]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "asset with symbol %q", symbol)
	}
	return getAsset(t.state, id)
}

func (t *txRepository) HasAssetWithSymbolPrefix(ctx context.Context, prefix string) (bool, error) {
	return hasSymbolPrefix(t.state, prefix), nil
}

func (t *txRepository) AccountExists(ctx context.Context, id entity.AccountId) (bool, error) {
	_, ok := t.state.accounts[id]
	return ok, nil
}

func (t *txRepository) GetSeriesByAssetId(ctx context.Context, assetId entity.AssetId) (*entity.SeriesEntry, error) {
	return getSeries(t.state, assetId)
}

func (t *txRepository) GetSeriesByName(ctx context.Context, name string) (*entity.SeriesEntry, error) {
	id, ok := t.state.seriesByName[name]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "series with name %q", name)
	}
	return getSeries(t.state, id)
}

func (t *txRepository) GetTokenByAssetId(ctx context.Context, assetId entity.AssetId) (*entity.TokenEntry, error) {
	return getToken(t.state, assetId)
}

func (t *txRepository) GetTokenByName(ctx context.Context, name string) (*entity.TokenEntry, error) {
	id, ok := t.state.tokensByName[name]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "token with name %q", name)
	}
	return getToken(t.state, id)
}

func (t *txRepository) GetTokensBySeries(ctx context.Context, seriesAssetId entity.AssetId) ([]*entity.TokenEntry, error) {
	return getTokensBySeries(t.state, seriesAssetId), nil
}

func (t *txRepository) GetBalance(ctx context.Context, account entity.AccountId, asset entity.AssetId) (int64, error) {
	return t.state.balances[balanceKey{Account: account, Asset: asset}], nil
}

func (t *txRepository) CurrentTime(ctx context.Context) (time.Time, error) {
	return t.now(), nil
}

func (t *txRepository) CreateSeries(ctx context.Context, entry *entity.SeriesEntry) error {
	return createSeries(t.state, entry)
}

func (t *txRepository) UpdateSeriesRoyaltyClaims(ctx context.Context, assetId entity.AssetId, claims map[entity.AccountId]int64) error {
	return updateSeriesRoyaltyClaims(t.state, assetId, claims)
}

func (t *txRepository) CreateToken(ctx context.Context, entry *entity.TokenEntry) error {
	return createToken(t.state, entry)
}

func (t *txRepository) UpdateToken(ctx context.Context, entry *entity.TokenEntry) error {
	return updateToken(t.state, entry)
}

func (t *txRepository) AdjustAssetSupply(ctx context.Context, assetId entity.AssetId, delta int64) error {
	return adjustAssetSupply(t.state, assetId, delta)
}

func (t *txRepository) AdjustBalance(ctx context.Context, account entity.AccountId, asset entity.AssetId, delta int64) error {
	return adjustBalance(t.state, account, asset, delta)
}

func (t *txRepository) CreateRoyaltyPaidEvent(ctx context.Context, event *entity.RoyaltyPaidEvent) error {
	createRoyaltyPaidEvent(t.state, event)
	return nil
}

func (t *txRepository) CreateRedemptionEvent(ctx context.Context, event *entity.RedemptionEvent) error {
	createRedemptionEvent(t.state, event)
	return nil
}
