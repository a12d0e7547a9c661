package datagateway

import (
	"context"
	"time"

	"github.com/mintvault/series-ledger/modules/series/internal/entity"
)

// SeriesDataGateway is the ledger state store consumed by the evaluator
// pipeline. Series, token and asset records are owned and exclusively mutated
// by the store; evaluators hold only request-scoped references resolved
// during evaluation.
type SeriesDataGateway interface {
	SeriesReaderDataGateway
	SeriesWriterDataGateway

	// BeginSeriesTx returns a new SeriesDataGateway with transaction enabled.
	// All write operations performed in this datagateway must be committed to persist changes.
	BeginSeriesTx(ctx context.Context) (SeriesDataGatewayWithTx, error)
}

type SeriesDataGatewayWithTx interface {
	SeriesDataGateway
	Tx
}

type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type SeriesReaderDataGateway interface {
	// GetAsset returns the asset record for the given id. Returns errs.NotFound if absent.
	GetAsset(ctx context.Context, id entity.AssetId) (*entity.Asset, error)
	// GetAssetBySymbol returns the asset record with the given symbol. Returns errs.NotFound if absent.
	GetAssetBySymbol(ctx context.Context, symbol string) (*entity.Asset, error)
	// HasAssetWithSymbolPrefix reports whether any asset's symbol begins with prefix.
	HasAssetWithSymbolPrefix(ctx context.Context, prefix string) (bool, error)
	// AccountExists reports whether the account id resolves to a ledger account.
	AccountExists(ctx context.Context, id entity.AccountId) (bool, error)

	// GetSeriesByAssetId returns the series anchored to the given asset. Returns errs.NotFound if absent.
	GetSeriesByAssetId(ctx context.Context, assetId entity.AssetId) (*entity.SeriesEntry, error)
	// GetSeriesByName returns the series with the given name. Returns errs.NotFound if absent.
	GetSeriesByName(ctx context.Context, name string) (*entity.SeriesEntry, error)

	// GetTokenByAssetId returns the token minted for the given asset. Returns errs.NotFound if absent.
	GetTokenByAssetId(ctx context.Context, assetId entity.AssetId) (*entity.TokenEntry, error)
	// GetTokenByName returns the token with the given name. Returns errs.NotFound if absent.
	GetTokenByName(ctx context.Context, name string) (*entity.TokenEntry, error)
	// GetTokensBySeries returns all tokens minted into the given series' inventory,
	// ordered by token name for deterministic iteration.
	GetTokensBySeries(ctx context.Context, seriesAssetId entity.AssetId) ([]*entity.TokenEntry, error)

	// GetBalance returns the account's balance of the given asset, zero if no row exists.
	GetBalance(ctx context.Context, account entity.AccountId, asset entity.AssetId) (int64, error)

	// CurrentTime returns the ledger time used for feature activation checks.
	CurrentTime(ctx context.Context) (time.Time, error)
}

type SeriesWriterDataGateway interface {
	// CreateSeries inserts a new series record. Returns errs.AlreadyExists on a
	// name or anchor asset unique index collision.
	CreateSeries(ctx context.Context, entry *entity.SeriesEntry) error
	// UpdateSeriesRoyaltyClaims replaces the royalty claims table of an existing series.
	UpdateSeriesRoyaltyClaims(ctx context.Context, assetId entity.AssetId, claims map[entity.AccountId]int64) error

	// CreateToken inserts a new token record. Returns errs.AlreadyExists on an
	// asset id or name unique index collision.
	CreateToken(ctx context.Context, entry *entity.TokenEntry) error
	// UpdateToken replaces an existing token record. Returns errs.NotFound if absent.
	UpdateToken(ctx context.Context, entry *entity.TokenEntry) error

	// AdjustAssetSupply adds delta (may be negative) to the asset's current supply.
	AdjustAssetSupply(ctx context.Context, assetId entity.AssetId, delta int64) error
	// AdjustBalance adds delta (may be negative) to the account's balance of the
	// given asset. Fails if the resulting balance would be negative.
	AdjustBalance(ctx context.Context, account entity.AccountId, asset entity.AssetId, delta int64) error

	CreateRoyaltyPaidEvent(ctx context.Context, event *entity.RoyaltyPaidEvent) error
	CreateRedemptionEvent(ctx context.Context, event *entity.RedemptionEvent) error
}
