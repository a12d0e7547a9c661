// Package memory implements the series datagateway on in-memory maps with
// secondary index maps, snapshot-based transactions and a settable clock.
// It backs deterministic replay and tests; the postgres repository is the
// persisted counterpart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
)

type balanceKey struct {
	Account entity.AccountId
	Asset   entity.AssetId
}

type state struct {
	assets         map[entity.AssetId]*entity.Asset
	assetsBySymbol map[string]entity.AssetId
	accounts       map[entity.AccountId]struct{}

	series       map[entity.AssetId]*entity.SeriesEntry
	seriesByName map[string]entity.AssetId

	tokens         map[entity.AssetId]*entity.TokenEntry
	tokensByName   map[string]entity.AssetId
	tokensBySeries map[entity.AssetId]map[entity.AssetId]struct{}

	balances map[balanceKey]int64

	royaltyPaidEvents []*entity.RoyaltyPaidEvent
	redemptionEvents  []*entity.RedemptionEvent
	eventSeq          uint64
}

func newState() *state {
	return &state{
		assets:         make(map[entity.AssetId]*entity.Asset),
		assetsBySymbol: make(map[string]entity.AssetId),
		accounts:       make(map[entity.AccountId]struct{}),
		series:         make(map[entity.AssetId]*entity.SeriesEntry),
		seriesByName:   make(map[string]entity.AssetId),
		tokens:         make(map[entity.AssetId]*entity.TokenEntry),
		tokensByName:   make(map[string]entity.AssetId),
		tokensBySeries: make(map[entity.AssetId]map[entity.AssetId]struct{}),
		balances:       make(map[balanceKey]int64),
	}
}

func (s *state) clone() *state {
	clone := newState()
	for id, asset := range s.assets {
		clone.assets[id] = asset.Clone()
	}
	for symbol, id := range s.assetsBySymbol {
		clone.assetsBySymbol[symbol] = id
	}
	for id := range s.accounts {
		clone.accounts[id] = struct{}{}
	}
	for id, entry := range s.series {
		clone.series[id] = entry.Clone()
	}
	for name, id := range s.seriesByName {
		clone.seriesByName[name] = id
	}
	for id, entry := range s.tokens {
		clone.tokens[id] = entry.Clone()
	}
	for name, id := range s.tokensByName {
		clone.tokensByName[name] = id
	}
	for seriesId, tokenIds := range s.tokensBySeries {
		members := make(map[entity.AssetId]struct{}, len(tokenIds))
		for tokenId := range tokenIds {
			members[tokenId] = struct{}{}
		}
		clone.tokensBySeries[seriesId] = members
	}
	for key, balance := range s.balances {
		clone.balances[key] = balance
	}
	clone.royaltyPaidEvents = append([]*entity.RoyaltyPaidEvent(nil), s.royaltyPaidEvents...)
	clone.redemptionEvents = append([]*entity.RedemptionEvent(nil), s.redemptionEvents...)
	clone.eventSeq = s.eventSeq
	return clone
}

// Repository is the autocommit gateway. BeginSeriesTx returns a tx gateway
// operating on a snapshot; Commit swaps the snapshot in.
type Repository struct {
	mu    sync.RWMutex
	state *state
	now   func() time.Time
}

var _ datagateway.SeriesDataGateway = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{
		state: newState(),
		now:   time.Now,
	}
}

// SetClock pins the ledger time returned by CurrentTime. Activation checks in
// tests and replay depend on an explicit clock.
func (r *Repository) SetClock(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = func() time.Time { return now }
}

// SeedAsset registers an asset record owned by the external asset subsystem.
func (r *Repository) SeedAsset(asset *entity.Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.assets[asset.Id] = asset.Clone()
	r.state.assetsBySymbol[asset.Symbol] = asset.Id
}

// SeedAccount registers a ledger account.
func (r *Repository) SeedAccount(id entity.AccountId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.accounts[id] = struct{}{}
}

// SeedBalance sets an account's balance of an asset directly.
func (r *Repository) SeedBalance(account entity.AccountId, asset entity.AssetId, balance int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.balances[balanceKey{Account: account, Asset: asset}] = balance
}

// RoyaltyPaidEvents returns emitted royalty events in apply order.
func (r *Repository) RoyaltyPaidEvents() []*entity.RoyaltyPaidEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entity.RoyaltyPaidEvent(nil), r.state.royaltyPaidEvents...)
}

// RedemptionEvents returns emitted redemption events in apply order.
func (r *Repository) RedemptionEvents() []*entity.RedemptionEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entity.RedemptionEvent(nil), r.state.redemptionEvents...)
}

func (r *Repository) BeginSeriesTx(ctx context.Context) (datagateway.SeriesDataGatewayWithTx, error) {
	r.mu.RLock()
	snapshot := r.state.clone()
	now := r.now
	r.mu.RUnlock()
	return &txRepository{parent: r, state: snapshot, now: now}, nil
}

func (r *Repository) GetAsset(ctx context.Context, id entity.AssetId) (*entity.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return getAsset(r.state, id)
}

func (r *Repository) GetAssetBySymbol(ctx context.Context, symbol string) (*entity.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.state.assetsBySymbol[symbol]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "asset with symbol %q", symbol)
	}
	return getAsset(r.state, id)
}

func (r *Repository) HasAssetWithSymbolPrefix(ctx context.Context, prefix string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return hasSymbolPrefix(r.state, prefix), nil
}

func (r *Repository) AccountExists(ctx context.Context, id entity.AccountId) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.state.accounts[id]
	return ok, nil
}

func (r *Repository) GetSeriesByAssetId(ctx context.Context, assetId entity.AssetId) (*entity.SeriesEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return getSeries(r.state, assetId)
}

func (r *Repository) GetSeriesByName(ctx context.Context, name string) (*entity.SeriesEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.state.seriesByName[name]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "series with name %q", name)
	}
	return getSeries(r.state, id)
}

func (r *Repository) GetTokenByAssetId(ctx context.Context, assetId entity.AssetId) (*entity.TokenEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return getToken(r.state, assetId)
}

func (r *Repository) GetTokenByName(ctx context.Context, name string) (*entity.TokenEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.state.tokensByName[name]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "token with name %q", name)
	}
	return getToken(r.state, id)
}

func (r *Repository) GetTokensBySeries(ctx context.Context, seriesAssetId entity.AssetId) ([]*entity.TokenEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return getTokensBySeries(r.state, seriesAssetId), nil
}

func (r *Repository) GetBalance(ctx context.Context, account entity.AccountId, asset entity.AssetId) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.balances[balanceKey{Account: account, Asset: asset}], nil
}

func (r *Repository) CurrentTime(ctx context.Context) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.now(), nil
}

func (r *Repository) CreateSeries(ctx context.Context, entry *entity.SeriesEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return createSeries(r.state, entry)
}

func (r *Repository) UpdateSeriesRoyaltyClaims(ctx context.Context, assetId entity.AssetId, claims map[entity.AccountId]int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return updateSeriesRoyaltyClaims(r.state, assetId, claims)
}

func (r *Repository) CreateToken(ctx context.Context, entry *entity.TokenEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return createToken(r.state, entry)
}

func (r *Repository) UpdateToken(ctx context.Context, entry *entity.TokenEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return updateToken(r.state, entry)
}

func (r *Repository) AdjustAssetSupply(ctx context.Context, assetId entity.AssetId, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return adjustAssetSupply(r.state, assetId, delta)
}

func (r *Repository) AdjustBalance(ctx context.Context, account entity.AccountId, asset entity.AssetId, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return adjustBalance(r.state, account, asset, delta)
}

func (r *Repository) CreateRoyaltyPaidEvent(ctx context.Context, event *entity.RoyaltyPaidEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	createRoyaltyPaidEvent(r.state, event)
	return nil
}

func (r *Repository) CreateRedemptionEvent(ctx context.Context, event *entity.RedemptionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	createRedemptionEvent(r.state, event)
	return nil
}
