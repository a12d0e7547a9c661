package memory

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
)

// Shared read/write helpers over a state snapshot. Callers hold the
// appropriate lock (Repository) or own the snapshot exclusively (txRepository).

func getAsset(s *state, id entity.AssetId) (*entity.Asset, error) {
	asset, ok := s.assets[id]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "asset %s", id)
	}
	return asset.Clone(), nil
}

func hasSymbolPrefix(s *state, prefix string) bool {
	for symbol := range s.assetsBySymbol {
		if strings.HasPrefix(symbol, prefix) {
			return true
		}
	}
	return false
}

func getSeries(s *state, assetId entity.AssetId) (*entity.SeriesEntry, error) {
	entry, ok := s.series[assetId]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "series anchored to asset %s", assetId)
	}
	return entry.Clone(), nil
}

func getToken(s *state, assetId entity.AssetId) (*entity.TokenEntry, error) {
	entry, ok := s.tokens[assetId]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "token for asset %s", assetId)
	}
	return entry.Clone(), nil
}

func getTokensBySeries(s *state, seriesAssetId entity.AssetId) []*entity.TokenEntry {
	tokenIds := s.tokensBySeries[seriesAssetId]
	entries := make([]*entity.TokenEntry, 0, len(tokenIds))
	for tokenId := range tokenIds {
		if entry, ok := s.tokens[tokenId]; ok {
			entries = append(entries, entry.Clone())
		}
	}
	// map iteration order is not deterministic, callers require name order
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

func createSeries(s *state, entry *entity.SeriesEntry) error {
	if _, ok := s.series[entry.AssetId]; ok {
		return errors.Wrapf(errs.AlreadyExists, "series anchored to asset %s", entry.AssetId)
	}
	if _, ok := s.seriesByName[entry.Name]; ok {
		return errors.Wrapf(errs.AlreadyExists, "series with name %q", entry.Name)
	}
	s.series[entry.AssetId] = entry.Clone()
	s.seriesByName[entry.Name] = entry.AssetId
	return nil
}

func updateSeriesRoyaltyClaims(s *state, assetId entity.AssetId, claims map[entity.AccountId]int64) error {
	entry, ok := s.series[assetId]
	if !ok {
		return errors.Wrapf(errs.NotFound, "series anchored to asset %s", assetId)
	}
	replacement := make(map[entity.AccountId]int64, len(claims))
	for account, shares := range claims {
		replacement[account] = shares
	}
	entry.RoyaltyClaims = replacement
	return nil
}

func createToken(s *state, entry *entity.TokenEntry) error {
	if _, ok := s.tokens[entry.AssetId]; ok {
		return errors.Wrapf(errs.AlreadyExists, "token for asset %s", entry.AssetId)
	}
	if _, ok := s.tokensByName[entry.Name]; ok {
		return errors.Wrapf(errs.AlreadyExists, "token with name %q", entry.Name)
	}
	s.tokens[entry.AssetId] = entry.Clone()
	s.tokensByName[entry.Name] = entry.AssetId
	members, ok := s.tokensBySeries[entry.SeriesAssetId]
	if !ok {
		members = make(map[entity.AssetId]struct{})
		s.tokensBySeries[entry.SeriesAssetId] = members
	}
	members[entry.AssetId] = struct{}{}
	return nil
}

func updateToken(s *state, entry *entity.TokenEntry) error {
	if _, ok := s.tokens[entry.AssetId]; !ok {
		return errors.Wrapf(errs.NotFound, "token for asset %s", entry.AssetId)
	}
	s.tokens[entry.AssetId] = entry.Clone()
	return nil
}

func adjustAssetSupply(s *state, assetId entity.AssetId, delta int64) error {
	asset, ok := s.assets[assetId]
	if !ok {
		return errors.Wrapf(errs.NotFound, "asset %s", assetId)
	}
	supply := asset.CurrentSupply + delta
	if supply < 0 {
		return errors.Wrapf(errs.InvalidState, "asset %s supply %d + %d would be negative", assetId, asset.CurrentSupply, delta)
	}
	if asset.MaxSupply >= 0 && supply > asset.MaxSupply {
		return errors.Wrapf(errs.InvalidState, "asset %s supply %d + %d exceeds max supply %d", assetId, asset.CurrentSupply, delta, asset.MaxSupply)
	}
	asset.CurrentSupply = supply
	return nil
}

func adjustBalance(s *state, account entity.AccountId, asset entity.AssetId, delta int64) error {
	key := balanceKey{Account: account, Asset: asset}
	balance := s.balances[key] + delta
	if balance < 0 {
		return errors.Wrapf(errs.InvalidState, "account %s balance %d + %d of asset %s would be negative", account, s.balances[key], delta, asset)
	}
	if balance == 0 {
		delete(s.balances, key)
		return nil
	}
	s.balances[key] = balance
	return nil
}

func createRoyaltyPaidEvent(s *state, event *entity.RoyaltyPaidEvent) {
	s.eventSeq++
	clone := *event
	clone.Id = s.eventSeq
	s.royaltyPaidEvents = append(s.royaltyPaidEvents, &clone)
}

func createRedemptionEvent(s *state, event *entity.RedemptionEvent) {
	s.eventSeq++
	clone := *event
	clone.Id = s.eventSeq
	s.redemptionEvents = append(s.redemptionEvents, &clone)
}
