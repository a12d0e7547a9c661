package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
)

func (u *Usecase) GetSeriesByAssetId(ctx context.Context, assetId entity.AssetId) (*entity.SeriesEntry, error) {
	series, err := u.seriesDg.GetSeriesByAssetId(ctx, assetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get series by asset id")
	}
	return series, nil
}

func (u *Usecase) GetSeriesByName(ctx context.Context, name string) (*entity.SeriesEntry, error) {
	series, err := u.seriesDg.GetSeriesByName(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get series by name")
	}
	return series, nil
}

func (u *Usecase) GetAsset(ctx context.Context, assetId entity.AssetId) (*entity.Asset, error) {
	asset, err := u.seriesDg.GetAsset(ctx, assetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get asset")
	}
	return asset, nil
}
