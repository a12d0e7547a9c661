package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
)

func (u *Usecase) GetTokenByAssetId(ctx context.Context, assetId entity.AssetId) (*entity.TokenEntry, error) {
	token, err := u.seriesDg.GetTokenByAssetId(ctx, assetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get token by asset id")
	}
	return token, nil
}

func (u *Usecase) GetTokenByName(ctx context.Context, name string) (*entity.TokenEntry, error) {
	token, err := u.seriesDg.GetTokenByName(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get token by name")
	}
	return token, nil
}

func (u *Usecase) GetTokensBySeries(ctx context.Context, seriesAssetId entity.AssetId) ([]*entity.TokenEntry, error) {
	tokens, err := u.seriesDg.GetTokensBySeries(ctx, seriesAssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tokens by series")
	}
	return tokens, nil
}
