package evaluator

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
)

type burnContext struct {
	token *entity.TokenEntry
}

func (p *Processor) evaluateBurn(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op BurnOperation) (*burnContext, error) {
	now, err := dg.CurrentTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger time")
	}
	if err := checkActivation(now, p.schedule.Burn, "burn"); err != nil {
		return nil, err
	}

	token, err := dg.GetTokenByAssetId(ctx, op.AssetId)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, validationErrorf(errs.NotFound, "asset %s is not a registered token", op.AssetId)
		}
		return nil, errors.Wrap(err, "failed to get token")
	}
	anchor, err := dg.GetAsset(ctx, token.SeriesAssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get series anchor asset")
	}
	if op.Issuer != anchor.Issuer {
		return nil, validationErrorf(errs.Unauthorized,
			"series %s is issued by %s, not by operation issuer %s", anchor.Id, anchor.Issuer, op.Issuer)
	}

	if op.Quantity <= 0 {
		return nil, validationErrorf(errs.InvalidArgument, "quantity must be positive, got %d", op.Quantity)
	}
	if op.Quantity > token.AmountInInventory {
		return nil, validationErrorf(errs.InvalidState,
			"quantity %d exceeds inventory %d of token %s", op.Quantity, token.AmountInInventory, token.AssetId)
	}

	asset, err := dg.GetAsset(ctx, op.AssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get token asset")
	}
	if op.Quantity > asset.CurrentSupply {
		return nil, invariant(
			errors.Newf("token %s inventory %d exceeds asset current supply %d",
				token.AssetId, token.AmountInInventory, asset.CurrentSupply),
			"inventory and asset supply diverged")
	}

	return &burnContext{token: token}, nil
}

func (p *Processor) applyBurn(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op BurnOperation, ec *burnContext) (*Receipt, error) {
	token := ec.token
	token.AmountInInventory -= op.Quantity
	token.AmountBurned += op.Quantity
	if err := dg.UpdateToken(ctx, token); err != nil {
		return nil, invariant(err, "failed to update token record after successful evaluation")
	}
	if err := dg.AdjustAssetSupply(ctx, token.AssetId, -op.Quantity); err != nil {
		return nil, invariant(err, "failed to lower asset supply after successful evaluation")
	}
	if _, err := token.AmountInCirculation(); err != nil {
		return nil, err
	}
	return &Receipt{RecordId: token.AssetId}, nil
}
