package evaluator

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
)

type royaltyClaimTransferContext struct {
	// entry is a clone carrying the claims table after the transfer.
	entry *entity.SeriesEntry
}

func (p *Processor) evaluateRoyaltyClaimTransfer(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op RoyaltyClaimTransferOperation) (*royaltyClaimTransferContext, error) {
	series, err := dg.GetSeriesByAssetId(ctx, op.SeriesAssetId)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, validationErrorf(errs.NotFound, "asset %s is not a registered series", op.SeriesAssetId)
		}
		return nil, errors.Wrap(err, "failed to get series")
	}
	for _, account := range []entity.AccountId{op.From, op.To} {
		exists, err := dg.AccountExists(ctx, account)
		if err != nil {
			return nil, errors.Wrap(err, "failed to look up account")
		}
		if !exists {
			return nil, validationErrorf(errs.NotFound, "account %s does not exist", account)
		}
	}

	// transfer on a clone so evaluation stays pure
	entry := series.Clone()
	if err := entry.TransferRoyaltyClaims(op.From, op.To, op.Quantity); err != nil {
		return nil, err
	}
	return &royaltyClaimTransferContext{entry: entry}, nil
}

func (p *Processor) applyRoyaltyClaimTransfer(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op RoyaltyClaimTransferOperation, ec *royaltyClaimTransferContext) (*Receipt, error) {
	if err := ec.entry.CheckClaimsInvariant(); err != nil {
		return nil, err
	}
	if err := dg.UpdateSeriesRoyaltyClaims(ctx, ec.entry.AssetId, ec.entry.RoyaltyClaims); err != nil {
		return nil, invariant(err, "failed to update royalty claims after successful evaluation")
	}
	return &Receipt{RecordId: ec.entry.AssetId}, nil
}
