package evaluator

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/constants"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/mintvault/series-ledger/pkg/safemath"
)

type transferContext struct {
	// token is nil when the transferred asset is not a registered token; the
	// transfer then moves the balance with no royalty involvement.
	token   *entity.TokenEntry
	royalty int64
	now     time.Time
}

func (p *Processor) evaluateTransfer(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op TransferOperation) (*transferContext, error) {
	now, err := dg.CurrentTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger time")
	}

	if op.Quantity <= 0 {
		return nil, validationErrorf(errs.InvalidArgument, "quantity must be positive, got %d", op.Quantity)
	}
	senderBalance, err := dg.GetBalance(ctx, op.From, op.AssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sender balance")
	}
	if op.Quantity > senderBalance {
		return nil, validationErrorf(errs.InvalidState,
			"sender %s holds %d of asset %s, cannot transfer %d", op.From, senderBalance, op.AssetId, op.Quantity)
	}
	if err := p.authz.CanHold(ctx, op.To, op.AssetId); err != nil {
		return nil, validationErrorf(errs.Unauthorized,
			"recipient %s is not authorized to hold asset %s: %v", op.To, op.AssetId, err)
	}

	token, err := dg.GetTokenByAssetId(ctx, op.AssetId)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return &transferContext{now: now}, nil
		}
		return nil, errors.Wrap(err, "failed to look up token")
	}
	if token.MinPricePerSubdivision == 0 {
		return &transferContext{token: token, now: now}, nil
	}
	series, err := dg.GetSeriesByAssetId(ctx, token.SeriesAssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get series of token")
	}
	if series.RoyaltyFeeRate == 0 {
		return &transferContext{token: token, now: now}, nil
	}
	if err := checkActivation(now, p.schedule.RoyaltyCollection, "royalty collection"); err != nil {
		return nil, err
	}

	settlement, err := dg.GetAsset(ctx, p.settlementAssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get settlement asset")
	}
	// royalty is assessed on the minimum sale value of the moved subdivisions,
	// rounded up so any positive notional pays at least one settlement unit
	notional, err := safemath.MulNarrow(op.Quantity, token.MinPricePerSubdivision, settlement.CurrentSupply)
	if err != nil {
		return nil, validationErrorf(errs.InvalidState,
			"notional value of transferring %d subdivisions of token %s exceeds the settlement supply", op.Quantity, token.AssetId)
	}
	royalty, err := safemath.CeilMulDiv(notional, series.RoyaltyFeeRate, constants.RoyaltyRateDenominator)
	if err != nil {
		return nil, validationErrorf(errs.InvalidState,
			"royalty on transferring %d subdivisions of token %s overflows", op.Quantity, token.AssetId)
	}
	if royalty > 0 {
		senderSettlement, err := dg.GetBalance(ctx, op.From, p.settlementAssetId)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get sender settlement balance")
		}
		if senderSettlement < royalty {
			return nil, validationErrorf(errs.InvalidState,
				"sender %s holds %d of the %d settlement units required for the royalty",
				op.From, senderSettlement, royalty)
		}
	}

	return &transferContext{token: token, royalty: royalty, now: now}, nil
}

func (p *Processor) applyTransfer(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op TransferOperation, ec *transferContext) (*Receipt, error) {
	if err := dg.AdjustBalance(ctx, op.From, op.AssetId, -op.Quantity); err != nil {
		return nil, invariant(err, "failed to debit sender after successful evaluation")
	}
	if err := dg.AdjustBalance(ctx, op.To, op.AssetId, op.Quantity); err != nil {
		return nil, invariant(err, "failed to credit recipient after successful evaluation")
	}

	receipt := &Receipt{RecordId: op.AssetId}
	if ec.royalty > 0 {
		if err := dg.AdjustBalance(ctx, op.From, p.settlementAssetId, -ec.royalty); err != nil {
			return nil, invariant(err, "failed to collect royalty after successful evaluation")
		}
		token := ec.token
		token.RoyaltyReservoir += ec.royalty
		if err := dg.UpdateToken(ctx, token); err != nil {
			return nil, invariant(err, "failed to update token record after successful evaluation")
		}
		event := &entity.RoyaltyPaidEvent{
			TokenAssetId:   token.AssetId,
			Payer:          op.From,
			TransferAmount: op.Quantity,
			RoyaltyAmount:  ec.royalty,
			Timestamp:      ec.now,
		}
		if err := dg.CreateRoyaltyPaidEvent(ctx, event); err != nil {
			return nil, invariant(err, "failed to record royalty event after successful evaluation")
		}
		receipt.RoyaltyPaid = ec.royalty
	}
	return receipt, nil
}
