package evaluator

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/mintvault/series-ledger/pkg/safemath"
)

type primaryTransferContext struct {
	token *entity.TokenEntry
	// backingAmount is zero for non-backable tokens.
	backingAmount int64
	provisioner   entity.AccountId
}

func (p *Processor) evaluatePrimaryTransfer(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op PrimaryTransferOperation) (*primaryTransferContext, error) {
	now, err := dg.CurrentTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger time")
	}
	if err := checkActivation(now, p.schedule.PrimaryTransfer, "primary transfer"); err != nil {
		return nil, err
	}

	token, err := dg.GetTokenByAssetId(ctx, op.AssetId)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, validationErrorf(errs.NotFound, "asset %s is not a registered token", op.AssetId)
		}
		return nil, errors.Wrap(err, "failed to get token")
	}
	series, err := dg.GetSeriesByAssetId(ctx, token.SeriesAssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get series of token")
	}
	if op.Manager != series.Manager {
		return nil, validationErrorf(errs.Unauthorized,
			"series %s is managed by %s, not by operation manager %s", series.AssetId, series.Manager, op.Manager)
	}
	if err := p.authz.CanHold(ctx, op.Recipient, token.AssetId); err != nil {
		return nil, validationErrorf(errs.Unauthorized,
			"recipient %s is not authorized to hold token %s: %v", op.Recipient, token.AssetId, err)
	}

	if op.Quantity <= 0 {
		return nil, validationErrorf(errs.InvalidArgument, "quantity must be positive, got %d", op.Quantity)
	}
	if op.Quantity > token.AmountInInventory {
		return nil, validationErrorf(errs.InvalidState,
			"quantity %d exceeds inventory %d of token %s", op.Quantity, token.AmountInInventory, token.AssetId)
	}

	if !token.IsBackable() {
		if op.Provisioner != nil {
			return nil, validationErrorf(errs.InvalidArgument,
				"token %s requires no backing, a provisioner must not be given", token.AssetId)
		}
		return &primaryTransferContext{token: token}, nil
	}

	if op.Provisioner == nil {
		return nil, validationErrorf(errs.InvalidArgument,
			"token %s requires backing of %d per subdivision, a provisioner is required",
			token.AssetId, token.RequiredBackingPerSubdivision)
	}
	backingAmount, err := safemath.MulNarrow(op.Quantity, token.RequiredBackingPerSubdivision, math.MaxInt64)
	if err != nil {
		return nil, validationErrorf(errs.InvalidState,
			"backing for %d subdivisions of token %s overflows", op.Quantity, token.AssetId)
	}
	provisionerBalance, err := dg.GetBalance(ctx, *op.Provisioner, p.settlementAssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get provisioner balance")
	}
	if provisionerBalance < backingAmount {
		return nil, validationErrorf(errs.InvalidState,
			"provisioner %s holds %d of the %d settlement units required to back the transfer",
			*op.Provisioner, provisionerBalance, backingAmount)
	}

	return &primaryTransferContext{token: token, backingAmount: backingAmount, provisioner: *op.Provisioner}, nil
}

func (p *Processor) applyPrimaryTransfer(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op PrimaryTransferOperation, ec *primaryTransferContext) (*Receipt, error) {
	token := ec.token
	if ec.backingAmount > 0 {
		if err := dg.AdjustBalance(ctx, ec.provisioner, p.settlementAssetId, -ec.backingAmount); err != nil {
			return nil, invariant(err, "failed to debit provisioner after successful evaluation")
		}
		token.CurrentBacking += ec.backingAmount
	}
	token.AmountInInventory -= op.Quantity
	if err := dg.UpdateToken(ctx, token); err != nil {
		return nil, invariant(err, "failed to update token record after successful evaluation")
	}
	if err := dg.AdjustBalance(ctx, op.Recipient, token.AssetId, op.Quantity); err != nil {
		return nil, invariant(err, "failed to credit recipient after successful evaluation")
	}
	if _, err := token.AmountInCirculation(); err != nil {
		return nil, err
	}
	return &Receipt{RecordId: token.AssetId, BackingCollected: ec.backingAmount}, nil
}
