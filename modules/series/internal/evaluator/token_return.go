package evaluator

import (
	"context"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/mintvault/series-ledger/pkg/safemath"
)

type returnContext struct {
	token *entity.TokenEntry
	// redemption is zero for non-backable tokens.
	redemption int64
	now        time.Time
}

func (p *Processor) evaluateReturn(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op ReturnOperation) (*returnContext, error) {
	now, err := dg.CurrentTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger time")
	}
	if err := checkActivation(now, p.schedule.Return, "return"); err != nil {
		return nil, err
	}

	token, err := dg.GetTokenByAssetId(ctx, op.AssetId)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, validationErrorf(errs.NotFound, "asset %s is not a registered token", op.AssetId)
		}
		return nil, errors.Wrap(err, "failed to get token")
	}
	asset, err := dg.GetAsset(ctx, op.AssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get token asset")
	}
	if asset.Flags&entity.AssetFlagTransferRestricted != 0 {
		anchor, err := dg.GetAsset(ctx, token.SeriesAssetId)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get series anchor asset")
		}
		if op.Bearer != anchor.Issuer {
			return nil, validationErrorf(errs.Unauthorized,
				"token %s is transfer-restricted, only issuer %s may return it", token.AssetId, anchor.Issuer)
		}
	}
	if err := p.authz.CanHold(ctx, op.Bearer, p.settlementAssetId); err != nil {
		return nil, validationErrorf(errs.Unauthorized,
			"bearer %s is not authorized to receive redeemed backing: %v", op.Bearer, err)
	}

	if op.Quantity <= 0 {
		return nil, validationErrorf(errs.InvalidArgument, "quantity must be positive, got %d", op.Quantity)
	}
	bearerBalance, err := dg.GetBalance(ctx, op.Bearer, token.AssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bearer balance")
	}
	if op.Quantity > bearerBalance {
		return nil, validationErrorf(errs.InvalidState,
			"bearer %s holds %d of token %s, cannot return %d", op.Bearer, bearerBalance, token.AssetId, op.Quantity)
	}
	circulation, err := token.AmountInCirculation()
	if err != nil {
		return nil, err
	}
	if op.Quantity > circulation {
		return nil, validationErrorf(errs.InvalidState,
			"quantity %d exceeds circulation %d of token %s", op.Quantity, circulation, token.AssetId)
	}

	var redemption int64
	if token.IsBackable() {
		redemption, err = safemath.MulNarrow(op.Quantity, token.RequiredBackingPerSubdivision, math.MaxInt64)
		if err != nil {
			return nil, validationErrorf(errs.InvalidState,
				"redemption for %d subdivisions of token %s overflows", op.Quantity, token.AssetId)
		}
		if redemption > token.CurrentBacking {
			return nil, validationErrorf(errs.InvalidState,
				"token %s backing %d cannot cover redemption %d", token.AssetId, token.CurrentBacking, redemption)
		}
	}

	return &returnContext{token: token, redemption: redemption, now: now}, nil
}

func (p *Processor) applyReturn(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op ReturnOperation, ec *returnContext) (*Receipt, error) {
	token := ec.token
	if err := dg.AdjustBalance(ctx, op.Bearer, token.AssetId, -op.Quantity); err != nil {
		return nil, invariant(err, "failed to debit bearer after successful evaluation")
	}
	token.AmountInInventory += op.Quantity
	if ec.redemption > 0 {
		token.CurrentBacking -= ec.redemption
		if err := dg.AdjustBalance(ctx, op.Bearer, p.settlementAssetId, ec.redemption); err != nil {
			return nil, invariant(err, "failed to credit redeemed backing after successful evaluation")
		}
	}
	if err := dg.UpdateToken(ctx, token); err != nil {
		return nil, invariant(err, "failed to update token record after successful evaluation")
	}
	if ec.redemption > 0 {
		event := &entity.RedemptionEvent{
			TokenAssetId:    token.AssetId,
			Bearer:          op.Bearer,
			AmountReturned:  op.Quantity,
			BackingRedeemed: ec.redemption,
			Timestamp:       ec.now,
		}
		if err := dg.CreateRedemptionEvent(ctx, event); err != nil {
			return nil, invariant(err, "failed to record redemption event after successful evaluation")
		}
	}
	if _, err := token.AmountInCirculation(); err != nil {
		return nil, err
	}
	return &Receipt{RecordId: token.AssetId, BackingRedeemed: ec.redemption}, nil
}
