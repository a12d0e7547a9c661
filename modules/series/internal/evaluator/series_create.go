package evaluator

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/constants"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/samber/lo"
)

type seriesCreateContext struct {
	anchor  *entity.Asset
	manager entity.AccountId
}

func (p *Processor) evaluateSeriesCreate(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op SeriesCreateOperation) (*seriesCreateContext, error) {
	now, err := dg.CurrentTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger time")
	}
	if err := checkActivation(now, p.schedule.SeriesCreation, "series creation"); err != nil {
		return nil, err
	}

	if op.RoyaltyFeeRate < 0 || op.RoyaltyFeeRate > constants.RoyaltyRateDenominator {
		return nil, validationErrorf(errs.InvalidArgument,
			"royalty fee rate %d out of range [0, %d]", op.RoyaltyFeeRate, constants.RoyaltyRateDenominator)
	}

	manager := lo.FromPtrOr(op.Manager, op.Issuer)
	for _, account := range []entity.AccountId{op.Beneficiary, manager} {
		exists, err := dg.AccountExists(ctx, account)
		if err != nil {
			return nil, errors.Wrap(err, "failed to look up account")
		}
		if !exists {
			return nil, validationErrorf(errs.NotFound, "account %s does not exist", account)
		}
	}

	anchor, err := dg.GetAsset(ctx, op.AnchorAssetId)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, validationErrorf(errs.NotFound, "anchor asset %s does not exist", op.AnchorAssetId)
		}
		return nil, errors.Wrap(err, "failed to get anchor asset")
	}
	if anchor.Issuer != op.Issuer {
		return nil, validationErrorf(errs.Unauthorized,
			"asset %s is issued by %s, not by operation issuer %s", anchor.Id, anchor.Issuer, op.Issuer)
	}

	if anchor.IsSubAsset() {
		return nil, validationErrorf(errs.InvalidArgument,
			"asset symbol %q is a sub-asset name and cannot anchor a series", anchor.Symbol)
	}
	// headroom for the separator plus at least a one-character suffix
	if len(anchor.Symbol)+len(constants.SubAssetSeparator)+1 > constants.MaxAssetSymbolLength {
		return nil, validationErrorf(errs.InvalidArgument,
			"asset symbol %q leaves no room for sub-asset names within %d characters", anchor.Symbol, constants.MaxAssetSymbolLength)
	}

	if anchor.Precision != 0 {
		return nil, validationErrorf(errs.InvalidState,
			"anchor asset %s has precision %d, a series anchor requires precision 0", anchor.Id, anchor.Precision)
	}
	if anchor.CurrentSupply != constants.RoyaltyClaimCount || anchor.MaxSupply != constants.RoyaltyClaimCount {
		return nil, validationErrorf(errs.InvalidState,
			"anchor asset %s supply is %d/%d, a series anchor requires current and max supply of exactly %d",
			anchor.Id, anchor.CurrentSupply, anchor.MaxSupply, constants.RoyaltyClaimCount)
	}

	issuerBalance, err := dg.GetBalance(ctx, op.Issuer, anchor.Id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get issuer balance")
	}
	if issuerBalance != constants.RoyaltyClaimCount {
		return nil, validationErrorf(errs.InvalidState,
			"issuer %s holds %d of %d units of anchor asset %s, the entire supply is required",
			op.Issuer, issuerBalance, constants.RoyaltyClaimCount, anchor.Id)
	}

	if !anchor.FlagPermanentlyEnabled(entity.AssetFlagLockMaxSupply) {
		return nil, validationErrorf(errs.InvalidState,
			"anchor asset %s must permanently lock its max supply", anchor.Id)
	}
	if !anchor.FlagPermanentlyDisabled(entity.AssetFlagChargeMarketFee) {
		return nil, validationErrorf(errs.InvalidState,
			"anchor asset %s must permanently disable market fees", anchor.Id)
	}

	if _, err := dg.GetSeriesByAssetId(ctx, anchor.Id); err == nil {
		return nil, validationErrorf(errs.AlreadyExists, "asset %s is already a series", anchor.Id)
	} else if !errors.Is(err, errs.NotFound) {
		return nil, errors.Wrap(err, "failed to look up series by anchor asset")
	}
	if _, err := dg.GetSeriesByName(ctx, anchor.Symbol); err == nil {
		return nil, validationErrorf(errs.AlreadyExists, "a series named %q already exists", anchor.Symbol)
	} else if !errors.Is(err, errs.NotFound) {
		return nil, errors.Wrap(err, "failed to look up series by name")
	}

	hasSubAssets, err := dg.HasAssetWithSymbolPrefix(ctx, anchor.Symbol+constants.SubAssetSeparator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up sub-assets")
	}
	if hasSubAssets {
		return nil, validationErrorf(errs.InvalidState,
			"asset %s already has sub-assets under %q and cannot become a series", anchor.Id, anchor.Symbol+constants.SubAssetSeparator)
	}

	return &seriesCreateContext{anchor: anchor, manager: manager}, nil
}

func (p *Processor) applySeriesCreate(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op SeriesCreateOperation, ec *seriesCreateContext) (*Receipt, error) {
	entry := entity.NewSeriesEntry(ec.anchor.Id, ec.anchor.Symbol, op.RoyaltyFeeRate, op.Beneficiary, ec.manager, op.Issuer)
	if err := entry.CheckClaimsInvariant(); err != nil {
		return nil, err
	}
	if err := dg.CreateSeries(ctx, entry); err != nil {
		return nil, invariant(err, "failed to create series record after successful evaluation")
	}
	return &Receipt{RecordId: entry.AssetId}, nil
}
