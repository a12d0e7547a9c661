package evaluator

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/constants"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/mintvault/series-ledger/pkg/safemath"
)

type mintContext struct {
	target *entity.Asset
	series *entity.SeriesEntry
	// token is nil on the first mint for the asset.
	token        *entity.TokenEntry
	oneWholeUnit int64
}

func (p *Processor) evaluateMint(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op MintOperation) (*mintContext, error) {
	now, err := dg.CurrentTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger time")
	}
	if err := checkActivation(now, p.schedule.Minting, "minting"); err != nil {
		return nil, err
	}

	if op.Subdivisions <= 0 {
		return nil, validationErrorf(errs.InvalidArgument, "subdivisions to mint must be positive, got %d", op.Subdivisions)
	}
	if op.MinPricePerSubdivision < 0 || op.RequiredBackingPerSubdivision < 0 {
		return nil, validationErrorf(errs.InvalidArgument,
			"min price %d and required backing %d must be non-negative", op.MinPricePerSubdivision, op.RequiredBackingPerSubdivision)
	}
	if op.RequiredBackingPerSubdivision > op.MinPricePerSubdivision {
		return nil, validationErrorf(errs.InvalidArgument,
			"required backing %d per subdivision exceeds min price %d", op.RequiredBackingPerSubdivision, op.MinPricePerSubdivision)
	}

	target, err := dg.GetAsset(ctx, op.AssetId)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, validationErrorf(errs.NotFound, "asset %s does not exist", op.AssetId)
		}
		return nil, errors.Wrap(err, "failed to get target asset")
	}
	if target.Flags&entity.AssetFlagDisableNewSupply != 0 {
		return nil, validationErrorf(errs.InvalidState, "asset %s does not permit new supply", target.Id)
	}
	if target.LiquidityPoolShare {
		return nil, validationErrorf(errs.InvalidState, "asset %s is a liquidity pool share and cannot be minted as a token", target.Id)
	}
	if target.MarketIssued {
		return nil, validationErrorf(errs.InvalidState, "asset %s is market-issued and cannot be minted as a token", target.Id)
	}

	parentSymbol, ok := target.ParentSymbol()
	if !ok {
		return nil, validationErrorf(errs.InvalidArgument,
			"asset symbol %q is not a sub-asset name", target.Symbol)
	}
	parent, err := dg.GetAssetBySymbol(ctx, parentSymbol)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, validationErrorf(errs.NotFound, "parent asset %q of %q does not exist", parentSymbol, target.Symbol)
		}
		return nil, errors.Wrap(err, "failed to get parent asset")
	}
	if op.Issuer != parent.Issuer {
		return nil, validationErrorf(errs.Unauthorized,
			"parent asset %s is issued by %s, not by operation issuer %s", parent.Id, parent.Issuer, op.Issuer)
	}

	series, err := dg.GetSeriesByAssetId(ctx, parent.Id)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, validationErrorf(errs.InvalidState,
				"parent asset %s of %q is not a registered series", parent.Id, target.Symbol)
		}
		return nil, errors.Wrap(err, "failed to look up parent series")
	}

	if target.Precision > constants.MaxTokenPrecision {
		return nil, validationErrorf(errs.InvalidArgument,
			"asset %s precision %d exceeds the maximum token precision %d", target.Id, target.Precision, constants.MaxTokenPrecision)
	}
	oneWholeUnit, err := safemath.Pow10(target.Precision)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute one whole unit")
	}

	newSupply, err := safemath.AddNarrow(target.CurrentSupply, op.Subdivisions)
	if err != nil {
		return nil, validationErrorf(errs.InvalidState,
			"minting %d subdivisions overflows the supply of asset %s", op.Subdivisions, target.Id)
	}
	if newSupply > oneWholeUnit {
		return nil, validationErrorf(errs.InvalidState,
			"minting %d subdivisions raises supply of asset %s to %d, above the one-whole-unit capacity %d",
			op.Subdivisions, target.Id, newSupply, oneWholeUnit)
	}
	if newSupply > target.MaxSupply {
		return nil, validationErrorf(errs.InvalidState,
			"minting %d subdivisions raises supply of asset %s to %d, above its max supply %d",
			op.Subdivisions, target.Id, newSupply, target.MaxSupply)
	}

	token, err := dg.GetTokenByAssetId(ctx, target.Id)
	switch {
	case err == nil:
		remaining, err := token.RemainingMintable()
		if err != nil {
			return nil, err
		}
		if op.Subdivisions > remaining {
			return nil, validationErrorf(errs.InvalidState,
				"minting %d subdivisions of token %s exceeds remaining mintable capacity %d", op.Subdivisions, token.AssetId, remaining)
		}
		if op.MinPricePerSubdivision != token.MinPricePerSubdivision {
			return nil, validationErrorf(errs.InvalidArgument,
				"changing min price is prohibited: token %s was minted at %d, got %d",
				token.AssetId, token.MinPricePerSubdivision, op.MinPricePerSubdivision)
		}
		if op.RequiredBackingPerSubdivision != token.RequiredBackingPerSubdivision {
			return nil, validationErrorf(errs.InvalidArgument,
				"changing required backing is prohibited: token %s was minted at %d, got %d",
				token.AssetId, token.RequiredBackingPerSubdivision, op.RequiredBackingPerSubdivision)
		}
	case errors.Is(err, errs.NotFound):
		// supply created before inventory tracking began would break the
		// conservation invariant, reject instead of absorbing it
		if target.CurrentSupply != 0 {
			return nil, validationErrorf(errs.InvalidState,
				"asset %s has pre-existing supply %d outside inventory tracking and cannot be minted as a token",
				target.Id, target.CurrentSupply)
		}
		token = nil
	default:
		return nil, errors.Wrap(err, "failed to look up token")
	}

	settlement, err := dg.GetAsset(ctx, p.settlementAssetId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get settlement asset")
	}
	// liability bounds use the token's one-whole-unit capacity rather than the
	// amount actually minted: the worst case once fully minted
	if _, err := safemath.MulNarrow(oneWholeUnit, op.RequiredBackingPerSubdivision, settlement.MaxSupply); err != nil {
		return nil, validationErrorf(errs.InvalidState,
			"maximum conceivable backing liability of token %s (%d x %d) exceeds the settlement asset max supply %d",
			target.Id, oneWholeUnit, op.RequiredBackingPerSubdivision, settlement.MaxSupply)
	}
	notional, err := safemath.MulNarrow(oneWholeUnit, op.MinPricePerSubdivision, math.MaxInt64)
	if err != nil {
		return nil, validationErrorf(errs.InvalidState,
			"maximum conceivable sale value of token %s (%d x %d) overflows", target.Id, oneWholeUnit, op.MinPricePerSubdivision)
	}
	royaltyLiability, err := safemath.CeilMulDiv(notional, series.RoyaltyFeeRate, constants.RoyaltyRateDenominator)
	if err != nil {
		return nil, validationErrorf(errs.InvalidState,
			"maximum conceivable royalty liability of token %s overflows", target.Id)
	}
	if royaltyLiability > settlement.CurrentSupply {
		return nil, validationErrorf(errs.InvalidState,
			"maximum conceivable royalty liability %d of token %s exceeds the settlement asset current supply %d",
			royaltyLiability, target.Id, settlement.CurrentSupply)
	}

	return &mintContext{target: target, series: series, token: token, oneWholeUnit: oneWholeUnit}, nil
}

func (p *Processor) applyMint(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op MintOperation, ec *mintContext) (*Receipt, error) {
	token := ec.token
	if token == nil {
		token = &entity.TokenEntry{
			AssetId:                       ec.target.Id,
			Name:                          ec.target.Symbol,
			SeriesAssetId:                 ec.series.AssetId,
			Precision:                     ec.target.Precision,
			AmountMinted:                  op.Subdivisions,
			AmountInInventory:             op.Subdivisions,
			MinPricePerSubdivision:        op.MinPricePerSubdivision,
			RequiredBackingPerSubdivision: op.RequiredBackingPerSubdivision,
		}
		if err := dg.CreateToken(ctx, token); err != nil {
			return nil, invariant(err, "failed to create token record after successful evaluation")
		}
	} else {
		token.AmountMinted += op.Subdivisions
		token.AmountInInventory += op.Subdivisions
		if err := dg.UpdateToken(ctx, token); err != nil {
			return nil, invariant(err, "failed to update token record after successful evaluation")
		}
	}

	if err := dg.AdjustAssetSupply(ctx, ec.target.Id, op.Subdivisions); err != nil {
		return nil, invariant(err, "failed to raise asset supply after successful evaluation")
	}
	if _, err := token.AmountInCirculation(); err != nil {
		return nil, err
	}
	return &Receipt{RecordId: token.AssetId}, nil
}
