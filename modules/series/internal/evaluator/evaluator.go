// Package evaluator implements the deterministic state-transition pipeline
// for series and token operations.
//
// Every operation follows a two-phase contract: evaluate performs pure,
// side-effect-free validation against current ledger state and returns an
// eval context caching the records apply will need; apply performs the only
// permitted mutations. Evaluation failures are user errors and leave state
// untouched. Apply failures indicate corrupted state or a skipped evaluation
// and are marked errs.InvariantViolation: callers must treat them as fatal to
// the containing batch, never as recoverable user errors.
//
// The pipeline is strictly sequential. One operation is evaluated and applied
// to completion inside a single store transaction before the next begins;
// replicas replaying the same operations reach bit-identical state.
package evaluator

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/constants"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/mintvault/series-ledger/pkg/logger"
	"github.com/mintvault/series-ledger/pkg/logger/slogx"
)

// Authorizer is the generic whitelist/authorization check owned by an
// external collaborator. The pipeline consults it for accounts receiving or
// returning token balances; signature verification stays outside this core.
type Authorizer interface {
	CanHold(ctx context.Context, account entity.AccountId, asset entity.AssetId) error
}

// AllowAll authorizes every account for every asset.
type AllowAll struct{}

func (AllowAll) CanHold(ctx context.Context, account entity.AccountId, asset entity.AssetId) error {
	return nil
}

// ActivationSchedule gates each capability on ledger time. A zero time means
// the capability has been active since genesis.
type ActivationSchedule struct {
	SeriesCreation    time.Time `mapstructure:"series_creation"`
	Minting           time.Time `mapstructure:"minting"`
	PrimaryTransfer   time.Time `mapstructure:"primary_transfer"`
	Return            time.Time `mapstructure:"return"`
	Burn              time.Time `mapstructure:"burn"`
	RoyaltyCollection time.Time `mapstructure:"royalty_collection"`
}

// Receipt reports the outcome of a successfully applied operation.
type Receipt struct {
	// RecordId identifies the series or token record the operation touched.
	RecordId entity.AssetId
	// BackingCollected is the settlement amount moved into token backing by a
	// primary transfer.
	BackingCollected int64
	// BackingRedeemed is the settlement amount redeemed to the bearer by a return.
	BackingRedeemed int64
	// RoyaltyPaid is the settlement amount collected into the token's royalty
	// reservoir by a secondary transfer.
	RoyaltyPaid int64
}

type Processor struct {
	seriesDg          datagateway.SeriesDataGateway
	authz             Authorizer
	settlementAssetId entity.AssetId
	schedule          ActivationSchedule
}

func NewProcessor(seriesDg datagateway.SeriesDataGateway, authz Authorizer, settlementAssetId entity.AssetId, schedule ActivationSchedule) *Processor {
	if authz == nil {
		authz = AllowAll{}
	}
	if settlementAssetId == "" {
		settlementAssetId = entity.AssetId(constants.DefaultSettlementAssetId)
	}
	return &Processor{
		seriesDg:          seriesDg,
		authz:             authz,
		settlementAssetId: settlementAssetId,
		schedule:          schedule,
	}
}

// Execute evaluates and applies one operation inside a single store
// transaction. Evaluation failure rolls back with zero mutations. An error
// from the apply phase carries errs.InvariantViolation in its chain.
func (p *Processor) Execute(ctx context.Context, op Operation) (*Receipt, error) {
	dgTx, err := p.seriesDg.BeginSeriesTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := dgTx.Rollback(ctx); err != nil {
			logger.WarnContext(ctx, "failed to rollback transaction", slogx.Error(err))
		}
	}()

	receipt, err := p.execute(ctx, dgTx, op)
	if err != nil {
		return nil, err
	}
	if err := dgTx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return receipt, nil
}

func (p *Processor) execute(ctx context.Context, dg datagateway.SeriesDataGatewayWithTx, op Operation) (*Receipt, error) {
	switch op := op.(type) {
	case SeriesCreateOperation:
		ec, err := p.evaluateSeriesCreate(ctx, dg, op)
		if err != nil {
			return nil, errors.Wrap(err, "series create rejected")
		}
		return p.applySeriesCreate(ctx, dg, op, ec)
	case MintOperation:
		ec, err := p.evaluateMint(ctx, dg, op)
		if err != nil {
			return nil, errors.Wrap(err, "mint rejected")
		}
		return p.applyMint(ctx, dg, op, ec)
	case PrimaryTransferOperation:
		ec, err := p.evaluatePrimaryTransfer(ctx, dg, op)
		if err != nil {
			return nil, errors.Wrap(err, "primary transfer rejected")
		}
		return p.applyPrimaryTransfer(ctx, dg, op, ec)
	case ReturnOperation:
		ec, err := p.evaluateReturn(ctx, dg, op)
		if err != nil {
			return nil, errors.Wrap(err, "return rejected")
		}
		return p.applyReturn(ctx, dg, op, ec)
	case BurnOperation:
		ec, err := p.evaluateBurn(ctx, dg, op)
		if err != nil {
			return nil, errors.Wrap(err, "burn rejected")
		}
		return p.applyBurn(ctx, dg, op, ec)
	case RoyaltyClaimTransferOperation:
		ec, err := p.evaluateRoyaltyClaimTransfer(ctx, dg, op)
		if err != nil {
			return nil, errors.Wrap(err, "royalty claim transfer rejected")
		}
		return p.applyRoyaltyClaimTransfer(ctx, dg, op, ec)
	case TransferOperation:
		ec, err := p.evaluateTransfer(ctx, dg, op)
		if err != nil {
			return nil, errors.Wrap(err, "transfer rejected")
		}
		return p.applyTransfer(ctx, dg, op, ec)
	default:
		return nil, errors.Wrapf(errs.Unsupported, "operation kind %T", op)
	}
}

// validationErrorf builds a user-surfaceable evaluation error of the given kind.
func validationErrorf(kind errs.ErrorKind, format string, args ...any) error {
	return errs.WithPublicMessage(errors.Wrapf(kind, format, args...), "")
}

// checkActivation rejects the operation when ledger time has not reached the
// capability's activation time.
func checkActivation(now, activation time.Time, capability string) error {
	if activation.IsZero() || !now.Before(activation) {
		return nil
	}
	return validationErrorf(errs.InvalidState,
		"%s is not active until %s, ledger time is %s",
		capability, activation.Format(time.RFC3339), now.Format(time.RFC3339))
}

// invariant marks an apply-phase error as fatal state corruption.
func invariant(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), errs.InvariantViolation)
}
