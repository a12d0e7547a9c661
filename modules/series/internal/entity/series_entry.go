package entity

import (
	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/constants"
)

// SeriesEntry is the ledger record of an NFT series anchored to one fungible
// asset. Name duplicates the anchor asset's symbol. The royalty claims table
// maps accounts to their share of the fixed total claim count; entries exist
// only for nonzero shares and the value-sum is always exactly
// constants.RoyaltyClaimCount.
//
// Manager and beneficiary are immutable after creation. A series is never
// deleted.
type SeriesEntry struct {
	AssetId AssetId
	Name    string
	// RoyaltyFeeRate is in hundredths of a percent, range [0, 10000].
	RoyaltyFeeRate int64
	Beneficiary    AccountId
	Manager        AccountId
	RoyaltyClaims  map[AccountId]int64
}

// NewSeriesEntry seeds the royalty claims table with the entire claim count
// assigned to the issuer.
func NewSeriesEntry(assetId AssetId, name string, royaltyFeeRate int64, beneficiary, manager, issuer AccountId) *SeriesEntry {
	return &SeriesEntry{
		AssetId:        assetId,
		Name:           name,
		RoyaltyFeeRate: royaltyFeeRate,
		Beneficiary:    beneficiary,
		Manager:        manager,
		RoyaltyClaims: map[AccountId]int64{
			issuer: constants.RoyaltyClaimCount,
		},
	}
}

// ClaimBalance returns the claim share held by account, zero if absent.
func (e *SeriesEntry) ClaimBalance(account AccountId) int64 {
	return e.RoyaltyClaims[account]
}

// TotalClaims sums the royalty claims table.
func (e *SeriesEntry) TotalClaims() int64 {
	var total int64
	for _, shares := range e.RoyaltyClaims {
		total += shares
	}
	return total
}

// CheckClaimsInvariant verifies the table value-sum equals the fixed claim
// count. A mismatch means the table was corrupted and is fatal.
func (e *SeriesEntry) CheckClaimsInvariant() error {
	if total := e.TotalClaims(); total != constants.RoyaltyClaimCount {
		return errors.Wrapf(errs.InvariantViolation,
			"series %s royalty claims sum to %d, want %d", e.AssetId, total, constants.RoyaltyClaimCount)
	}
	return nil
}

// TransferRoyaltyClaims moves quantity claim shares from one account's entry
// to another's. The sender entry is removed entirely when it reaches zero.
// The table value-sum is preserved.
func (e *SeriesEntry) TransferRoyaltyClaims(from, to AccountId, quantity int64) error {
	if quantity <= 0 {
		return errs.WithPublicMessage(errors.Wrapf(errs.InvalidArgument,
			"royalty claim transfer quantity must be positive, got %d", quantity), "")
	}
	if quantity > constants.RoyaltyClaimCount {
		return errs.WithPublicMessage(errors.Wrapf(errs.InvalidArgument,
			"royalty claim transfer quantity %d exceeds total claim count %d", quantity, constants.RoyaltyClaimCount), "")
	}
	fromBalance := e.ClaimBalance(from)
	if fromBalance < quantity {
		return errs.WithPublicMessage(errors.Wrapf(errs.InvalidState,
			"account %s holds %d claim shares of series %s, cannot transfer %d", from, fromBalance, e.AssetId, quantity), "")
	}
	toBalance := e.ClaimBalance(to)
	if toBalance+quantity > constants.RoyaltyClaimCount {
		return errs.WithPublicMessage(errors.Wrapf(errs.InvalidState,
			"account %s claim balance %d + %d would exceed total claim count %d", to, toBalance, quantity, constants.RoyaltyClaimCount), "")
	}

	if fromBalance == quantity {
		delete(e.RoyaltyClaims, from)
	} else {
		e.RoyaltyClaims[from] = fromBalance - quantity
	}
	e.RoyaltyClaims[to] = toBalance + quantity

	return e.CheckClaimsInvariant()
}

func (e *SeriesEntry) Clone() *SeriesEntry {
	clone := *e
	clone.RoyaltyClaims = make(map[AccountId]int64, len(e.RoyaltyClaims))
	for account, shares := range e.RoyaltyClaims {
		clone.RoyaltyClaims[account] = shares
	}
	return &clone
}
