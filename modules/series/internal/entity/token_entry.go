package entity

import (
	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/pkg/safemath"
)

// TokenEntry is the ledger record of one minted sub-asset within a series'
// inventory. Amounts are subdivisions of the token asset; prices, backing and
// the royalty reservoir are denominated in the settlement asset.
//
// MinPricePerSubdivision and RequiredBackingPerSubdivision are fixed at first
// mint; subsequent mints may only add supply. CurrentBacking always equals
// cumulative backing collected minus cumulative backing redeemed. A token is
// never deleted.
type TokenEntry struct {
	AssetId       AssetId
	Name          string
	SeriesAssetId AssetId
	Precision     uint8

	AmountMinted      int64
	AmountInInventory int64
	AmountBurned      int64

	MinPricePerSubdivision        int64
	RequiredBackingPerSubdivision int64
	CurrentBacking                int64
	RoyaltyReservoir              int64
}

// OneWholeUnit returns the subdivision count of one whole token unit,
// 10^precision. This bound caps mintable supply and circulation.
func (e *TokenEntry) OneWholeUnit() (int64, error) {
	unit, err := safemath.Pow10(e.Precision)
	if err != nil {
		return 0, errors.Wrapf(errs.InvariantViolation, "token %s has unusable precision %d", e.AssetId, e.Precision)
	}
	return unit, nil
}

// AmountInCirculation derives the supply currently outside inventory:
// minted - inventory - burned. The conservation identity
// minted == inventory + circulation + burned must hold at all times, with
// circulation in [0, 10^precision]; anything else is fatal state corruption.
func (e *TokenEntry) AmountInCirculation() (int64, error) {
	circulation := e.AmountMinted - e.AmountInInventory - e.AmountBurned
	if circulation < 0 {
		return 0, errors.Wrapf(errs.InvariantViolation,
			"token %s circulation is negative: minted %d, inventory %d, burned %d",
			e.AssetId, e.AmountMinted, e.AmountInInventory, e.AmountBurned)
	}
	unit, err := e.OneWholeUnit()
	if err != nil {
		return 0, err
	}
	if circulation > unit {
		return 0, errors.Wrapf(errs.InvariantViolation,
			"token %s circulation %d exceeds one whole unit %d", e.AssetId, circulation, unit)
	}
	return circulation, nil
}

// RemainingMintable returns the supply that may still be minted: one whole
// unit minus cumulative burned minus cumulative minted.
func (e *TokenEntry) RemainingMintable() (int64, error) {
	unit, err := e.OneWholeUnit()
	if err != nil {
		return 0, err
	}
	remaining := unit - e.AmountBurned - e.AmountMinted
	if remaining < 0 {
		return 0, errors.Wrapf(errs.InvariantViolation,
			"token %s minted %d + burned %d exceeds one whole unit %d", e.AssetId, e.AmountMinted, e.AmountBurned, unit)
	}
	return remaining, nil
}

// IsBackable reports whether primary transfers of this token require
// settlement-asset collateral.
func (e *TokenEntry) IsBackable() bool {
	return e.RequiredBackingPerSubdivision > 0
}

func (e *TokenEntry) Clone() *TokenEntry {
	clone := *e
	return &clone
}
