package entity

import (
	"strings"

	"github.com/mintvault/series-ledger/modules/series/constants"
)

type (
	// AccountId identifies a ledger account.
	AccountId string
	// AssetId identifies a fungible asset on the ledger.
	AssetId string
)

// AssetFlag bits mirror the asset configuration maintained by the asset
// subsystem. Flags holds the live configuration; IssuerPermissions holds the
// bits the issuer may still toggle later. A behavior is permanently locked
// only when its permission bit is cleared.
type AssetFlag uint32

const (
	AssetFlagChargeMarketFee AssetFlag = 1 << iota
	AssetFlagLockMaxSupply
	AssetFlagDisableNewSupply
	AssetFlagTransferRestricted
)

// Asset is the ledger record of a fungible asset. Asset creation and generic
// balance transfers are owned by an external subsystem; this module only
// reads asset records and adjusts current supply through the state store.
type Asset struct {
	Id                AssetId
	Symbol            string
	Precision         uint8
	Issuer            AccountId
	CurrentSupply     int64
	MaxSupply         int64
	Flags             AssetFlag
	IssuerPermissions AssetFlag

	MarketIssued       bool
	LiquidityPoolShare bool
}

// FlagPermanentlyEnabled reports whether flag is active and can never be
// cleared by the issuer.
func (a *Asset) FlagPermanentlyEnabled(flag AssetFlag) bool {
	return a.Flags&flag != 0 && a.IssuerPermissions&flag == 0
}

// FlagPermanentlyDisabled reports whether flag is inactive and can never be
// set by the issuer.
func (a *Asset) FlagPermanentlyDisabled(flag AssetFlag) bool {
	return a.Flags&flag == 0 && a.IssuerPermissions&flag == 0
}

// IsSubAsset reports whether the symbol names a sub-asset of a parent asset.
func (a *Asset) IsSubAsset() bool {
	return strings.Contains(a.Symbol, constants.SubAssetSeparator)
}

// ParentSymbol returns the parent portion of a sub-asset symbol.
func (a *Asset) ParentSymbol() (string, bool) {
	parent, _, found := strings.Cut(a.Symbol, constants.SubAssetSeparator)
	if !found {
		return "", false
	}
	return parent, true
}

func (a *Asset) Clone() *Asset {
	clone := *a
	return &clone
}
