package evaluator

import "github.com/mintvault/series-ledger/modules/series/internal/entity"

// Operation is the closed sum of ledger operation kinds this pipeline
// evaluates. Kinds outside this set are rejected by the dispatcher.
type Operation interface {
	operation()
}

// SeriesCreateOperation upgrades an existing fungible asset into a series
// anchor. Registering a series moves no funds or tokens.
type SeriesCreateOperation struct {
	Issuer        entity.AccountId
	AnchorAssetId entity.AssetId
	// RoyaltyFeeRate is in hundredths of a percent, range [0, 10000].
	RoyaltyFeeRate int64
	Beneficiary    entity.AccountId
	// Manager defaults to the issuer when nil.
	Manager *entity.AccountId
}

// MintOperation adds subdivisions of a sub-asset token into its series'
// inventory, creating the token record on first mint.
type MintOperation struct {
	Issuer       entity.AccountId
	AssetId      entity.AssetId
	Subdivisions int64
	// MinPricePerSubdivision and RequiredBackingPerSubdivision are in the
	// settlement asset and are fixed at first mint.
	MinPricePerSubdivision        int64
	RequiredBackingPerSubdivision int64
}

// PrimaryTransferOperation moves minted token subdivisions out of inventory
// into a recipient's balance, against required backing when the token is
// backable. Signatures of manager and provisioner are verified by the
// surrounding authorization framework, not here.
type PrimaryTransferOperation struct {
	AssetId   entity.AssetId
	Quantity  int64
	Recipient entity.AccountId
	// Manager must equal the series' registered manager.
	Manager entity.AccountId
	// Provisioner funds the backing collateral. Required iff the token's
	// required backing per subdivision is positive.
	Provisioner *entity.AccountId
}

// ReturnOperation moves token subdivisions from a bearer's balance back into
// inventory, redeeming backing collateral when the token is backable.
type ReturnOperation struct {
	AssetId  entity.AssetId
	Quantity int64
	Bearer   entity.AccountId
}

// BurnOperation permanently removes token subdivisions from inventory and
// from the asset's current supply.
type BurnOperation struct {
	AssetId  entity.AssetId
	Quantity int64
	Issuer   entity.AccountId
}

// RoyaltyClaimTransferOperation moves claim shares between accounts in a
// series' royalty claims table.
type RoyaltyClaimTransferOperation struct {
	SeriesAssetId entity.AssetId
	From          entity.AccountId
	To            entity.AccountId
	Quantity      int64
}

// TransferOperation is the secondary-market transfer of a token between
// bearers. Generic fungible transfer mechanics live outside this module; this
// thin kind exists so the royalty hook sees every token transfer.
type TransferOperation struct {
	AssetId  entity.AssetId
	Quantity int64
	From     entity.AccountId
	To       entity.AccountId
}

func (SeriesCreateOperation) operation()         {}
func (MintOperation) operation()                 {}
func (PrimaryTransferOperation) operation()      {}
func (ReturnOperation) operation()               {}
func (BurnOperation) operation()                 {}
func (RoyaltyClaimTransferOperation) operation() {}
func (TransferOperation) operation()             {}
