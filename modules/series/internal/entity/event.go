package entity

import "time"

// RoyaltyPaidEvent is emitted exactly once per secondary transfer that
// collected a royalty into a token's reservoir.
type RoyaltyPaidEvent struct {
	Id             uint64
	TokenAssetId   AssetId
	Payer          AccountId
	TransferAmount int64
	RoyaltyAmount  int64
	Timestamp      time.Time
}

// RedemptionEvent is emitted exactly once per return that redeemed backing
// collateral to the bearer.
type RedemptionEvent struct {
	Id              uint64
	TokenAssetId    AssetId
	Bearer          AccountId
	AmountReturned  int64
	BackingRedeemed int64
	Timestamp       time.Time
}
