package constants

const (
	Version   = "v0.0.1"
	DBVersion = 1
)

const (
	// RoyaltyClaimCount is the fixed total of royalty claim shares per series.
	// A series' anchor asset is created with exactly this supply at precision
	// zero, and the value-sum of a series' royalty claims table equals this
	// constant at all times.
	RoyaltyClaimCount int64 = 100

	// RoyaltyRateDenominator is the fixed-point base for royalty fee rates:
	// rates are expressed in hundredths of a percent, so 10000 == 100%.
	RoyaltyRateDenominator int64 = 10000

	// SubAssetSeparator splits a sub-asset symbol into its parent symbol and
	// suffix, e.g. "SERIESA.SUB1".
	SubAssetSeparator = "."

	// MaxAssetSymbolLength bounds asset symbols. A series anchor symbol must
	// leave headroom for at least the separator plus a one-character suffix.
	MaxAssetSymbolLength = 16

	// MaxTokenPrecision is the largest sub-asset precision whose one-whole-unit
	// subdivision count (10^precision) fits an int64 amount.
	MaxTokenPrecision uint8 = 18
)

// DefaultSettlementAssetId is the asset in which token prices, backing
// collateral and royalties are denominated unless configured otherwise.
const DefaultSettlementAssetId = "CORE"
