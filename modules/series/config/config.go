package config

import (
	"github.com/mintvault/series-ledger/internal/postgres"
	"github.com/mintvault/series-ledger/modules/series/internal/evaluator"
)

type Config struct {
	Database string          `mapstructure:"database"` // Database to store series ledger state. e.g. `postgres` | `memory`
	Postgres postgres.Config `mapstructure:"postgres"`

	// SettlementAssetId is the asset backing collateral and royalties are
	// denominated in. Defaults to the core asset.
	SettlementAssetId string `mapstructure:"settlement_asset_id"`

	// Activation gates each ledger capability on ledger time.
	Activation evaluator.ActivationSchedule `mapstructure:"activation"`

	APIHandlers []string `mapstructure:"api_handlers"` // e.g. `http`
}
