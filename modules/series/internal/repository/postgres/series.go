package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
)

const selectAsset = `
SELECT asset_id, symbol, precision, issuer, current_supply, max_supply, flags, issuer_permissions, market_issued, liquidity_pool_share
FROM series_assets
`

func scanAsset(row pgx.Row) (*entity.Asset, error) {
	var (
		asset             entity.Asset
		flags             int64
		issuerPermissions int64
	)
	err := row.Scan(
		&asset.Id, &asset.Symbol, &asset.Precision, &asset.Issuer,
		&asset.CurrentSupply, &asset.MaxSupply, &flags, &issuerPermissions,
		&asset.MarketIssued, &asset.LiquidityPoolShare,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	asset.Flags = entity.AssetFlag(flags)
	asset.IssuerPermissions = entity.AssetFlag(issuerPermissions)
	return &asset, nil
}

func (r *Repository) GetAsset(ctx context.Context, id entity.AssetId) (*entity.Asset, error) {
	row := r.queryable().QueryRow(ctx, selectAsset+`WHERE asset_id = $1`, string(id))
	return scanAsset(row)
}

func (r *Repository) GetAssetBySymbol(ctx context.Context, symbol string) (*entity.Asset, error) {
	row := r.queryable().QueryRow(ctx, selectAsset+`WHERE symbol = $1`, symbol)
	return scanAsset(row)
}

func (r *Repository) HasAssetWithSymbolPrefix(ctx context.Context, prefix string) (bool, error) {
	var found bool
	// left-anchored comparison instead of LIKE: prefixes may contain pattern characters
	err := r.queryable().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM series_assets WHERE left(symbol, length($1::text)) = $1::text)`,
		prefix,
	).Scan(&found)
	if err != nil {
		return false, errors.Wrap(err, "error during query")
	}
	return found, nil
}

func (r *Repository) AccountExists(ctx context.Context, id entity.AccountId) (bool, error) {
	var found bool
	err := r.queryable().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM series_accounts WHERE account_id = $1)`,
		string(id),
	).Scan(&found)
	if err != nil {
		return false, errors.Wrap(err, "error during query")
	}
	return found, nil
}

const selectSeries = `
SELECT asset_id, name, royalty_fee_rate, beneficiary, manager
FROM series_entries
`

func (r *Repository) getSeries(ctx context.Context, condition string, arg any) (*entity.SeriesEntry, error) {
	var entry entity.SeriesEntry
	err := r.queryable().QueryRow(ctx, selectSeries+condition, arg).Scan(
		&entry.AssetId, &entry.Name, &entry.RoyaltyFeeRate, &entry.Beneficiary, &entry.Manager,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}

	rows, err := r.queryable().Query(ctx,
		`SELECT account_id, claims FROM series_royalty_claims WHERE series_asset_id = $1`,
		string(entry.AssetId),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()
	entry.RoyaltyClaims = make(map[entity.AccountId]int64)
	for rows.Next() {
		var (
			account entity.AccountId
			claims  int64
		)
		if err := rows.Scan(&account, &claims); err != nil {
			return nil, errors.Wrap(err, "error during scan")
		}
		entry.RoyaltyClaims[account] = claims
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during iteration")
	}
	return &entry, nil
}

func (r *Repository) GetSeriesByAssetId(ctx context.Context, assetId entity.AssetId) (*entity.SeriesEntry, error) {
	return r.getSeries(ctx, `WHERE asset_id = $1`, string(assetId))
}

func (r *Repository) GetSeriesByName(ctx context.Context, name string) (*entity.SeriesEntry, error) {
	return r.getSeries(ctx, `WHERE name = $1`, name)
}

const selectToken = `
SELECT asset_id, name, series_asset_id, precision,
	amount_minted, amount_in_inventory, amount_burned,
	min_price_per_subdivision, required_backing_per_subdivision, current_backing, royalty_reservoir
FROM series_tokens
`

func scanToken(row pgx.Row) (*entity.TokenEntry, error) {
	var token entity.TokenEntry
	err := row.Scan(
		&token.AssetId, &token.Name, &token.SeriesAssetId, &token.Precision,
		&token.AmountMinted, &token.AmountInInventory, &token.AmountBurned,
		&token.MinPricePerSubdivision, &token.RequiredBackingPerSubdivision,
		&token.CurrentBacking, &token.RoyaltyReservoir,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	return &token, nil
}

func (r *Repository) GetTokenByAssetId(ctx context.Context, assetId entity.AssetId) (*entity.TokenEntry, error) {
	row := r.queryable().QueryRow(ctx, selectToken+`WHERE asset_id = $1`, string(assetId))
	return scanToken(row)
}

func (r *Repository) GetTokenByName(ctx context.Context, name string) (*entity.TokenEntry, error) {
	row := r.queryable().QueryRow(ctx, selectToken+`WHERE name = $1`, name)
	return scanToken(row)
}

func (r *Repository) GetTokensBySeries(ctx context.Context, seriesAssetId entity.AssetId) ([]*entity.TokenEntry, error) {
	rows, err := r.queryable().Query(ctx, selectToken+`WHERE series_asset_id = $1 ORDER BY name`, string(seriesAssetId))
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()
	var tokens []*entity.TokenEntry
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during iteration")
	}
	return tokens, nil
}

func (r *Repository) GetBalance(ctx context.Context, account entity.AccountId, asset entity.AssetId) (int64, error) {
	var balance int64
	err := r.queryable().QueryRow(ctx,
		`SELECT balance FROM series_balances WHERE account_id = $1 AND asset_id = $2`,
		string(account), string(asset),
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "error during query")
	}
	return balance, nil
}

func (r *Repository) CurrentTime(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := r.queryable().QueryRow(ctx, `SELECT now()`).Scan(&now); err != nil {
		return time.Time{}, errors.Wrap(err, "error during query")
	}
	return now, nil
}

func (r *Repository) CreateSeries(ctx context.Context, entry *entity.SeriesEntry) error {
	_, err := r.queryable().Exec(ctx,
		`INSERT INTO series_entries (asset_id, name, royalty_fee_rate, beneficiary, manager) VALUES ($1, $2, $3, $4, $5)`,
		string(entry.AssetId), entry.Name, entry.RoyaltyFeeRate, string(entry.Beneficiary), string(entry.Manager),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(errs.AlreadyExists, "series %s (%s)", entry.AssetId, entry.Name)
		}
		return errors.Wrap(err, "error during insert")
	}
	return r.replaceRoyaltyClaims(ctx, entry.AssetId, entry.RoyaltyClaims)
}

func (r *Repository) UpdateSeriesRoyaltyClaims(ctx context.Context, assetId entity.AssetId, claims map[entity.AccountId]int64) error {
	var found bool
	err := r.queryable().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM series_entries WHERE asset_id = $1)`,
		string(assetId),
	).Scan(&found)
	if err != nil {
		return errors.Wrap(err, "error during query")
	}
	if !found {
		return errors.Wrapf(errs.NotFound, "series %s", assetId)
	}
	return r.replaceRoyaltyClaims(ctx, assetId, claims)
}

func (r *Repository) replaceRoyaltyClaims(ctx context.Context, assetId entity.AssetId, claims map[entity.AccountId]int64) error {
	if _, err := r.queryable().Exec(ctx,
		`DELETE FROM series_royalty_claims WHERE series_asset_id = $1`,
		string(assetId),
	); err != nil {
		return errors.Wrap(err, "error during delete")
	}
	batch := &pgx.Batch{}
	for account, amount := range claims {
		batch.Queue(
			`INSERT INTO series_royalty_claims (series_asset_id, account_id, claims) VALUES ($1, $2, $3)`,
			string(assetId), string(account), amount,
		)
	}
	results := r.sendBatch(ctx, batch)
	defer results.Close()
	for range claims {
		if _, err := results.Exec(); err != nil {
			return errors.Wrap(err, "error during batch insert")
		}
	}
	return nil
}

func (r *Repository) CreateToken(ctx context.Context, entry *entity.TokenEntry) error {
	_, err := r.queryable().Exec(ctx,
		`INSERT INTO series_tokens (
			asset_id, name, series_asset_id, precision,
			amount_minted, amount_in_inventory, amount_burned,
			min_price_per_subdivision, required_backing_per_subdivision, current_backing, royalty_reservoir
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(entry.AssetId), entry.Name, string(entry.SeriesAssetId), entry.Precision,
		entry.AmountMinted, entry.AmountInInventory, entry.AmountBurned,
		entry.MinPricePerSubdivision, entry.RequiredBackingPerSubdivision, entry.CurrentBacking, entry.RoyaltyReservoir,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(errs.AlreadyExists, "token %s (%s)", entry.AssetId, entry.Name)
		}
		return errors.Wrap(err, "error during insert")
	}
	return nil
}

func (r *Repository) UpdateToken(ctx context.Context, entry *entity.TokenEntry) error {
	tag, err := r.queryable().Exec(ctx,
		`UPDATE series_tokens SET
			amount_minted = $2, amount_in_inventory = $3, amount_burned = $4,
			current_backing = $5, royalty_reservoir = $6
		WHERE asset_id = $1`,
		string(entry.AssetId),
		entry.AmountMinted, entry.AmountInInventory, entry.AmountBurned,
		entry.CurrentBacking, entry.RoyaltyReservoir,
	)
	if err != nil {
		return errors.Wrap(err, "error during update")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(errs.NotFound, "token %s", entry.AssetId)
	}
	return nil
}

func (r *Repository) AdjustAssetSupply(ctx context.Context, assetId entity.AssetId, delta int64) error {
	var currentSupply, maxSupply int64
	err := r.queryable().QueryRow(ctx,
		`UPDATE series_assets SET current_supply = current_supply + $2 WHERE asset_id = $1 RETURNING current_supply, max_supply`,
		string(assetId), delta,
	).Scan(&currentSupply, &maxSupply)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.Wrapf(errs.NotFound, "asset %s", assetId)
		}
		return errors.Wrap(err, "error during update")
	}
	if currentSupply < 0 {
		return errors.Wrapf(errs.InvalidState, "asset %s supply would become negative", assetId)
	}
	if currentSupply > maxSupply {
		return errors.Wrapf(errs.InvalidState, "asset %s supply %d would exceed max supply %d", assetId, currentSupply, maxSupply)
	}
	return nil
}

func (r *Repository) AdjustBalance(ctx context.Context, account entity.AccountId, asset entity.AssetId, delta int64) error {
	var balance int64
	err := r.queryable().QueryRow(ctx,
		`INSERT INTO series_balances (account_id, asset_id, balance) VALUES ($1, $2, $3)
		ON CONFLICT (account_id, asset_id) DO UPDATE SET balance = series_balances.balance + EXCLUDED.balance
		RETURNING balance`,
		string(account), string(asset), delta,
	).Scan(&balance)
	if err != nil {
		return errors.Wrap(err, "error during upsert")
	}
	if balance < 0 {
		return errors.Wrapf(errs.InvalidState,
			"balance of account %s for asset %s would become negative", account, asset)
	}
	return nil
}

func (r *Repository) CreateRoyaltyPaidEvent(ctx context.Context, event *entity.RoyaltyPaidEvent) error {
	err := r.queryable().QueryRow(ctx,
		`INSERT INTO series_royalty_paid_events (token_asset_id, payer, transfer_amount, royalty_amount, timestamp)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		string(event.TokenAssetId), string(event.Payer), event.TransferAmount, event.RoyaltyAmount, event.Timestamp,
	).Scan(&event.Id)
	if err != nil {
		return errors.Wrap(err, "error during insert")
	}
	return nil
}

func (r *Repository) CreateRedemptionEvent(ctx context.Context, event *entity.RedemptionEvent) error {
	err := r.queryable().QueryRow(ctx,
		`INSERT INTO series_redemption_events (token_asset_id, bearer, amount_returned, backing_redeemed, timestamp)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		string(event.TokenAssetId), string(event.Bearer), event.AmountReturned, event.BackingRedeemed, event.Timestamp,
	).Scan(&event.Id)
	if err != nil {
		return errors.Wrap(err, "error during insert")
	}
	return nil
}
