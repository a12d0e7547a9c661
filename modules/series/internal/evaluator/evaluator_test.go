package evaluator_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/mintvault/series-ledger/modules/series/internal/evaluator"
	"github.com/mintvault/series-ledger/modules/series/internal/repository/memory"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	coreAssetId   = entity.AssetId("CORE")
	anchorAssetId = entity.AssetId("asset-series")
	tokenAssetId  = entity.AssetId("asset-token")

	alice = entity.AccountId("alice")
	bob   = entity.AccountId("bob")
	carol = entity.AccountId("carol")
	dave  = entity.AccountId("dave")
)

// newLedger seeds the settlement asset and a series anchor held entirely by
// alice, ready for series creation.
func newLedger() *memory.Repository {
	repo := memory.NewRepository()
	for _, account := range []entity.AccountId{alice, bob, carol, dave} {
		repo.SeedAccount(account)
	}
	repo.SeedAsset(&entity.Asset{
		Id:            coreAssetId,
		Symbol:        "CORE",
		Precision:     5,
		Issuer:        "committee",
		CurrentSupply: 1_000_000_000,
		MaxSupply:     10_000_000_000,
	})
	repo.SeedAsset(&entity.Asset{
		Id:            anchorAssetId,
		Symbol:        "SERIESA",
		Precision:     0,
		Issuer:        alice,
		CurrentSupply: 100,
		MaxSupply:     100,
		Flags:         entity.AssetFlagLockMaxSupply,
	})
	repo.SeedBalance(alice, anchorAssetId, 100)
	return repo
}

// seedTokenAsset registers the sub-asset that mints will target. One whole
// unit is 100 subdivisions.
func seedTokenAsset(repo *memory.Repository) {
	repo.SeedAsset(&entity.Asset{
		Id:        tokenAssetId,
		Symbol:    "SERIESA.SUB1",
		Precision: 2,
		Issuer:    alice,
		MaxSupply: 100,
	})
}

func newProcessor(repo *memory.Repository) *evaluator.Processor {
	return evaluator.NewProcessor(repo, nil, "", evaluator.ActivationSchedule{})
}

func createSeries(t *testing.T, p *evaluator.Processor, royaltyFeeRate int64) {
	t.Helper()
	_, err := p.Execute(context.Background(), evaluator.SeriesCreateOperation{
		Issuer:         alice,
		AnchorAssetId:  anchorAssetId,
		RoyaltyFeeRate: royaltyFeeRate,
		Beneficiary:    alice,
	})
	require.NoError(t, err)
}

func mint(t *testing.T, p *evaluator.Processor, subdivisions, minPrice, backing int64) {
	t.Helper()
	_, err := p.Execute(context.Background(), evaluator.MintOperation{
		Issuer:                        alice,
		AssetId:                       tokenAssetId,
		Subdivisions:                  subdivisions,
		MinPricePerSubdivision:        minPrice,
		RequiredBackingPerSubdivision: backing,
	})
	require.NoError(t, err)
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newLedger()
	p := newProcessor(repo)

	// series creation, then a backable token minted at 10 per subdivision
	// with 4 of required backing, royalty rate 2.5%
	createSeries(t, p, 250)
	seedTokenAsset(repo)
	mint(t, p, 60, 10, 4)

	token, err := repo.GetTokenByAssetId(ctx, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(60), token.AmountMinted)
	assert.Equal(t, int64(60), token.AmountInInventory)
	assert.Equal(t, anchorAssetId, token.SeriesAssetId)

	asset, err := repo.GetAsset(ctx, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(60), asset.CurrentSupply)

	// primary transfer of 50 to bob, dave provisions 50 x 4 backing
	repo.SeedBalance(dave, coreAssetId, 1_000)
	receipt, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
		AssetId:     tokenAssetId,
		Quantity:    50,
		Recipient:   bob,
		Manager:     alice,
		Provisioner: lo.ToPtr(dave),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), receipt.BackingCollected)

	balance, err := repo.GetBalance(ctx, bob, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
	balance, err = repo.GetBalance(ctx, dave, coreAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(800), balance)

	token, err = repo.GetTokenByAssetId(ctx, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(10), token.AmountInInventory)
	assert.Equal(t, int64(200), token.CurrentBacking)

	// secondary transfer of 8 from bob to carol pays a royalty of
	// ceil(8 x 10 x 250 / 10000) = 2 into the reservoir
	repo.SeedBalance(bob, coreAssetId, 100)
	receipt, err = p.Execute(ctx, evaluator.TransferOperation{
		AssetId:  tokenAssetId,
		Quantity: 8,
		From:     bob,
		To:       carol,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), receipt.RoyaltyPaid)

	balance, err = repo.GetBalance(ctx, bob, coreAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(98), balance)
	token, err = repo.GetTokenByAssetId(ctx, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(2), token.RoyaltyReservoir)

	royaltyEvents := repo.RoyaltyPaidEvents()
	require.Len(t, royaltyEvents, 1)
	assert.Equal(t, bob, royaltyEvents[0].Payer)
	assert.Equal(t, int64(8), royaltyEvents[0].TransferAmount)
	assert.Equal(t, int64(2), royaltyEvents[0].RoyaltyAmount)

	// carol returns her 8 subdivisions and redeems 8 x 4 backing
	receipt, err = p.Execute(ctx, evaluator.ReturnOperation{
		AssetId:  tokenAssetId,
		Quantity: 8,
		Bearer:   carol,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(32), receipt.BackingRedeemed)

	balance, err = repo.GetBalance(ctx, carol, coreAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(32), balance)
	token, err = repo.GetTokenByAssetId(ctx, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(18), token.AmountInInventory)
	assert.Equal(t, int64(168), token.CurrentBacking)

	redemptions := repo.RedemptionEvents()
	require.Len(t, redemptions, 1)
	assert.Equal(t, carol, redemptions[0].Bearer)
	assert.Equal(t, int64(32), redemptions[0].BackingRedeemed)

	// burn 18 from inventory
	_, err = p.Execute(ctx, evaluator.BurnOperation{AssetId: tokenAssetId, Quantity: 18, Issuer: alice})
	require.NoError(t, err)

	token, err = repo.GetTokenByAssetId(ctx, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(0), token.AmountInInventory)
	assert.Equal(t, int64(18), token.AmountBurned)
	asset, err = repo.GetAsset(ctx, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(42), asset.CurrentSupply)

	// conservation: minted == inventory + circulation + burned
	circulation, err := token.AmountInCirculation()
	require.NoError(t, err)
	assert.Equal(t, token.AmountMinted, token.AmountInInventory+circulation+token.AmountBurned)
	assert.Equal(t, int64(42), circulation)
}

func TestSeriesCreateRejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("duplicate registration", func(t *testing.T) {
		t.Parallel()
		p := newProcessor(newLedger())
		createSeries(t, p, 0)
		_, err := p.Execute(ctx, evaluator.SeriesCreateOperation{
			Issuer: alice, AnchorAssetId: anchorAssetId, Beneficiary: alice,
		})
		assert.ErrorIs(t, err, errs.AlreadyExists)
		assert.ErrorContains(t, err, "already a series")
	})

	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()
		p := newProcessor(newLedger())
		_, err := p.Execute(ctx, evaluator.SeriesCreateOperation{
			Issuer: bob, AnchorAssetId: anchorAssetId, Beneficiary: bob,
		})
		assert.ErrorIs(t, err, errs.Unauthorized)
	})

	t.Run("royalty rate out of range", func(t *testing.T) {
		t.Parallel()
		p := newProcessor(newLedger())
		_, err := p.Execute(ctx, evaluator.SeriesCreateOperation{
			Issuer: alice, AnchorAssetId: anchorAssetId, RoyaltyFeeRate: 10_001, Beneficiary: alice,
		})
		assert.ErrorIs(t, err, errs.InvalidArgument)
	})

	t.Run("issuer must hold entire supply", func(t *testing.T) {
		t.Parallel()
		repo := newLedger()
		require.NoError(t, repo.AdjustBalance(ctx, alice, anchorAssetId, -1))
		require.NoError(t, repo.AdjustBalance(ctx, bob, anchorAssetId, 1))
		p := newProcessor(repo)
		_, err := p.Execute(ctx, evaluator.SeriesCreateOperation{
			Issuer: alice, AnchorAssetId: anchorAssetId, Beneficiary: alice,
		})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "entire supply")
	})

	t.Run("existing sub-assets block registration", func(t *testing.T) {
		t.Parallel()
		repo := newLedger()
		seedTokenAsset(repo)
		p := newProcessor(repo)
		_, err := p.Execute(ctx, evaluator.SeriesCreateOperation{
			Issuer: alice, AnchorAssetId: anchorAssetId, Beneficiary: alice,
		})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "sub-assets")
	})

	t.Run("max supply must be permanently locked", func(t *testing.T) {
		t.Parallel()
		repo := newLedger()
		repo.SeedAsset(&entity.Asset{
			Id: "asset-loose", Symbol: "SERIESB", Issuer: alice,
			CurrentSupply: 100, MaxSupply: 100,
			Flags:             entity.AssetFlagLockMaxSupply,
			IssuerPermissions: entity.AssetFlagLockMaxSupply,
		})
		repo.SeedBalance(alice, "asset-loose", 100)
		p := newProcessor(repo)
		_, err := p.Execute(ctx, evaluator.SeriesCreateOperation{
			Issuer: alice, AnchorAssetId: "asset-loose", Beneficiary: alice,
		})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "lock its max supply")
	})

	t.Run("rejections surface public errors", func(t *testing.T) {
		t.Parallel()
		p := newProcessor(newLedger())
		_, err := p.Execute(ctx, evaluator.SeriesCreateOperation{
			Issuer: bob, AnchorAssetId: anchorAssetId, Beneficiary: bob,
		})
		var pubErr *errs.PublicError
		assert.ErrorAs(t, err, &pubErr)
	})
}

func TestMint(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T) (*memory.Repository, *evaluator.Processor) {
		t.Helper()
		repo := newLedger()
		p := newProcessor(repo)
		createSeries(t, p, 250)
		seedTokenAsset(repo)
		return repo, p
	}

	t.Run("repeat mint adds supply at fixed terms", func(t *testing.T) {
		t.Parallel()
		repo, p := setup(t)
		mint(t, p, 30, 10, 4)
		mint(t, p, 30, 10, 4)

		token, err := repo.GetTokenByAssetId(ctx, tokenAssetId)
		require.NoError(t, err)
		assert.Equal(t, int64(60), token.AmountMinted)
		assert.Equal(t, int64(60), token.AmountInInventory)
	})

	t.Run("changing terms is prohibited", func(t *testing.T) {
		t.Parallel()
		_, p := setup(t)
		mint(t, p, 30, 10, 4)

		_, err := p.Execute(ctx, evaluator.MintOperation{
			Issuer: alice, AssetId: tokenAssetId, Subdivisions: 10,
			MinPricePerSubdivision: 10, RequiredBackingPerSubdivision: 5,
		})
		assert.ErrorIs(t, err, errs.InvalidArgument)
		assert.ErrorContains(t, err, "changing required backing is prohibited")

		_, err = p.Execute(ctx, evaluator.MintOperation{
			Issuer: alice, AssetId: tokenAssetId, Subdivisions: 10,
			MinPricePerSubdivision: 11, RequiredBackingPerSubdivision: 4,
		})
		assert.ErrorIs(t, err, errs.InvalidArgument)
		assert.ErrorContains(t, err, "changing min price is prohibited")
	})

	t.Run("backing above min price", func(t *testing.T) {
		t.Parallel()
		_, p := setup(t)
		_, err := p.Execute(ctx, evaluator.MintOperation{
			Issuer: alice, AssetId: tokenAssetId, Subdivisions: 10,
			MinPricePerSubdivision: 4, RequiredBackingPerSubdivision: 10,
		})
		assert.ErrorIs(t, err, errs.InvalidArgument)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()
		_, p := setup(t)
		_, err := p.Execute(ctx, evaluator.MintOperation{
			Issuer: bob, AssetId: tokenAssetId, Subdivisions: 10,
		})
		assert.ErrorIs(t, err, errs.Unauthorized)
	})

	t.Run("parent is not a series", func(t *testing.T) {
		t.Parallel()
		repo := newLedger()
		seedTokenAsset(repo)
		p := newProcessor(repo)
		_, err := p.Execute(ctx, evaluator.MintOperation{
			Issuer: alice, AssetId: tokenAssetId, Subdivisions: 10,
		})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "not a registered series")
	})

	t.Run("burned supply never remints", func(t *testing.T) {
		t.Parallel()
		repo, p := setup(t)
		mint(t, p, 60, 10, 0)
		_, err := p.Execute(ctx, evaluator.BurnOperation{AssetId: tokenAssetId, Quantity: 20, Issuer: alice})
		require.NoError(t, err)

		// one whole unit is 100: minted 60 + burned 20 leaves 20 mintable
		_, err = p.Execute(ctx, evaluator.MintOperation{
			Issuer: alice, AssetId: tokenAssetId, Subdivisions: 21, MinPricePerSubdivision: 10,
		})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "remaining mintable capacity")

		mint(t, p, 20, 10, 0)
		token, err := repo.GetTokenByAssetId(ctx, tokenAssetId)
		require.NoError(t, err)
		assert.Equal(t, int64(80), token.AmountMinted)
	})

	t.Run("backing liability bounded by settlement max supply", func(t *testing.T) {
		t.Parallel()
		repo, p := setup(t)
		// one whole unit is 100: 100 x 200_000_000 required backing exceeds
		// the settlement max supply of 10_000_000_000
		_, err := p.Execute(ctx, evaluator.MintOperation{
			Issuer: alice, AssetId: tokenAssetId, Subdivisions: 10,
			MinPricePerSubdivision: 200_000_000, RequiredBackingPerSubdivision: 200_000_000,
		})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "backing liability")

		_, err = repo.GetTokenByAssetId(ctx, tokenAssetId)
		assert.ErrorIs(t, err, errs.NotFound)
	})

	t.Run("royalty liability bounded by settlement current supply", func(t *testing.T) {
		t.Parallel()
		repo, p := setup(t)
		// at rate 2.5%, ceil(100 x 1_000_000_000 x 250 / 10000) = 2_500_000_000
		// exceeds the settlement current supply of 1_000_000_000
		_, err := p.Execute(ctx, evaluator.MintOperation{
			Issuer: alice, AssetId: tokenAssetId, Subdivisions: 10,
			MinPricePerSubdivision: 1_000_000_000,
		})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "royalty liability")

		_, err = repo.GetTokenByAssetId(ctx, tokenAssetId)
		assert.ErrorIs(t, err, errs.NotFound)
	})

	t.Run("pre-existing untracked supply", func(t *testing.T) {
		t.Parallel()
		repo := newLedger()
		p := newProcessor(repo)
		createSeries(t, p, 0)
		repo.SeedAsset(&entity.Asset{
			Id: tokenAssetId, Symbol: "SERIESA.SUB1", Precision: 2,
			Issuer: alice, CurrentSupply: 5, MaxSupply: 100,
		})
		_, err := p.Execute(ctx, evaluator.MintOperation{
			Issuer: alice, AssetId: tokenAssetId, Subdivisions: 10,
		})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "outside inventory tracking")
	})
}

func TestPrimaryTransfer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T, backing int64) (*memory.Repository, *evaluator.Processor) {
		t.Helper()
		repo := newLedger()
		p := newProcessor(repo)
		createSeries(t, p, 250)
		seedTokenAsset(repo)
		mint(t, p, 60, 10, backing)
		return repo, p
	}

	t.Run("backable requires a provisioner", func(t *testing.T) {
		t.Parallel()
		_, p := setup(t, 4)
		_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
			AssetId: tokenAssetId, Quantity: 10, Recipient: bob, Manager: alice,
		})
		assert.ErrorIs(t, err, errs.InvalidArgument)
		assert.ErrorContains(t, err, "provisioner is required")
	})

	t.Run("non-backable forbids a provisioner", func(t *testing.T) {
		t.Parallel()
		_, p := setup(t, 0)
		_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
			AssetId: tokenAssetId, Quantity: 10, Recipient: bob, Manager: alice,
			Provisioner: lo.ToPtr(dave),
		})
		assert.ErrorIs(t, err, errs.InvalidArgument)
		assert.ErrorContains(t, err, "must not be given")
	})

	t.Run("non-backable collects nothing", func(t *testing.T) {
		t.Parallel()
		repo, p := setup(t, 0)
		receipt, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
			AssetId: tokenAssetId, Quantity: 10, Recipient: bob, Manager: alice,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), receipt.BackingCollected)

		token, err := repo.GetTokenByAssetId(ctx, tokenAssetId)
		require.NoError(t, err)
		assert.Equal(t, int64(0), token.CurrentBacking)
	})

	t.Run("wrong manager", func(t *testing.T) {
		t.Parallel()
		repo, p := setup(t, 4)
		repo.SeedBalance(dave, coreAssetId, 1_000)
		_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
			AssetId: tokenAssetId, Quantity: 10, Recipient: bob, Manager: bob,
			Provisioner: lo.ToPtr(dave),
		})
		assert.ErrorIs(t, err, errs.Unauthorized)
	})

	t.Run("insufficient inventory", func(t *testing.T) {
		t.Parallel()
		repo, p := setup(t, 4)
		repo.SeedBalance(dave, coreAssetId, 1_000)
		_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
			AssetId: tokenAssetId, Quantity: 61, Recipient: bob, Manager: alice,
			Provisioner: lo.ToPtr(dave),
		})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "inventory")
	})

	t.Run("insufficient provisioner funds", func(t *testing.T) {
		t.Parallel()
		repo, p := setup(t, 4)
		repo.SeedBalance(dave, coreAssetId, 39)
		_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
			AssetId: tokenAssetId, Quantity: 10, Recipient: bob, Manager: alice,
			Provisioner: lo.ToPtr(dave),
		})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "settlement units required to back")
	})

	t.Run("evaluation failure leaves state untouched", func(t *testing.T) {
		t.Parallel()
		repo, p := setup(t, 4)
		repo.SeedBalance(dave, coreAssetId, 39)
		_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
			AssetId: tokenAssetId, Quantity: 10, Recipient: bob, Manager: alice,
			Provisioner: lo.ToPtr(dave),
		})
		require.Error(t, err)

		balance, err := repo.GetBalance(ctx, dave, coreAssetId)
		require.NoError(t, err)
		assert.Equal(t, int64(39), balance)
		token, err := repo.GetTokenByAssetId(ctx, tokenAssetId)
		require.NoError(t, err)
		assert.Equal(t, int64(60), token.AmountInInventory)
	})
}

func TestReturnAndBurnRejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T) (*memory.Repository, *evaluator.Processor) {
		t.Helper()
		repo := newLedger()
		p := newProcessor(repo)
		createSeries(t, p, 0)
		seedTokenAsset(repo)
		mint(t, p, 60, 10, 4)
		repo.SeedBalance(dave, coreAssetId, 1_000)
		_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
			AssetId: tokenAssetId, Quantity: 50, Recipient: bob, Manager: alice,
			Provisioner: lo.ToPtr(dave),
		})
		require.NoError(t, err)
		return repo, p
	}

	t.Run("return more than held", func(t *testing.T) {
		t.Parallel()
		_, p := setup(t)
		_, err := p.Execute(ctx, evaluator.ReturnOperation{AssetId: tokenAssetId, Quantity: 51, Bearer: bob})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "cannot return")
	})

	t.Run("return by non-holder", func(t *testing.T) {
		t.Parallel()
		_, p := setup(t)
		_, err := p.Execute(ctx, evaluator.ReturnOperation{AssetId: tokenAssetId, Quantity: 1, Bearer: carol})
		assert.ErrorIs(t, err, errs.InvalidState)
	})

	t.Run("burn more than inventory", func(t *testing.T) {
		t.Parallel()
		_, p := setup(t)
		_, err := p.Execute(ctx, evaluator.BurnOperation{AssetId: tokenAssetId, Quantity: 11, Issuer: alice})
		assert.ErrorIs(t, err, errs.InvalidState)
		assert.ErrorContains(t, err, "inventory")
	})

	t.Run("burn by non-issuer", func(t *testing.T) {
		t.Parallel()
		_, p := setup(t)
		_, err := p.Execute(ctx, evaluator.BurnOperation{AssetId: tokenAssetId, Quantity: 1, Issuer: bob})
		assert.ErrorIs(t, err, errs.Unauthorized)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()
		_, p := setup(t)
		_, err := p.Execute(ctx, evaluator.ReturnOperation{AssetId: "asset-none", Quantity: 1, Bearer: bob})
		assert.ErrorIs(t, err, errs.NotFound)
	})
}

func TestReturnOfTransferRestrictedToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newLedger()
	p := newProcessor(repo)
	createSeries(t, p, 0)
	repo.SeedAsset(&entity.Asset{
		Id:        tokenAssetId,
		Symbol:    "SERIESA.SUB1",
		Precision: 2,
		Issuer:    alice,
		MaxSupply: 100,
		Flags:     entity.AssetFlagTransferRestricted,
	})
	mint(t, p, 60, 10, 0)
	for _, recipient := range []entity.AccountId{alice, bob} {
		_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
			AssetId: tokenAssetId, Quantity: 10, Recipient: recipient, Manager: alice,
		})
		require.NoError(t, err)
	}

	// only the anchor issuer may act as bearer
	_, err := p.Execute(ctx, evaluator.ReturnOperation{AssetId: tokenAssetId, Quantity: 10, Bearer: bob})
	assert.ErrorIs(t, err, errs.Unauthorized)
	assert.ErrorContains(t, err, "transfer-restricted")

	balance, err := repo.GetBalance(ctx, bob, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	_, err = p.Execute(ctx, evaluator.ReturnOperation{AssetId: tokenAssetId, Quantity: 10, Bearer: alice})
	require.NoError(t, err)

	token, err := repo.GetTokenByAssetId(ctx, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(50), token.AmountInInventory)
}

func TestRoyaltyRounding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newLedger()
	p := newProcessor(repo)
	createSeries(t, p, 250)
	seedTokenAsset(repo)
	mint(t, p, 60, 10, 0)
	_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
		AssetId: tokenAssetId, Quantity: 50, Recipient: bob, Manager: alice,
	})
	require.NoError(t, err)
	repo.SeedBalance(bob, coreAssetId, 100)

	// 3 x 10 x 250 / 10000 = 0.75, rounds up to 1
	receipt, err := p.Execute(ctx, evaluator.TransferOperation{
		AssetId: tokenAssetId, Quantity: 3, From: bob, To: carol,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), receipt.RoyaltyPaid)

	// insufficient settlement funds block the whole transfer
	require.NoError(t, repo.AdjustBalance(ctx, bob, coreAssetId, -99))
	_, err = p.Execute(ctx, evaluator.TransferOperation{
		AssetId: tokenAssetId, Quantity: 40, From: bob, To: carol,
	})
	assert.ErrorIs(t, err, errs.InvalidState)
	assert.ErrorContains(t, err, "required for the royalty")

	balance, err := repo.GetBalance(ctx, carol, tokenAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(3), balance)
}

func TestTransferOfNonTokenAsset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newLedger()
	repo.SeedBalance(bob, coreAssetId, 100)
	p := newProcessor(repo)

	receipt, err := p.Execute(ctx, evaluator.TransferOperation{
		AssetId: coreAssetId, Quantity: 40, From: bob, To: carol,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), receipt.RoyaltyPaid)
	assert.Empty(t, repo.RoyaltyPaidEvents())

	balance, err := repo.GetBalance(ctx, carol, coreAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)
}

func TestZeroRateSeriesCollectsNoRoyalty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newLedger()
	p := newProcessor(repo)
	createSeries(t, p, 0)
	seedTokenAsset(repo)
	mint(t, p, 60, 10, 0)
	_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
		AssetId: tokenAssetId, Quantity: 50, Recipient: bob, Manager: alice,
	})
	require.NoError(t, err)

	// bob carries no settlement balance at all
	receipt, err := p.Execute(ctx, evaluator.TransferOperation{
		AssetId: tokenAssetId, Quantity: 10, From: bob, To: carol,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), receipt.RoyaltyPaid)
	assert.Empty(t, repo.RoyaltyPaidEvents())
}

func TestRoyaltyClaimTransfer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newLedger()
	p := newProcessor(repo)
	createSeries(t, p, 250)

	_, err := p.Execute(ctx, evaluator.RoyaltyClaimTransferOperation{
		SeriesAssetId: anchorAssetId, From: alice, To: bob, Quantity: 40,
	})
	require.NoError(t, err)

	series, err := repo.GetSeriesByAssetId(ctx, anchorAssetId)
	require.NoError(t, err)
	assert.Equal(t, int64(60), series.ClaimBalance(alice))
	assert.Equal(t, int64(40), series.ClaimBalance(bob))
	require.NoError(t, series.CheckClaimsInvariant())

	t.Run("over-transfer", func(t *testing.T) {
		_, err := p.Execute(ctx, evaluator.RoyaltyClaimTransferOperation{
			SeriesAssetId: anchorAssetId, From: bob, To: carol, Quantity: 41,
		})
		assert.ErrorIs(t, err, errs.InvalidState)
	})

	t.Run("unknown series", func(t *testing.T) {
		_, err := p.Execute(ctx, evaluator.RoyaltyClaimTransferOperation{
			SeriesAssetId: "asset-none", From: alice, To: bob, Quantity: 1,
		})
		assert.ErrorIs(t, err, errs.NotFound)
	})
}

func TestActivationSchedule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newLedger()
	repo.SetClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	p := evaluator.NewProcessor(repo, nil, "", evaluator.ActivationSchedule{
		SeriesCreation: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	_, err := p.Execute(ctx, evaluator.SeriesCreateOperation{
		Issuer: alice, AnchorAssetId: anchorAssetId, Beneficiary: alice,
	})
	assert.ErrorIs(t, err, errs.InvalidState)
	assert.ErrorContains(t, err, "not active until")

	// once ledger time passes activation the same operation succeeds
	repo.SetClock(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	_, err = p.Execute(ctx, evaluator.SeriesCreateOperation{
		Issuer: alice, AnchorAssetId: anchorAssetId, Beneficiary: alice,
	})
	assert.NoError(t, err)
}

type denyAccount struct {
	account entity.AccountId
}

func (d denyAccount) CanHold(ctx context.Context, account entity.AccountId, asset entity.AssetId) error {
	if account == d.account {
		return errors.Newf("account %s is not whitelisted", account)
	}
	return nil
}

func TestAuthorizerGatesRecipients(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newLedger()
	p := evaluator.NewProcessor(repo, denyAccount{account: carol}, "", evaluator.ActivationSchedule{})
	createSeries(t, p, 0)
	seedTokenAsset(repo)
	mint(t, p, 60, 10, 0)

	_, err := p.Execute(ctx, evaluator.PrimaryTransferOperation{
		AssetId: tokenAssetId, Quantity: 10, Recipient: carol, Manager: alice,
	})
	assert.ErrorIs(t, err, errs.Unauthorized)
	assert.ErrorContains(t, err, "not whitelisted")

	_, err = p.Execute(ctx, evaluator.PrimaryTransferOperation{
		AssetId: tokenAssetId, Quantity: 10, Recipient: bob, Manager: alice,
	})
	require.NoError(t, err)

	_, err = p.Execute(ctx, evaluator.TransferOperation{
		AssetId: tokenAssetId, Quantity: 5, From: bob, To: carol,
	})
	assert.ErrorIs(t, err, errs.Unauthorized)
}

func TestUnsupportedOperation(t *testing.T) {
	t.Parallel()

	p := newProcessor(newLedger())
	_, err := p.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, errs.Unsupported)
}
