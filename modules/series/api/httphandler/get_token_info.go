package httphandler

import (
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/shopspring/decimal"
)

type getTokenInfoRequest struct {
	Id string `params:"id"`
}

func (r *getTokenInfoRequest) Validate() error {
	var errList []error
	id, err := url.QueryUnescape(r.Id)
	if err != nil {
		return errors.WithStack(err)
	}
	r.Id = id
	if r.Id == "" {
		errList = append(errList, errors.New("'id' is required"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getTokenInfoResult struct {
	Id            entity.AssetId `json:"id"`
	Name          string         `json:"name"`
	SeriesAssetId entity.AssetId `json:"seriesAssetId"`
	Precision     uint8          `json:"precision"`

	AmountMinted        decimal.Decimal `json:"amountMinted"`
	AmountInInventory   decimal.Decimal `json:"amountInInventory"`
	AmountInCirculation decimal.Decimal `json:"amountInCirculation"`
	AmountBurned        decimal.Decimal `json:"amountBurned"`
	RemainingMintable   decimal.Decimal `json:"remainingMintable"`

	Backable                      bool  `json:"backable"`
	MinPricePerSubdivision        int64 `json:"minPricePerSubdivision"`
	RequiredBackingPerSubdivision int64 `json:"requiredBackingPerSubdivision"`
	CurrentBacking                int64 `json:"currentBacking"`
	RoyaltyReservoir              int64 `json:"royaltyReservoir"`
}

type getTokenInfoResponse = HttpResponse[getTokenInfoResult]

func (h *HttpHandler) GetTokenInfo(ctx *fiber.Ctx) (err error) {
	var req getTokenInfoRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	token, err := h.resolveToken(ctx.UserContext(), req.Id)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("token not found")
		}
		return errors.Wrap(err, "error during resolveToken")
	}

	result, err := newTokenInfoResult(token)
	if err != nil {
		return errors.Wrap(err, "cannot render token info")
	}
	resp := getTokenInfoResponse{Result: result}

	return errors.WithStack(ctx.JSON(resp))
}

func newTokenInfoResult(token *entity.TokenEntry) (*getTokenInfoResult, error) {
	circulation, err := token.AmountInCirculation()
	if err != nil {
		return nil, errors.Wrap(err, "cannot get circulation of token")
	}
	remaining, err := token.RemainingMintable()
	if err != nil {
		return nil, errors.Wrap(err, "cannot get remaining mintable of token")
	}
	return &getTokenInfoResult{
		Id:            token.AssetId,
		Name:          token.Name,
		SeriesAssetId: token.SeriesAssetId,
		Precision:     token.Precision,

		AmountMinted:        wholeUnits(token.AmountMinted, token.Precision),
		AmountInInventory:   wholeUnits(token.AmountInInventory, token.Precision),
		AmountInCirculation: wholeUnits(circulation, token.Precision),
		AmountBurned:        wholeUnits(token.AmountBurned, token.Precision),
		RemainingMintable:   wholeUnits(remaining, token.Precision),

		Backable:                      token.IsBackable(),
		MinPricePerSubdivision:        token.MinPricePerSubdivision,
		RequiredBackingPerSubdivision: token.RequiredBackingPerSubdivision,
		CurrentBacking:                token.CurrentBacking,
		RoyaltyReservoir:              token.RoyaltyReservoir,
	}, nil
}
