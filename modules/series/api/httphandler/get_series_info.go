package httphandler

import (
	"net/url"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/shopspring/decimal"
)

type getSeriesInfoRequest struct {
	Id string `params:"id"`
}

func (r *getSeriesInfoRequest) Validate() error {
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

type royaltyClaimHolder struct {
	Account entity.AccountId `json:"account"`
	Claims  int64            `json:"claims"`
}

type getSeriesInfoResult struct {
	Id                  entity.AssetId       `json:"id"`
	Name                string               `json:"name"`
	RoyaltyFeePercent   decimal.Decimal      `json:"royaltyFeePercent"`
	Beneficiary         entity.AccountId     `json:"beneficiary"`
	Manager             entity.AccountId     `json:"manager"`
	RoyaltyClaimHolders []royaltyClaimHolder `json:"royaltyClaimHolders"`
	TokensCount         int                  `json:"tokensCount"`
}

type getSeriesInfoResponse = HttpResponse[getSeriesInfoResult]

func (h *HttpHandler) GetSeriesInfo(ctx *fiber.Ctx) (err error) {
	var req getSeriesInfoRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	series, err := h.resolveSeries(ctx.UserContext(), req.Id)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("series not found")
		}
		return errors.Wrap(err, "error during resolveSeries")
	}
	tokens, err := h.usecase.GetTokensBySeries(ctx.UserContext(), series.AssetId)
	if err != nil {
		return errors.Wrap(err, "error during GetTokensBySeries")
	}

	holders := make([]royaltyClaimHolder, 0, len(series.RoyaltyClaims))
	for account, claims := range series.RoyaltyClaims {
		holders = append(holders, royaltyClaimHolder{Account: account, Claims: claims})
	}
	// claims descending, account ascending for ties
	slices.SortFunc(holders, func(i, j royaltyClaimHolder) int {
		if i.Claims != j.Claims {
			if i.Claims > j.Claims {
				return -1
			}
			return 1
		}
		if i.Account < j.Account {
			return -1
		}
		if i.Account > j.Account {
			return 1
		}
		return 0
	})

	resp := getSeriesInfoResponse{
		Result: &getSeriesInfoResult{
			Id:                  series.AssetId,
			Name:                series.Name,
			RoyaltyFeePercent:   percent(series.RoyaltyFeeRate),
			Beneficiary:         series.Beneficiary,
			Manager:             series.Manager,
			RoyaltyClaimHolders: holders,
			TokensCount:         len(tokens),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
