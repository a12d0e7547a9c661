package httphandler

import (
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/mintvault/series-ledger/common/errs"
)

type getTokensBySeriesRequest struct {
	Id string `params:"id"`
}

func (r *getTokensBySeriesRequest) Validate() error {
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

type getTokensBySeriesResult struct {
	List []*getTokenInfoResult `json:"list"`
}

type getTokensBySeriesResponse = HttpResponse[getTokensBySeriesResult]

func (h *HttpHandler) GetTokensBySeries(ctx *fiber.Ctx) (err error) {
	var req getTokensBySeriesRequest
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

	list := make([]*getTokenInfoResult, 0, len(tokens))
	for _, token := range tokens {
		result, err := newTokenInfoResult(token)
		if err != nil {
			return errors.Wrap(err, "cannot render token info")
		}
		list = append(list, result)
	}
	resp := getTokensBySeriesResponse{
		Result: &getTokensBySeriesResult{List: list},
	}

	return errors.WithStack(ctx.JSON(resp))
}
