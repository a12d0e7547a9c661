package httphandler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/mintvault/series-ledger/modules/series/internal/evaluator"
	"github.com/mintvault/series-ledger/modules/series/usecase"
	"github.com/shopspring/decimal"
)

type HttpHandler struct {
	usecase   *usecase.Usecase
	processor *evaluator.Processor
}

func New(usecase *usecase.Usecase, processor *evaluator.Processor) *HttpHandler {
	return &HttpHandler{
		usecase:   usecase,
		processor: processor,
	}
}

type HttpResponse[T any] struct {
	Error  *string `json:"error"`
	Result *T      `json:"result,omitempty"`
}

// resolveSeries accepts either a series asset id or a series name.
func (h *HttpHandler) resolveSeries(ctx context.Context, id string) (*entity.SeriesEntry, error) {
	series, err := h.usecase.GetSeriesByAssetId(ctx, entity.AssetId(id))
	if err == nil {
		return series, nil
	}
	if !errors.Is(err, errs.NotFound) {
		return nil, err
	}
	return h.usecase.GetSeriesByName(ctx, id)
}

// resolveToken accepts either a token asset id or a token name.
func (h *HttpHandler) resolveToken(ctx context.Context, id string) (*entity.TokenEntry, error) {
	token, err := h.usecase.GetTokenByAssetId(ctx, entity.AssetId(id))
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, errs.NotFound) {
		return nil, err
	}
	return h.usecase.GetTokenByName(ctx, id)
}

// wholeUnits renders a subdivision amount as whole token units.
func wholeUnits(subdivisions int64, precision uint8) decimal.Decimal {
	return decimal.New(subdivisions, -int32(precision))
}

// percent renders a centipercent royalty rate as a percentage.
func percent(rate int64) decimal.Decimal {
	return decimal.New(rate, -2)
}
