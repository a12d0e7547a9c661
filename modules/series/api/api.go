package api

import (
	"github.com/mintvault/series-ledger/modules/series/api/httphandler"
	"github.com/mintvault/series-ledger/modules/series/internal/evaluator"
	"github.com/mintvault/series-ledger/modules/series/usecase"
)

func NewHTTPHandler(usecase *usecase.Usecase, processor *evaluator.Processor) *httphandler.HttpHandler {
	return httphandler.New(usecase, processor)
}
