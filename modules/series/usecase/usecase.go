package usecase

import (
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
)

type Usecase struct {
	seriesDg datagateway.SeriesDataGateway
}

func New(seriesDg datagateway.SeriesDataGateway) *Usecase {
	return &Usecase{
		seriesDg: seriesDg,
	}
}
