package series

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/internal/config"
	"github.com/mintvault/series-ledger/internal/postgres"
	seriesapi "github.com/mintvault/series-ledger/modules/series/api"
	"github.com/mintvault/series-ledger/modules/series/constants"
	seriesdatagateway "github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/mintvault/series-ledger/modules/series/internal/evaluator"
	seriesmemory "github.com/mintvault/series-ledger/modules/series/internal/repository/memory"
	seriespostgres "github.com/mintvault/series-ledger/modules/series/internal/repository/postgres"
	seriesusecase "github.com/mintvault/series-ledger/modules/series/usecase"
	"github.com/mintvault/series-ledger/pkg/logger"
	"github.com/mintvault/series-ledger/pkg/logger/slogx"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
)

const Version = constants.Version

// Service owns the series ledger pipeline and its store for the lifetime of
// the process.
type Service struct {
	processor    *evaluator.Processor
	cleanupFuncs []func(context.Context) error
}

func New(injector do.Injector) (*Service, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	moduleConf := conf.Modules.Series

	var seriesDg seriesdatagateway.SeriesDataGateway
	var cleanupFuncs []func(context.Context) error
	switch strings.ToLower(moduleConf.Database) {
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, moduleConf.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "Invalid Postgres configuration for series ledger")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool")
		}
		cleanupFuncs = append(cleanupFuncs, func(ctx context.Context) error {
			pg.Close()
			return nil
		})
		seriesDg = seriespostgres.NewRepository(pg)
	case "memory":
		// volatile store, state is lost on restart
		seriesDg = seriesmemory.NewRepository()
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q database for series ledger is not supported", moduleConf.Database)
	}

	processor := evaluator.NewProcessor(
		seriesDg,
		nil,
		entity.AssetId(moduleConf.SettlementAssetId),
		moduleConf.Activation,
	)

	// Mount API
	apiHandlers := lo.Uniq(moduleConf.APIHandlers)
	for _, handler := range apiHandlers {
		switch handler {
		case "http":
			httpServer := do.MustInvoke[*fiber.App](injector)
			seriesUsecase := seriesusecase.New(seriesDg)
			seriesHTTPHandler := seriesapi.NewHTTPHandler(seriesUsecase, processor)
			if err := seriesHTTPHandler.Mount(httpServer); err != nil {
				return nil, errors.Wrap(err, "can't mount Series API")
			}
			logger.InfoContext(ctx, "Mounted HTTP handler")
		default:
			return nil, errors.Wrapf(errs.Unsupported, "%q API handler is not supported", handler)
		}
	}

	return &Service{
		processor:    processor,
		cleanupFuncs: cleanupFuncs,
	}, nil
}

// Run blocks until ctx is done, then releases the service's resources.
func (s *Service) Run(ctx context.Context) error {
	<-ctx.Done()
	for _, cleanup := range s.cleanupFuncs {
		if err := cleanup(context.Background()); err != nil {
			logger.WarnContext(ctx, "failed to cleanup series service resources", slogx.Error(err))
		}
	}
	return nil
}
