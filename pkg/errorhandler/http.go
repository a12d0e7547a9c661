package errorhandler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/pkg/logger"
	"github.com/mintvault/series-ledger/pkg/logger/slogx"
)

// NewHTTPErrorHandler returns the fiber error handler. Public errors become
// 400 responses carrying their message, fiber errors keep their status, and
// everything else is logged and reported as a 500.
func NewHTTPErrorHandler() func(ctx *fiber.Ctx, err error) error {
	return func(ctx *fiber.Ctx, err error) error {
		var publicErr *errs.PublicError
		if errors.As(err, &publicErr) {
			return errors.WithStack(ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": publicErr.Message(),
			}))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return errors.WithStack(ctx.Status(fiberErr.Code).SendString(fiberErr.Error()))
		}

		logger.ErrorContext(ctx.UserContext(), "Something went wrong, unhandled api error",
			slogx.String("event", "api_unhandled_error"),
			slogx.Error(err),
		)
		return errors.WithStack(ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
		}))
	}
}
