package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/v1/series")

	r.Get("/info/:id", h.GetSeriesInfo)
	r.Get("/tokens/:id", h.GetTokensBySeries)
	r.Get("/token/:id", h.GetTokenInfo)
	r.Post("/operations", h.ExecuteOperation)
	return nil
}
