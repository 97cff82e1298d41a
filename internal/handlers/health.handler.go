package handlers

import (
	"fileforge/config"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, config config.Config) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return sendResponse(c, fiber.StatusOK, "ok", fiber.Map{
			"version": config.GeneralVersion,
			"service": "fileforge_api",
		})
	})
}
