package handlers

import (
	"fileforge/internal/app"
	"fileforge/internal/handlers/middleware"
	"fileforge/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const websocketUserKey = "websocketUserID"

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	setupWebSocketRoute(router, app)

	api := router.Group("/api")
	HealthHandler(api, app.Config)
	NewFolderHandler(*app, api).Register()
	NewFileHandler(*app, api).Register()
	NewNotificationHandler(*app, api).Register()
	NewJobHandler(*app, api).Register()

	return nil
}

// setupWebSocketRoute serves the live notification feed at /ws?userId=.
func setupWebSocketRoute(router fiber.Router, app *app.App) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		userID, err := types.ParseID("userId", c.Query("userId"))
		if err != nil {
			return sendResponse(c, fiber.StatusBadRequest, err.Error(), nil)
		}

		c.Locals(websocketUserKey, userID)
		return c.Next()
	})
	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals(websocketUserKey).(uuid.UUID)
		app.Websocket.HandleWebSocket(c, userID)
	}))
}
