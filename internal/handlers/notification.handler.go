package handlers

import (
	"fileforge/internal/app"
	notificationController "fileforge/internal/controllers/notifications"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	Handler
	notificationController notificationController.NotificationControllerInterface
}

func NewNotificationHandler(app app.App, router fiber.Router) *NotificationHandler {
	log := logger.New("handlers").File("notification_handler")
	return &NotificationHandler{
		notificationController: app.Controllers.Notification,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *NotificationHandler) Register() {
	notifications := h.router.Group("/notifications")

	notifications.Get("", h.listNotifications)
	notifications.Patch("/read-all", h.markAllAsRead)
	notifications.Patch("/:id/read", h.markAsRead)
	notifications.Delete("/clear-all", h.clearAll)
	notifications.Delete("/:id", h.deleteNotification)
}

func (h *NotificationHandler) listNotifications(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listNotifications")

	params := c.Queries()
	notifications, meta, err := h.notificationController.ListNotifications(
		c.UserContext(),
		params["userId"],
		params,
	)
	if err != nil {
		return sendError(c, log, err, "Failed to list notifications")
	}

	return sendPaginated(c, "Notifications retrieved", notifications, meta)
}

func (h *NotificationHandler) markAsRead(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("markAsRead")

	err := h.notificationController.MarkAsRead(c.UserContext(), c.Params("id"), c.Query("userId"))
	if err != nil {
		return sendError(c, log, err, "Failed to mark notification as read")
	}

	return sendResponse(c, fiber.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) markAllAsRead(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("markAllAsRead")

	count, err := h.notificationController.MarkAllAsRead(c.UserContext(), c.Query("userId"))
	if err != nil {
		return sendError(c, log, err, "Failed to mark notifications as read")
	}

	return sendResponse(c, fiber.StatusOK, "Notifications marked as read", fiber.Map{"updated": count})
}

func (h *NotificationHandler) deleteNotification(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("deleteNotification")

	err := h.notificationController.DeleteNotification(c.UserContext(), c.Params("id"), c.Query("userId"))
	if err != nil {
		return sendError(c, log, err, "Failed to delete notification")
	}

	return sendResponse(c, fiber.StatusOK, "Notification deleted", nil)
}

func (h *NotificationHandler) clearAll(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("clearAll")

	count, err := h.notificationController.ClearAll(c.UserContext(), c.Query("userId"))
	if err != nil {
		return sendError(c, log, err, "Failed to clear notifications")
	}

	return sendResponse(c, fiber.StatusOK, "Notifications cleared", fiber.Map{"deleted": count})
}
