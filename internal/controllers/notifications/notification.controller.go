package notificationController

import (
	"context"

	"fileforge/internal/database"
	. "fileforge/internal/models"
	"fileforge/internal/services"
	"fileforge/internal/types"

	logger "github.com/Bparsons0904/goLogger"
)

type NotificationControllerInterface interface {
	ListNotifications(
		ctx context.Context,
		userID string,
		params map[string]string,
	) ([]*Notification, database.PaginationMeta, error)
	MarkAsRead(ctx context.Context, notificationID string, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, notificationID string, userID string) error
	ClearAll(ctx context.Context, userID string) (int, error)
}

type NotificationController struct {
	notificationService *services.NotificationService
	log                 logger.Logger
}

func New(services services.Service) NotificationControllerInterface {
	return &NotificationController{
		notificationService: services.Notification,
		log:                 logger.New("notificationController"),
	}
}

func (c *NotificationController) ListNotifications(
	ctx context.Context,
	userID string,
	params map[string]string,
) ([]*Notification, database.PaginationMeta, error) {
	owner, err := types.ParseID("userId", userID)
	if err != nil {
		return nil, database.PaginationMeta{}, err
	}

	delete(params, "userId")
	return c.notificationService.List(ctx, owner, params)
}

func (c *NotificationController) MarkAsRead(
	ctx context.Context,
	notificationID string,
	userID string,
) error {
	id, err := types.ParseID("id", notificationID)
	if err != nil {
		return err
	}

	owner, err := types.ParseID("userId", userID)
	if err != nil {
		return err
	}

	return c.notificationService.MarkAsRead(ctx, owner, id)
}

func (c *NotificationController) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	owner, err := types.ParseID("userId", userID)
	if err != nil {
		return 0, err
	}

	return c.notificationService.MarkAllAsRead(ctx, owner)
}

func (c *NotificationController) DeleteNotification(
	ctx context.Context,
	notificationID string,
	userID string,
) error {
	id, err := types.ParseID("id", notificationID)
	if err != nil {
		return err
	}

	owner, err := types.ParseID("userId", userID)
	if err != nil {
		return err
	}

	return c.notificationService.Delete(ctx, owner, id)
}

func (c *NotificationController) ClearAll(ctx context.Context, userID string) (int, error) {
	owner, err := types.ParseID("userId", userID)
	if err != nil {
		return 0, err
	}

	count, err := c.notificationService.ClearAll(ctx, owner)
	if err != nil {
		return 0, c.log.Function("ClearAll").Err("failed to clear notifications", err, "userID", owner)
	}

	return count, nil
}
