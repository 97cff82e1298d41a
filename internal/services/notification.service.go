package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	contextutil "fileforge/internal/context"
	"fileforge/internal/database"
	"fileforge/internal/events"
	. "fileforge/internal/models"
	"fileforge/internal/repositories"
	"fileforge/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier records a user facing notification. Implementations never fail
// the caller.
type Notifier interface {
	Notify(
		ctx context.Context,
		userID uuid.UUID,
		title string,
		message string,
		notificationType types.NotificationType,
		meta map[string]any,
	)
}

type EventPublisher interface {
	Publish(channel events.Channel, event events.Event) error
}

type NotificationService struct {
	repo     repositories.NotificationRepository
	eventBus EventPublisher
	log      logger.Logger
}

func NewNotificationService(
	repo repositories.NotificationRepository,
	eventBus EventPublisher,
) *NotificationService {
	return &NotificationService{
		repo:     repo,
		eventBus: eventBus,
		log:      logger.New("NotificationService"),
	}
}

// Notify persists and publishes a notification. Inside a transaction the work
// is deferred until commit, so a rolled back change never notifies.
func (s *NotificationService) Notify(
	ctx context.Context,
	userID uuid.UUID,
	title string,
	message string,
	notificationType types.NotificationType,
	meta map[string]any,
) {
	contextutil.OnCommit(ctx, func() {
		s.deliver(contextutil.WithoutTransaction(context.WithoutCancel(ctx)), userID, title, message, notificationType, meta)
	})
}

func (s *NotificationService) deliver(
	ctx context.Context,
	userID uuid.UUID,
	title string,
	message string,
	notificationType types.NotificationType,
	meta map[string]any,
) {
	log := s.log.Function("deliver")

	notification := &Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    notificationType,
	}

	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			log.Warn("failed to marshal notification meta", "title", title, "error", err)
		} else {
			notification.Meta = datatypes.JSON(raw)
		}
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		log.Warn("failed to persist notification", "userID", userID, "title", title, "error", err)
		return
	}

	if s.eventBus == nil {
		return
	}

	err := s.eventBus.Publish(events.NOTIFICATION_CHANNEL, events.Event{
		Type:   events.NOTIFICATION,
		UserID: &userID,
		Data: map[string]any{
			"id":      notification.ID.String(),
			"title":   title,
			"message": message,
			"type":    notificationType,
			"meta":    meta,
		},
	})
	if err != nil {
		log.Warn("failed to publish notification", "userID", userID, "title", title, "error", err)
	}
}

func (s *NotificationService) List(
	ctx context.Context,
	userID uuid.UUID,
	params map[string]string,
) ([]*Notification, database.PaginationMeta, error) {
	if _, ok := params["sort"]; !ok {
		params = withDefault(params, "sort", "-createdAt")
	}

	qb := database.NewQueryBuilder(params).
		Search("title", "message").
		Filter("read", "type").
		Sort("createdAt", "title", "type", "read").
		Paginate().
		Fields("userId", "title", "message", "type", "read", "meta", "createdAt", "updatedAt")

	return s.repo.List(ctx, userID, qb)
}

func (s *NotificationService) MarkAsRead(
	ctx context.Context,
	userID uuid.UUID,
	notificationID uuid.UUID,
) error {
	if err := s.repo.MarkAsRead(ctx, userID, notificationID); err != nil {
		return notFoundOr(err, "notification %s", notificationID)
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) Delete(
	ctx context.Context,
	userID uuid.UUID,
	notificationID uuid.UUID,
) error {
	if err := s.repo.Delete(ctx, userID, notificationID); err != nil {
		return notFoundOr(err, "notification %s", notificationID)
	}
	return nil
}

func (s *NotificationService) ClearAll(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.DeleteAll(ctx, userID)
}

func withDefault(params map[string]string, key string, value string) map[string]string {
	merged := make(map[string]string, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	merged[key] = value
	return merged
}

// notFoundOr translates a missing row into types.ErrNotFound and passes any
// other error through.
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", types.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}
