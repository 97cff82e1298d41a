package repositories

import (
	"context"

	contextutil "fileforge/internal/context"
	"fileforge/internal/database"
	. "fileforge/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	List(
		ctx context.Context,
		userID uuid.UUID,
		qb *database.QueryBuilder,
	) ([]*Notification, database.PaginationMeta, error)
	MarkAsRead(ctx context.Context, userID uuid.UUID, notificationID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID uuid.UUID, notificationID uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int, error)
}

type notificationRepository struct {
	db  database.DB
	log logger.Logger
}

func NewNotificationRepository(db database.DB) NotificationRepository {
	return &notificationRepository{
		db:  db,
		log: logger.New("notificationRepository"),
	}
}

func (r *notificationRepository) getDB(ctx context.Context) *gorm.DB {
	return contextutil.Conn(ctx, r.db.SQL)
}

func (r *notificationRepository) Create(ctx context.Context, notification *Notification) error {
	log := r.log.Function("Create")

	if err := gorm.G[Notification](r.getDB(ctx)).Create(ctx, notification); err != nil {
		return log.Err(
			"failed to create notification",
			err,
			"userID",
			notification.UserID,
			"title",
			notification.Title,
		)
	}

	return nil
}

func (r *notificationRepository) List(
	ctx context.Context,
	userID uuid.UUID,
	qb *database.QueryBuilder,
) ([]*Notification, database.PaginationMeta, error) {
	log := r.log.Function("List")

	var notifications []*Notification
	if err := qb.Apply(r.getDB(ctx).Where("user_id = ?", userID)).
		Find(&notifications).Error; err != nil {
		return nil, database.PaginationMeta{}, log.Err("failed to list notifications", err, "userID", userID)
	}

	meta, err := qb.CountTotal(ctx, r.getDB(ctx).Where("user_id = ?", userID), &Notification{})
	if err != nil {
		return nil, database.PaginationMeta{}, log.Err("failed to count notifications", err, "userID", userID)
	}

	return notifications, meta, nil
}

func (r *notificationRepository) MarkAsRead(
	ctx context.Context,
	userID uuid.UUID,
	notificationID uuid.UUID,
) error {
	log := r.log.Function("MarkAsRead")

	result := r.getDB(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND id = ?", userID, notificationID).
		Update("read", true)
	if result.Error != nil {
		return log.Err("failed to mark notification read", result.Error, "notificationID", notificationID)
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := r.log.Function("MarkAllAsRead")

	result := r.getDB(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, log.Err("failed to mark notifications read", result.Error, "userID", userID)
	}

	return result.RowsAffected, nil
}

func (r *notificationRepository) Delete(
	ctx context.Context,
	userID uuid.UUID,
	notificationID uuid.UUID,
) error {
	log := r.log.Function("Delete")

	rowsAffected, err := gorm.G[Notification](r.getDB(ctx)).
		Where("user_id = ? AND id = ?", userID, notificationID).
		Delete(ctx)
	if err != nil {
		return log.Err("failed to delete notification", err, "notificationID", notificationID)
	}

	if rowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *notificationRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	log := r.log.Function("DeleteAll")

	rowsAffected, err := gorm.G[Notification](r.getDB(ctx)).
		Where("user_id = ?", userID).
		Delete(ctx)
	if err != nil {
		return 0, log.Err("failed to clear notifications", err, "userID", userID)
	}

	return rowsAffected, nil
}
