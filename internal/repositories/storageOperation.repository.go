package repositories

import (
	"context"
	"time"

	contextutil "fileforge/internal/context"
	"fileforge/internal/database"
	. "fileforge/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StorageOperationRepository interface {
	Create(ctx context.Context, operation *StorageOperation) error
	CreatePlan(ctx context.Context, operations []*StorageOperation, supersedes []uuid.UUID) error
	ListOutstandingMoves(
		ctx context.Context,
		userID uuid.UUID,
		fileIDs []uuid.UUID,
	) ([]*StorageOperation, error)
	MarkCompleted(ctx context.Context, operationID uuid.UUID) error
	MarkFailed(ctx context.Context, operationID uuid.UUID, cause error) error
	ListReplayable(
		ctx context.Context,
		maxAttempts int,
		olderThan time.Time,
		limit int,
	) ([]*StorageOperation, error)
}

type storageOperationRepository struct {
	db  database.DB
	log logger.Logger
}

func NewStorageOperationRepository(db database.DB) StorageOperationRepository {
	return &storageOperationRepository{
		db:  db,
		log: logger.New("storageOperationRepository"),
	}
}

// Journal writes never join a caller transaction: an entry must survive the
// rollback of the work it describes.
func (r *storageOperationRepository) getDB(ctx context.Context) *gorm.DB {
	return r.db.SQLWithContext(contextutil.WithoutTransaction(context.WithoutCancel(ctx)))
}

func (r *storageOperationRepository) Create(ctx context.Context, operation *StorageOperation) error {
	log := r.log.Function("Create")

	if operation.Status == "" {
		operation.Status = StorageOperationPending
	}

	if err := gorm.G[StorageOperation](r.getDB(ctx)).Create(context.WithoutCancel(ctx), operation); err != nil {
		return log.Err("failed to journal storage operation", err, "kind", operation.Kind)
	}

	return nil
}

// CreatePlan journals a batch of operations and retires the entries they
// replace in a single transaction.
func (r *storageOperationRepository) CreatePlan(
	ctx context.Context,
	operations []*StorageOperation,
	supersedes []uuid.UUID,
) error {
	log := r.log.Function("CreatePlan")

	if len(operations) == 0 && len(supersedes) == 0 {
		return nil
	}

	for _, operation := range operations {
		if operation.Status == "" {
			operation.Status = StorageOperationPending
		}
	}

	err := r.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		if len(operations) > 0 {
			if err := tx.Create(operations).Error; err != nil {
				return err
			}
		}

		if len(supersedes) == 0 {
			return nil
		}

		return tx.Model(&StorageOperation{}).
			Where("id IN ?", supersedes).
			Update("status", StorageOperationSuperseded).Error
	})
	if err != nil {
		return log.Err(
			"failed to journal storage plan",
			err,
			"operations",
			len(operations),
			"supersedes",
			len(supersedes),
		)
	}

	return nil
}

// ListOutstandingMoves returns unsettled move entries for the files, oldest
// first. Entries that ran out of attempts are included.
func (r *storageOperationRepository) ListOutstandingMoves(
	ctx context.Context,
	userID uuid.UUID,
	fileIDs []uuid.UUID,
) ([]*StorageOperation, error) {
	log := r.log.Function("ListOutstandingMoves")

	if len(fileIDs) == 0 {
		return nil, nil
	}

	var operations []*StorageOperation
	if err := r.getDB(ctx).
		Where("user_id = ? AND kind = ? AND file_id IN ?", userID, StorageOperationMove, fileIDs).
		Where("status IN ?", []StorageOperationStatus{
			StorageOperationPending,
			StorageOperationFailed,
		}).
		Order("created_at ASC, id ASC").
		Find(&operations).Error; err != nil {
		return nil, log.Err("failed to list outstanding moves", err, "userID", userID, "files", len(fileIDs))
	}

	return operations, nil
}

func (r *storageOperationRepository) MarkCompleted(ctx context.Context, operationID uuid.UUID) error {
	log := r.log.Function("MarkCompleted")

	if err := r.getDB(ctx).
		Model(&StorageOperation{}).
		Where("id = ?", operationID).
		Updates(map[string]any{
			"status":     StorageOperationCompleted,
			"last_error": "",
		}).Error; err != nil {
		return log.Err("failed to complete storage operation", err, "operationID", operationID)
	}

	return nil
}

func (r *storageOperationRepository) MarkFailed(
	ctx context.Context,
	operationID uuid.UUID,
	cause error,
) error {
	log := r.log.Function("MarkFailed")

	message := ""
	if cause != nil {
		message = cause.Error()
	}

	if err := r.getDB(ctx).
		Model(&StorageOperation{}).
		Where("id = ?", operationID).
		Updates(map[string]any{
			"status":     StorageOperationFailed,
			"last_error": message,
			"attempts":   gorm.Expr("attempts + 1"),
		}).Error; err != nil {
		return log.Err("failed to record storage operation failure", err, "operationID", operationID)
	}

	return nil
}

func (r *storageOperationRepository) ListReplayable(
	ctx context.Context,
	maxAttempts int,
	olderThan time.Time,
	limit int,
) ([]*StorageOperation, error) {
	log := r.log.Function("ListReplayable")

	var operations []*StorageOperation
	if err := r.getDB(ctx).
		Where("status IN ? AND attempts < ?", []StorageOperationStatus{
			StorageOperationPending,
			StorageOperationFailed,
		}, maxAttempts).
		Where("updated_at < ?", olderThan).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&operations).Error; err != nil {
		return nil, log.Err("failed to list replayable storage operations", err)
	}

	return operations, nil
}
