package repositories

import (
	"context"

	"fileforge/internal/constants"
	contextutil "fileforge/internal/context"
	"fileforge/internal/database"
	. "fileforge/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FolderRepository interface {
	Create(ctx context.Context, folder *Folder) error
	GetByID(ctx context.Context, userID uuid.UUID, folderID uuid.UUID) (*Folder, error)
	GetChildBySlug(
		ctx context.Context,
		userID uuid.UUID,
		parentID *uuid.UUID,
		slug string,
	) (*Folder, error)
	SiblingSlugExists(
		ctx context.Context,
		userID uuid.UUID,
		parentID *uuid.UUID,
		slug string,
		excludeID *uuid.UUID,
	) (bool, error)
	ListChildren(ctx context.Context, userID uuid.UUID, parentID *uuid.UUID) ([]*Folder, error)
	ListChildIDs(ctx context.Context, userID uuid.UUID, parentID uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, folder *Folder) error
	Delete(ctx context.Context, userID uuid.UUID, folderID uuid.UUID) error
	DeleteMany(ctx context.Context, userID uuid.UUID, folderIDs []uuid.UUID) (int, error)
	ClearUserCache(ctx context.Context, userID uuid.UUID) error
}

type folderRepository struct {
	db    database.DB
	cache listingCache
	log   logger.Logger
}

func NewFolderRepository(db database.DB) FolderRepository {
	return &folderRepository{
		db:    db,
		cache: newListingCache(db),
		log:   logger.New("folderRepository"),
	}
}

func (r *folderRepository) getDB(ctx context.Context) *gorm.DB {
	return contextutil.Conn(ctx, r.db.SQL)
}

// whereParent scopes a query to one level of the tree, nil meaning root.
func whereParent(tx *gorm.DB, column string, parentID *uuid.UUID) *gorm.DB {
	if parentID == nil {
		return tx.Where(column + " IS NULL")
	}
	return tx.Where(column+" = ?", *parentID)
}

func parentCacheSuffix(parentID *uuid.UUID) string {
	if parentID == nil {
		return "root"
	}
	return parentID.String()
}

func (r *folderRepository) Create(ctx context.Context, folder *Folder) error {
	log := r.log.Function("Create")

	if err := gorm.G[Folder](r.getDB(ctx)).Create(ctx, folder); err != nil {
		return log.Err(
			"failed to create folder",
			err,
			"userID",
			folder.UserID,
			"slug",
			folder.Slug,
		)
	}

	r.clearCache(ctx, folder.UserID)
	return nil
}

func (r *folderRepository) GetByID(
	ctx context.Context,
	userID uuid.UUID,
	folderID uuid.UUID,
) (*Folder, error) {
	var folder Folder
	if err := r.getDB(ctx).
		Where("user_id = ? AND id = ?", userID, folderID).
		First(&folder).Error; err != nil {
		return nil, err
	}

	return &folder, nil
}

func (r *folderRepository) GetChildBySlug(
	ctx context.Context,
	userID uuid.UUID,
	parentID *uuid.UUID,
	slug string,
) (*Folder, error) {
	var folder Folder
	query := whereParent(r.getDB(ctx).Where("user_id = ? AND slug = ?", userID, slug), "parent_id", parentID)
	if err := query.First(&folder).Error; err != nil {
		return nil, err
	}

	return &folder, nil
}

func (r *folderRepository) SiblingSlugExists(
	ctx context.Context,
	userID uuid.UUID,
	parentID *uuid.UUID,
	slug string,
	excludeID *uuid.UUID,
) (bool, error) {
	log := r.log.Function("SiblingSlugExists")

	query := whereParent(
		r.getDB(ctx).Model(&Folder{}).Where("user_id = ? AND slug = ?", userID, slug),
		"parent_id",
		parentID,
	)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, log.Err("failed to check sibling slug", err, "userID", userID, "slug", slug)
	}

	return count > 0, nil
}

func (r *folderRepository) ListChildren(
	ctx context.Context,
	userID uuid.UUID,
	parentID *uuid.UUID,
) ([]*Folder, error) {
	log := r.log.Function("ListChildren")

	cacheKey := listingKey(constants.FolderListCachePrefix, userID, parentCacheSuffix(parentID))
	if _, inTx := contextutil.GetTransaction(ctx); !inTx {
		var cachedFolders []*Folder
		if r.cache.get(ctx, cacheKey, &cachedFolders) {
			log.Debug("folder listing found in cache", "userID", userID)
			return cachedFolders, nil
		}
	}

	var folders []*Folder
	if err := whereParent(r.getDB(ctx).Where("user_id = ?", userID), "parent_id", parentID).
		Order("name ASC").
		Find(&folders).Error; err != nil {
		return nil, log.Err("failed to list folders", err, "userID", userID, "parentID", parentID)
	}

	if _, inTx := contextutil.GetTransaction(ctx); !inTx {
		r.cache.set(ctx, userID, cacheKey, folders)
	}

	return folders, nil
}

// ListChildIDs always reads the database. Tree walks that drive storage
// mutations must not see a stale listing.
func (r *folderRepository) ListChildIDs(
	ctx context.Context,
	userID uuid.UUID,
	parentID uuid.UUID,
) ([]uuid.UUID, error) {
	log := r.log.Function("ListChildIDs")

	var ids []uuid.UUID
	if err := r.getDB(ctx).
		Model(&Folder{}).
		Where("user_id = ? AND parent_id = ?", userID, parentID).
		Order("name ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, log.Err("failed to list child folder ids", err, "userID", userID, "parentID", parentID)
	}

	return ids, nil
}

func (r *folderRepository) Update(ctx context.Context, folder *Folder) error {
	log := r.log.Function("Update")

	result := r.getDB(ctx).
		Model(&Folder{}).
		Where("user_id = ? AND id = ?", folder.UserID, folder.ID).
		Updates(map[string]any{
			"name":      folder.Name,
			"slug":      folder.Slug,
			"parent_id": folder.ParentID,
		})
	if result.Error != nil {
		return log.Err("failed to update folder", result.Error, "folderID", folder.ID)
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.clearCache(ctx, folder.UserID)
	return nil
}

func (r *folderRepository) Delete(ctx context.Context, userID uuid.UUID, folderID uuid.UUID) error {
	log := r.log.Function("Delete")

	rowsAffected, err := gorm.G[Folder](r.getDB(ctx)).
		Where("user_id = ? AND id = ?", userID, folderID).
		Delete(ctx)
	if err != nil {
		return log.Err("failed to delete folder", err, "userID", userID, "folderID", folderID)
	}

	if rowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.clearCache(ctx, userID)
	return nil
}

func (r *folderRepository) DeleteMany(
	ctx context.Context,
	userID uuid.UUID,
	folderIDs []uuid.UUID,
) (int, error) {
	log := r.log.Function("DeleteMany")

	if len(folderIDs) == 0 {
		return 0, nil
	}

	rowsAffected, err := gorm.G[Folder](r.getDB(ctx)).
		Where("user_id = ? AND id IN ?", userID, folderIDs).
		Delete(ctx)
	if err != nil {
		return 0, log.Err("failed to delete folders", err, "userID", userID, "count", len(folderIDs))
	}

	r.clearCache(ctx, userID)
	return rowsAffected, nil
}

func (r *folderRepository) ClearUserCache(ctx context.Context, userID uuid.UUID) error {
	return r.cache.clear(ctx, userID)
}

func (r *folderRepository) clearCache(ctx context.Context, userID uuid.UUID) {
	if err := r.cache.clear(ctx, userID); err != nil {
		r.log.Function("clearCache").Warn("failed to clear folder cache", "userID", userID, "error", err)
	}
}
