package repositories

import (
	"context"

	"fileforge/internal/constants"
	contextutil "fileforge/internal/context"
	"fileforge/internal/database"
	. "fileforge/internal/models"
	"fileforge/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FileTypeImage = "image"
	FileTypePDF   = "pdf"
	FileTypeCode  = "code"

	FileSortName     = "name"
	FileSortModified = "modified"
)

// CodeMimeTypes is the allow-list behind the "code" type bucket.
var CodeMimeTypes = []string{
	"application/json",
	"application/javascript",
	"text/javascript",
	"application/typescript",
}

// FileFilter selects one folder level of a user's files. A nil FolderID is
// the root level.
type FileFilter struct {
	UserID   uuid.UUID
	FolderID *uuid.UUID
	Search   string
	Type     string
	Sort     string
}

type FileRepository interface {
	Create(ctx context.Context, file *File) error
	GetByID(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (*File, error)
	List(ctx context.Context, filter FileFilter) ([]*File, error)
	ListByFolders(ctx context.Context, userID uuid.UUID, folderIDs []uuid.UUID) ([]*File, error)
	ReferencedKeys(ctx context.Context, userID uuid.UUID, keys []string) ([]string, error)
	Query(
		ctx context.Context,
		userID uuid.UUID,
		qb *database.QueryBuilder,
	) ([]*File, database.PaginationMeta, error)
	Update(ctx context.Context, file *File) error
	UpdateLocation(
		ctx context.Context,
		userID uuid.UUID,
		fileID uuid.UUID,
		key string,
		url string,
	) error
	Delete(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) error
	DeleteByFolders(ctx context.Context, userID uuid.UUID, folderIDs []uuid.UUID) (int, error)
	ClearUserCache(ctx context.Context, userID uuid.UUID) error
}

type fileRepository struct {
	db    database.DB
	cache listingCache
	log   logger.Logger
}

func NewFileRepository(db database.DB) FileRepository {
	return &fileRepository{
		db:    db,
		cache: newListingCache(db),
		log:   logger.New("fileRepository"),
	}
}

func (r *fileRepository) getDB(ctx context.Context) *gorm.DB {
	return contextutil.Conn(ctx, r.db.SQL)
}

func (r *fileRepository) Create(ctx context.Context, file *File) error {
	log := r.log.Function("Create")

	if err := gorm.G[File](r.getDB(ctx)).Create(ctx, file); err != nil {
		return log.Err("failed to create file", err, "userID", file.UserID, "key", file.Key)
	}

	r.clearCache(ctx, file.UserID)
	return nil
}

func (r *fileRepository) GetByID(
	ctx context.Context,
	userID uuid.UUID,
	fileID uuid.UUID,
) (*File, error) {
	var file File
	if err := r.getDB(ctx).
		Where("user_id = ? AND id = ?", userID, fileID).
		First(&file).Error; err != nil {
		return nil, err
	}

	return &file, nil
}

func fileFilterHash(filter FileFilter) string {
	return utils.HashFields(map[string]any{
		"folderId": parentCacheSuffix(filter.FolderID),
		"search":   filter.Search,
		"type":     filter.Type,
		"sort":     filter.Sort,
	})
}

func applyTypeBucket(tx *gorm.DB, bucket string) *gorm.DB {
	switch bucket {
	case FileTypeImage:
		return tx.Where("type LIKE ?", "image/%")
	case FileTypePDF:
		return tx.Where("type LIKE ?", "%pdf%")
	case FileTypeCode:
		return tx.Where("type IN ?", CodeMimeTypes)
	default:
		return tx
	}
}

func (r *fileRepository) List(ctx context.Context, filter FileFilter) ([]*File, error) {
	log := r.log.Function("List")

	cacheKey := listingKey(constants.FileListCachePrefix, filter.UserID, fileFilterHash(filter))
	var cachedFiles []*File
	if r.cache.get(ctx, cacheKey, &cachedFiles) {
		log.Debug("file listing found in cache", "userID", filter.UserID)
		return cachedFiles, nil
	}

	query := whereParent(r.getDB(ctx).Where("user_id = ?", filter.UserID), "folder_id", filter.FolderID)

	if filter.Search != "" {
		query = query.Where("LOWER(name) "+database.LikeEscaped, database.ContainsPattern(filter.Search))
	}

	query = applyTypeBucket(query, filter.Type)

	if filter.Sort == FileSortName {
		query = query.Order("name ASC")
	} else {
		query = query.Order("updated_at DESC")
	}

	var files []*File
	if err := query.Find(&files).Error; err != nil {
		return nil, log.Err("failed to list files", err, "userID", filter.UserID)
	}

	r.cache.set(ctx, filter.UserID, cacheKey, files)
	return files, nil
}

func (r *fileRepository) ListByFolders(
	ctx context.Context,
	userID uuid.UUID,
	folderIDs []uuid.UUID,
) ([]*File, error) {
	log := r.log.Function("ListByFolders")

	if len(folderIDs) == 0 {
		return []*File{}, nil
	}

	var files []*File
	if err := r.getDB(ctx).
		Where("user_id = ? AND folder_id IN ?", userID, folderIDs).
		Order("created_at ASC").
		Find(&files).Error; err != nil {
		return nil, log.Err("failed to list files by folders", err, "userID", userID)
	}

	return files, nil
}

// ReferencedKeys returns the subset of keys still held by a file row.
func (r *fileRepository) ReferencedKeys(
	ctx context.Context,
	userID uuid.UUID,
	keys []string,
) ([]string, error) {
	log := r.log.Function("ReferencedKeys")

	referenced := make([]string, 0)
	if len(keys) == 0 {
		return referenced, nil
	}

	if err := r.getDB(ctx).
		Model(&File{}).
		Where("user_id = ? AND key IN ?", userID, keys).
		Pluck("key", &referenced).Error; err != nil {
		return nil, log.Err("failed to look up referenced keys", err, "userID", userID)
	}

	return referenced, nil
}

func (r *fileRepository) Query(
	ctx context.Context,
	userID uuid.UUID,
	qb *database.QueryBuilder,
) ([]*File, database.PaginationMeta, error) {
	log := r.log.Function("Query")

	var files []*File
	if err := qb.Apply(r.getDB(ctx).Where("user_id = ?", userID)).Find(&files).Error; err != nil {
		return nil, database.PaginationMeta{}, log.Err("failed to query files", err, "userID", userID)
	}

	meta, err := qb.CountTotal(ctx, r.getDB(ctx).Where("user_id = ?", userID), &File{})
	if err != nil {
		return nil, database.PaginationMeta{}, log.Err("failed to count files", err, "userID", userID)
	}

	return files, meta, nil
}

func (r *fileRepository) Update(ctx context.Context, file *File) error {
	log := r.log.Function("Update")

	result := r.getDB(ctx).
		Model(&File{}).
		Where("user_id = ? AND id = ?", file.UserID, file.ID).
		Updates(map[string]any{
			"name":      file.Name,
			"folder_id": file.FolderID,
			"key":       file.Key,
			"url":       file.URL,
		})
	if result.Error != nil {
		return log.Err("failed to update file", result.Error, "fileID", file.ID)
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.clearCache(ctx, file.UserID)
	return nil
}

func (r *fileRepository) UpdateLocation(
	ctx context.Context,
	userID uuid.UUID,
	fileID uuid.UUID,
	key string,
	url string,
) error {
	log := r.log.Function("UpdateLocation")

	result := r.getDB(ctx).
		Model(&File{}).
		Where("user_id = ? AND id = ?", userID, fileID).
		Updates(map[string]any{"key": key, "url": url})
	if result.Error != nil {
		return log.Err("failed to update file location", result.Error, "fileID", fileID, "key", key)
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.clearCache(ctx, userID)
	return nil
}

func (r *fileRepository) Delete(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) error {
	log := r.log.Function("Delete")

	rowsAffected, err := gorm.G[File](r.getDB(ctx)).
		Where("user_id = ? AND id = ?", userID, fileID).
		Delete(ctx)
	if err != nil {
		return log.Err("failed to delete file", err, "userID", userID, "fileID", fileID)
	}

	if rowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.clearCache(ctx, userID)
	return nil
}

func (r *fileRepository) DeleteByFolders(
	ctx context.Context,
	userID uuid.UUID,
	folderIDs []uuid.UUID,
) (int, error) {
	log := r.log.Function("DeleteByFolders")

	if len(folderIDs) == 0 {
		return 0, nil
	}

	rowsAffected, err := gorm.G[File](r.getDB(ctx)).
		Where("user_id = ? AND folder_id IN ?", userID, folderIDs).
		Delete(ctx)
	if err != nil {
		return 0, log.Err("failed to delete files by folders", err, "userID", userID)
	}

	r.clearCache(ctx, userID)
	return rowsAffected, nil
}

func (r *fileRepository) ClearUserCache(ctx context.Context, userID uuid.UUID) error {
	return r.cache.clear(ctx, userID)
}

func (r *fileRepository) clearCache(ctx context.Context, userID uuid.UUID) {
	if err := r.cache.clear(ctx, userID); err != nil {
		r.log.Function("clearCache").Warn("failed to clear file cache", "userID", userID, "error", err)
	}
}
