package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	. "fileforge/internal/models"
	"fileforge/internal/repositories"
	"fileforge/internal/storage"
	"fileforge/internal/types"
	"fileforge/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxJournalAttempts = 5
	// Entries younger than this may still belong to a running workflow.
	journalReplayGrace = 10 * time.Minute
	journalReplayBatch = 100
)

type UploadFileInput struct {
	UserID      uuid.UUID
	FolderID    string
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// OrchestrationService keeps object keys, which encode the folder path, in
// step with the folder tree across renames and deletes.
type OrchestrationService struct {
	repos             repositories.Repository
	folders           *FolderService
	files             *FileService
	storage           storage.Gateway
	transaction       *TransactionService
	cacheInvalidation *CacheInvalidationService
	log               logger.Logger
	now               func() time.Time
}

func NewOrchestrationService(
	repos repositories.Repository,
	folders *FolderService,
	files *FileService,
	gateway storage.Gateway,
	transaction *TransactionService,
	cacheInvalidation *CacheInvalidationService,
) *OrchestrationService {
	return &OrchestrationService{
		repos:             repos,
		folders:           folders,
		files:             files,
		storage:           gateway,
		transaction:       transaction,
		cacheInvalidation: cacheInvalidation,
		log:               logger.New("OrchestrationService"),
		now:               time.Now,
	}
}

func joinPath(path []types.PathSegment) string {
	segments := make([]string, 0, len(path))
	for _, segment := range path {
		segments = append(segments, segmentName(segment.Slug, segment.Name))
	}
	return strings.Join(segments, "/")
}

func segmentName(slug string, name string) string {
	if slug != "" {
		return slug
	}
	return name
}

// rewriteKeyPrefix substitutes the leading oldPrefix of key. Keys outside the
// old folder are reported as unchanged.
func rewriteKeyPrefix(key string, oldPrefix string, newPrefix string) (string, bool) {
	if !strings.HasPrefix(key, oldPrefix+"/") {
		return key, false
	}
	return newPrefix + strings.TrimPrefix(key, oldPrefix), true
}

func storageError(action string, key string, err error) error {
	return fmt.Errorf("%w: failed to %s %s: %w", types.ErrStorage, action, key, err)
}

// UpdateFolder applies the folder update, then journals a move for every
// object below the folder before the first object is touched. When a move
// fails the metadata change stays committed and the remaining entries stay
// pending for the journal replay. Repeating the update resumes them.
func (s *OrchestrationService) UpdateFolder(
	ctx context.Context,
	folderID uuid.UUID,
	userID uuid.UUID,
	input UpdateFolderInput,
) (*Folder, error) {
	log := s.log.Function("UpdateFolder")

	oldPath, err := s.folders.GetPath(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}

	folder, err := s.folders.Update(ctx, folderID, userID, input)
	if err != nil {
		return nil, err
	}

	var newPath string
	if input.SetParent {
		path, err := s.folders.GetPath(ctx, userID, folderID)
		if err != nil {
			return nil, err
		}
		newPath = joinPath(path)
	} else {
		segments := strings.Split(joinPath(oldPath), "/")
		segments[len(segments)-1] = segmentName(folder.Slug, folder.Name)
		newPath = strings.Join(segments, "/")
	}

	files, err := s.folders.GetRecursiveFiles(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}

	oldPathJoined := joinPath(oldPath)
	ownerRoot := userID.String()
	plan, err := s.planMoves(ctx, userID, files, ownerRoot+"/"+oldPathJoined, ownerRoot+"/"+newPath)
	if err != nil {
		return nil, err
	}

	for i, move := range plan {
		if err := s.executeMove(ctx, move.file, move.operation); err != nil {
			log.Warn(
				"folder update left objects behind",
				"folderID", folderID,
				"moved", i,
				"planned", len(plan),
				"error", err,
			)
			return nil, err
		}
	}

	s.cacheInvalidation.InvalidateUser(ctx, userID)

	log.Info("Folder updated", "folderID", folderID, "oldPath", oldPathJoined, "newPath", newPath, "moved", len(plan))
	return folder, nil
}

type plannedMove struct {
	file      *File
	operation *StorageOperation
}

// planMoves journals one move per file whose object is not yet at its key
// under newPrefix. Unsettled moves left by an earlier update are folded into
// the new entry: their targets become alternate sources and they are marked
// superseded.
func (s *OrchestrationService) planMoves(
	ctx context.Context,
	userID uuid.UUID,
	files []*File,
	oldPrefix string,
	newPrefix string,
) ([]plannedMove, error) {
	if len(files) == 0 {
		return nil, nil
	}

	outstanding, err := s.repos.StorageOperation.ListOutstandingMoves(ctx, userID, fileIDsOf(files))
	if err != nil {
		return nil, err
	}

	previous := make(map[uuid.UUID][]*StorageOperation, len(outstanding))
	for _, operation := range outstanding {
		previous[*operation.FileID] = append(previous[*operation.FileID], operation)
	}

	plan := make([]plannedMove, 0, len(files))
	operations := make([]*StorageOperation, 0, len(files))
	var supersedes []uuid.UUID

	for _, file := range files {
		intended := file.Key
		var alternates []string
		for _, earlier := range previous[file.ID] {
			if earlier.SourceKey != file.Key {
				continue
			}
			intended = earlier.TargetKey
			alternates = append(alternates, earlier.TargetKey)
			alternates = append(alternates, earlier.Keys...)
		}

		target, _ := rewriteKeyPrefix(intended, oldPrefix, newPrefix)
		alternates = otherKeys(alternates, file.Key, target)
		if target == file.Key && len(alternates) == 0 {
			continue
		}

		for _, earlier := range previous[file.ID] {
			supersedes = append(supersedes, earlier.ID)
		}

		fileID := file.ID
		operation := &StorageOperation{
			UserID:    file.UserID,
			Kind:      StorageOperationMove,
			FileID:    &fileID,
			SourceKey: file.Key,
			TargetKey: target,
			Keys:      alternates,
		}
		operations = append(operations, operation)
		plan = append(plan, plannedMove{file: file, operation: operation})
	}

	if err := s.repos.StorageOperation.CreatePlan(ctx, operations, supersedes); err != nil {
		return nil, err
	}

	return plan, nil
}

// otherKeys returns keys without duplicates and without any of the excluded
// keys. A nil result keeps the journal column empty.
func otherKeys(keys []string, exclude ...string) []string {
	var result []string
	for _, key := range keys {
		if slices.Contains(exclude, key) || slices.Contains(result, key) {
			continue
		}
		result = append(result, key)
	}
	return result
}

func fileIDsOf(files []*File) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(files))
	for _, file := range files {
		ids = append(ids, file.ID)
	}
	return ids
}

// executeMove runs one journaled move and settles its entry. An entry
// without alternate sources is a plain move; otherwise the object is looked
// up first.
func (s *OrchestrationService) executeMove(ctx context.Context, file *File, operation *StorageOperation) error {
	key := operation.TargetKey

	var err error
	if len(operation.Keys) == 0 {
		key, err = s.storage.Move(ctx, operation.SourceKey, operation.TargetKey)
		if err != nil {
			err = storageError("move", operation.SourceKey, err)
		}
	} else {
		err = s.bringToTarget(ctx, operation)
	}

	if err == nil {
		err = s.files.Relocate(ctx, file.ID, file.UserID, key, s.storage.PublicURL(key))
	}

	if err != nil {
		s.markFailed(ctx, operation.ID, err)
		return err
	}

	s.markCompleted(ctx, operation.ID)
	return nil
}

// bringToTarget moves the object to the entry's target from whichever
// journaled location still holds it. An object already at the target is
// left alone.
func (s *OrchestrationService) bringToTarget(ctx context.Context, operation *StorageOperation) error {
	sources := otherKeys(append([]string{operation.SourceKey}, operation.Keys...), operation.TargetKey)

	for _, source := range sources {
		exists, err := s.storage.Exists(ctx, source)
		if err != nil {
			return storageError("check", source, err)
		}
		if !exists {
			continue
		}

		if _, err := s.storage.Move(ctx, source, operation.TargetKey); err != nil {
			return storageError("move", source, err)
		}
		return nil
	}

	exists, err := s.storage.Exists(ctx, operation.TargetKey)
	if err != nil {
		return storageError("check", operation.TargetKey, err)
	}
	if !exists {
		return fmt.Errorf(
			"%w: object missing at %s",
			types.ErrStorage,
			strings.Join(append(sources, operation.TargetKey), ", "),
		)
	}

	return nil
}

// DeleteFolder removes every object below the folder in one batch, then the
// file and folder rows of the whole subtree in one transaction. A storage
// failure aborts before any row is touched.
func (s *OrchestrationService) DeleteFolder(
	ctx context.Context,
	folderID uuid.UUID,
	userID uuid.UUID,
) (*Folder, error) {
	log := s.log.Function("DeleteFolder")

	if _, err := s.folders.Get(ctx, folderID, userID); err != nil {
		return nil, err
	}

	files, err := s.folders.GetRecursiveFiles(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(files))
	for _, file := range files {
		keys = append(keys, file.Key)
	}

	if err := s.removeObjects(ctx, userID, nil, keys); err != nil {
		return nil, err
	}

	folderIDs, err := s.folders.DescendantFolderIDs(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}

	var deleted *Folder
	err = s.transaction.Execute(ctx, func(txCtx context.Context, tx *gorm.DB) error {
		if _, err := s.repos.File.DeleteByFolders(txCtx, userID, folderIDs); err != nil {
			return err
		}

		if _, err := s.repos.Folder.DeleteMany(txCtx, userID, folderIDs[1:]); err != nil {
			return err
		}

		folder, err := s.folders.Delete(txCtx, folderID, userID)
		if err != nil {
			return err
		}
		deleted = folder
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheInvalidation.InvalidateUser(ctx, userID)

	log.Info("Folder deleted", "folderID", folderID, "folders", len(folderIDs), "files", len(keys))
	return deleted, nil
}

func (s *OrchestrationService) removeObjects(
	ctx context.Context,
	userID uuid.UUID,
	fileID *uuid.UUID,
	keys []string,
) error {
	if len(keys) == 0 {
		return nil
	}

	operation := &StorageOperation{
		UserID: userID,
		Kind:   StorageOperationDelete,
		FileID: fileID,
		Keys:   keys,
	}
	if err := s.repos.StorageOperation.Create(ctx, operation); err != nil {
		return err
	}

	if err := s.storage.Remove(ctx, keys); err != nil {
		s.markFailed(ctx, operation.ID, err)
		return storageError("remove", strings.Join(keys, ", "), err)
	}

	s.markCompleted(ctx, operation.ID)
	return nil
}

// UploadFile stores the content under {userId}/{folder path}/{millis}-{name}
// and records its metadata. The object is removed again when the metadata
// insert fails.
func (s *OrchestrationService) UploadFile(ctx context.Context, input UploadFileInput) (*File, error) {
	log := s.log.Function("UploadFile")

	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", types.ErrValidation)
	}

	name := utils.SanitizeFileName(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: file name is required", types.ErrValidation)
	}

	folderID, err := types.ParseFolderRef(input.FolderID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid folderId %q", types.ErrValidation, input.FolderID)
	}

	parts := []string{input.UserID.String()}
	if folderID != nil {
		path, err := s.folders.GetPath(ctx, input.UserID, *folderID)
		if err != nil {
			return nil, err
		}
		parts = append(parts, joinPath(path))
	}
	parts = append(parts, fmt.Sprintf("%d-%s", s.now().UnixMilli(), name))
	key := strings.Join(parts, "/")

	contentType := input.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	if err := s.storage.Put(ctx, key, input.Body, input.Size, contentType); err != nil {
		return nil, storageError("store", key, err)
	}

	file, err := s.files.Create(ctx, CreateFileInput{
		Name:     name,
		Size:     input.Size,
		Type:     contentType,
		Key:      key,
		URL:      s.storage.PublicURL(key),
		UserID:   input.UserID,
		FolderID: input.FolderID,
	})
	if err != nil {
		if removeErr := s.storage.Remove(context.WithoutCancel(ctx), []string{key}); removeErr != nil {
			log.Warn("failed to remove orphaned object", "key", key, "error", removeErr)
		}
		return nil, err
	}

	return file, nil
}

// DeleteFile removes the object first and the metadata row second.
func (s *OrchestrationService) DeleteFile(
	ctx context.Context,
	fileID uuid.UUID,
	userID uuid.UUID,
) (*File, error) {
	file, err := s.files.Get(ctx, fileID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.removeObjects(ctx, userID, &file.ID, []string{file.Key}); err != nil {
		return nil, err
	}

	return s.files.Delete(ctx, fileID, userID)
}

// ReplayJournal retries storage operations that never completed. It returns
// the number of entries that were settled.
func (s *OrchestrationService) ReplayJournal(ctx context.Context) (int, error) {
	log := s.log.Function("ReplayJournal")

	operations, err := s.repos.StorageOperation.ListReplayable(
		ctx,
		MaxJournalAttempts,
		s.now().Add(-journalReplayGrace),
		journalReplayBatch,
	)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, operation := range operations {
		if err := ctx.Err(); err != nil {
			return settled, err
		}

		var replayErr error
		switch operation.Kind {
		case StorageOperationMove:
			replayErr = s.replayMove(ctx, operation)
		case StorageOperationDelete:
			replayErr = s.replayDelete(ctx, operation)
		default:
			replayErr = fmt.Errorf("unknown storage operation kind %q", operation.Kind)
		}

		if replayErr != nil {
			s.markFailed(ctx, operation.ID, replayErr)
			log.Warn(
				"storage operation replay failed",
				"operationID", operation.ID,
				"kind", operation.Kind,
				"attempt", operation.Attempts+1,
				"error", replayErr,
			)
			continue
		}

		s.markCompleted(ctx, operation.ID)
		settled++
	}

	if len(operations) > 0 {
		log.Info("Storage journal replayed", "pending", len(operations), "settled", settled)
	}

	return settled, nil
}

func (s *OrchestrationService) replayMove(ctx context.Context, operation *StorageOperation) error {
	if operation.FileID == nil {
		return errors.New("move operation has no file")
	}

	file, err := s.repos.File.GetByID(ctx, operation.UserID, *operation.FileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// The row already moved on, or was pointed elsewhere afterwards.
	if file.Key != operation.SourceKey {
		return nil
	}

	if err := s.bringToTarget(ctx, operation); err != nil {
		return err
	}

	return s.files.Relocate(
		ctx,
		file.ID,
		file.UserID,
		operation.TargetKey,
		s.storage.PublicURL(operation.TargetKey),
	)
}

// replayDelete removes only objects whose file rows are gone, so an aborted
// delete never strands metadata.
func (s *OrchestrationService) replayDelete(ctx context.Context, operation *StorageOperation) error {
	referenced, err := s.repos.File.ReferencedKeys(ctx, operation.UserID, operation.Keys)
	if err != nil {
		return err
	}

	orphaned := make([]string, 0, len(operation.Keys))
	for _, key := range operation.Keys {
		if !slices.Contains(referenced, key) {
			orphaned = append(orphaned, key)
		}
	}

	return s.storage.Remove(ctx, orphaned)
}

func (s *OrchestrationService) markCompleted(ctx context.Context, operationID uuid.UUID) {
	if err := s.repos.StorageOperation.MarkCompleted(ctx, operationID); err != nil {
		s.log.Function("markCompleted").Warn("failed to settle journal entry", "operationID", operationID, "error", err)
	}
}

func (s *OrchestrationService) markFailed(ctx context.Context, operationID uuid.UUID, cause error) {
	if err := s.repos.StorageOperation.MarkFailed(ctx, operationID, cause); err != nil {
		s.log.Function("markFailed").Warn("failed to record journal failure", "operationID", operationID, "error", err)
	}
}
