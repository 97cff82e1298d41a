package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fileforge/internal/database"
	. "fileforge/internal/models"
	"fileforge/internal/repositories"
	"fileforge/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultContentType = "application/octet-stream"

type CreateFileInput struct {
	Name   string
	Size   int64
	Type   string
	Key    string
	URL    string
	UserID uuid.UUID
	// FolderID accepts a folder id, "root" or an empty string.
	FolderID string
}

type ListFilesInput struct {
	UserID   uuid.UUID
	FolderID string
	Search   string
	Type     string
	Sort     string
}

type UpdateFileInput struct {
	Name     *string
	FolderID *string
	Key      *string
	URL      *string
}

type FileService struct {
	repos    repositories.Repository
	notifier Notifier
	log      logger.Logger
}

func NewFileService(repos repositories.Repository, notifier Notifier) *FileService {
	return &FileService{
		repos:    repos,
		notifier: notifier,
		log:      logger.New("FileService"),
	}
}

// resolveFolder normalizes a folder reference and checks that a non root
// folder belongs to the user.
func (s *FileService) resolveFolder(ctx context.Context, userID uuid.UUID, ref string) (*uuid.UUID, error) {
	folderID, err := types.ParseFolderRef(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid folderId %q", types.ErrValidation, ref)
	}

	if folderID == nil {
		return nil, nil
	}

	if _, err := s.repos.Folder.GetByID(ctx, userID, *folderID); err != nil {
		return nil, notFoundOr(err, "folder %s", *folderID)
	}

	return folderID, nil
}

func (s *FileService) Create(ctx context.Context, input CreateFileInput) (*File, error) {
	log := s.log.Function("Create")

	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", types.ErrValidation)
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: file name is required", types.ErrValidation)
	}
	if strings.TrimSpace(input.Key) == "" {
		return nil, fmt.Errorf("%w: file key is required", types.ErrValidation)
	}

	folderID, err := s.resolveFolder(ctx, input.UserID, input.FolderID)
	if err != nil {
		return nil, err
	}

	contentType := input.Type
	if contentType == "" {
		contentType = defaultContentType
	}

	file := &File{
		Name:     input.Name,
		Size:     input.Size,
		Type:     contentType,
		Key:      input.Key,
		URL:      input.URL,
		UserID:   input.UserID,
		FolderID: folderID,
	}

	if err := s.repos.File.Create(ctx, file); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: storage key %q is already in use", types.ErrConflict, input.Key)
		}
		return nil, log.Err("failed to create file", err, "userID", input.UserID)
	}

	s.notifier.Notify(
		ctx,
		file.UserID,
		"File Uploaded",
		fmt.Sprintf("File %q was uploaded", file.Name),
		types.NotificationSuccess,
		map[string]any{"fileId": file.ID.String()},
	)

	return file, nil
}

func (s *FileService) List(ctx context.Context, input ListFilesInput) ([]*File, error) {
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", types.ErrValidation)
	}

	switch input.Type {
	case "", repositories.FileTypeImage, repositories.FileTypePDF, repositories.FileTypeCode:
	default:
		return nil, fmt.Errorf("%w: unknown file type %q", types.ErrValidation, input.Type)
	}

	folderID, err := types.ParseFolderRef(input.FolderID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid folderId %q", types.ErrValidation, input.FolderID)
	}

	return s.repos.File.List(ctx, repositories.FileFilter{
		UserID:   input.UserID,
		FolderID: folderID,
		Search:   strings.TrimSpace(input.Search),
		Type:     input.Type,
		Sort:     input.Sort,
	})
}

func (s *FileService) Get(ctx context.Context, fileID uuid.UUID, userID uuid.UUID) (*File, error) {
	file, err := s.repos.File.GetByID(ctx, userID, fileID)
	if err != nil {
		return nil, notFoundOr(err, "file %s", fileID)
	}
	return file, nil
}

func (s *FileService) Update(
	ctx context.Context,
	fileID uuid.UUID,
	userID uuid.UUID,
	input UpdateFileInput,
) (*File, error) {
	log := s.log.Function("Update")

	file, err := s.Get(ctx, fileID, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("%w: file name is required", types.ErrValidation)
		}
		file.Name = *input.Name
	}

	if input.FolderID != nil {
		folderID, err := s.resolveFolder(ctx, userID, *input.FolderID)
		if err != nil {
			return nil, err
		}
		file.FolderID = folderID
	}

	if input.Key != nil {
		file.Key = *input.Key
	}

	if input.URL != nil {
		file.URL = *input.URL
	}

	if err := s.repos.File.Update(ctx, file); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundOr(err, "file %s", fileID)
		}
		return nil, log.Err("failed to update file", err, "fileID", fileID)
	}

	s.notifier.Notify(
		ctx,
		userID,
		"File Updated",
		fmt.Sprintf("File %q was updated", file.Name),
		types.NotificationInfo,
		map[string]any{"fileId": file.ID.String()},
	)

	return file, nil
}

// Relocate points the file at a new storage key without notifying the user.
func (s *FileService) Relocate(
	ctx context.Context,
	fileID uuid.UUID,
	userID uuid.UUID,
	key string,
	url string,
) error {
	if err := s.repos.File.UpdateLocation(ctx, userID, fileID, key, url); err != nil {
		return notFoundOr(err, "file %s", fileID)
	}
	return nil
}

func (s *FileService) Delete(ctx context.Context, fileID uuid.UUID, userID uuid.UUID) (*File, error) {
	file, err := s.Get(ctx, fileID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repos.File.Delete(ctx, userID, fileID); err != nil {
		return nil, notFoundOr(err, "file %s", fileID)
	}

	s.notifier.Notify(
		ctx,
		userID,
		"File Deleted",
		fmt.Sprintf("File %q was deleted", file.Name),
		types.NotificationWarning,
		map[string]any{"fileId": file.ID.String()},
	)

	return file, nil
}

func (s *FileService) Query(
	ctx context.Context,
	userID uuid.UUID,
	params map[string]string,
) ([]*File, database.PaginationMeta, error) {
	if userID == uuid.Nil {
		return nil, database.PaginationMeta{}, fmt.Errorf("%w: userId is required", types.ErrValidation)
	}

	qb := database.NewQueryBuilder(params).
		Search("name", "type").
		Filter("type").
		Sort("name", "size", "type", "createdAt", "updatedAt").
		Paginate().
		Fields("name", "size", "type", "key", "url", "userId", "folderId", "createdAt", "updatedAt")

	return s.repos.File.Query(ctx, userID, qb)
}
