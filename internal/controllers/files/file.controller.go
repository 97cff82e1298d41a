package fileController

import (
	"context"
	"io"

	"fileforge/internal/controllers/rules"
	"fileforge/internal/database"
	. "fileforge/internal/models"
	"fileforge/internal/repositories"
	"fileforge/internal/services"
	"fileforge/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type CreateFileRequest struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	Key      string `json:"key"`
	URL      string `json:"url"`
	UserID   string `json:"userId"`
	FolderID string `json:"folderId,omitempty"`
}

func (r *CreateFileRequest) Validate() error {
	return rules.Check(validation.ValidateStruct(r,
		validation.Field(&r.Name, rules.Name...),
		validation.Field(&r.Size, validation.Min(int64(0))),
		validation.Field(&r.Key, validation.Required),
		validation.Field(&r.URL, validation.Required),
		validation.Field(&r.UserID, rules.ID...),
		validation.Field(&r.FolderID, rules.FolderRef),
	))
}

type UploadFileRequest struct {
	UserID      string
	FolderID    string
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

func (r *UploadFileRequest) Validate() error {
	return rules.Check(validation.ValidateStruct(r,
		validation.Field(&r.UserID, rules.ID...),
		validation.Field(&r.FolderID, rules.FolderRef),
		validation.Field(&r.Name, validation.Required, validation.Length(1, rules.MaxNameLength)),
		validation.Field(&r.Size, validation.Min(int64(0))),
	))
}

type ListFilesQuery struct {
	UserID   string `query:"userId"`
	Search   string `query:"search"`
	Type     string `query:"type"`
	Sort     string `query:"sort"`
	FolderID string `query:"folderId"`
}

func (q *ListFilesQuery) Validate() error {
	return rules.Check(validation.ValidateStruct(q,
		validation.Field(&q.UserID, rules.ID...),
		validation.Field(&q.Type, validation.In(
			repositories.FileTypeImage,
			repositories.FileTypePDF,
			repositories.FileTypeCode,
		)),
		validation.Field(&q.FolderID, rules.FolderRef),
	))
}

type UpdateFileRequest struct {
	Name     *string `json:"name,omitempty"`
	FolderID *string `json:"folderId,omitempty"`
	Key      *string `json:"key,omitempty"`
	URL      *string `json:"url,omitempty"`
}

func (r *UpdateFileRequest) Validate() error {
	return rules.Check(validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.When(r.Name != nil, rules.Name...)),
		validation.Field(&r.FolderID, rules.FolderRef),
		validation.Field(&r.Key, validation.When(r.Key != nil, validation.Required)),
	))
}

type FileControllerInterface interface {
	CreateFile(ctx context.Context, request *CreateFileRequest) (*File, error)
	UploadFile(ctx context.Context, request *UploadFileRequest) (*File, error)
	ListFiles(ctx context.Context, query *ListFilesQuery) ([]*File, error)
	QueryFiles(
		ctx context.Context,
		userID string,
		params map[string]string,
	) ([]*File, database.PaginationMeta, error)
	UpdateFile(ctx context.Context, fileID string, userID string, request *UpdateFileRequest) (*File, error)
	DeleteFile(ctx context.Context, fileID string, userID string) (*File, error)
}

type FileController struct {
	fileService          *services.FileService
	orchestrationService *services.OrchestrationService
	log                  logger.Logger
}

func New(services services.Service) FileControllerInterface {
	return &FileController{
		fileService:          services.File,
		orchestrationService: services.Orchestration,
		log:                  logger.New("fileController"),
	}
}

func (c *FileController) CreateFile(ctx context.Context, request *CreateFileRequest) (*File, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	userID, err := types.ParseID("userId", request.UserID)
	if err != nil {
		return nil, err
	}

	return c.fileService.Create(ctx, services.CreateFileInput{
		Name:     request.Name,
		Size:     request.Size,
		Type:     request.Type,
		Key:      request.Key,
		URL:      request.URL,
		UserID:   userID,
		FolderID: request.FolderID,
	})
}

func (c *FileController) UploadFile(ctx context.Context, request *UploadFileRequest) (*File, error) {
	log := c.log.Function("UploadFile")

	if err := request.Validate(); err != nil {
		return nil, err
	}

	userID, err := types.ParseID("userId", request.UserID)
	if err != nil {
		return nil, err
	}

	file, err := c.orchestrationService.UploadFile(ctx, services.UploadFileInput{
		UserID:      userID,
		FolderID:    request.FolderID,
		Name:        request.Name,
		Size:        request.Size,
		ContentType: request.ContentType,
		Body:        request.Body,
	})
	if err != nil {
		log.Warn("upload failed", "userID", userID, "name", request.Name, "error", err)
		return nil, err
	}

	return file, nil
}

func (c *FileController) ListFiles(ctx context.Context, query *ListFilesQuery) ([]*File, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	userID, err := types.ParseID("userId", query.UserID)
	if err != nil {
		return nil, err
	}

	return c.fileService.List(ctx, services.ListFilesInput{
		UserID:   userID,
		FolderID: query.FolderID,
		Search:   query.Search,
		Type:     query.Type,
		Sort:     query.Sort,
	})
}

func (c *FileController) QueryFiles(
	ctx context.Context,
	userID string,
	params map[string]string,
) ([]*File, database.PaginationMeta, error) {
	owner, err := types.ParseID("userId", userID)
	if err != nil {
		return nil, database.PaginationMeta{}, err
	}

	return c.fileService.Query(ctx, owner, params)
}

func (c *FileController) UpdateFile(
	ctx context.Context,
	fileID string,
	userID string,
	request *UpdateFileRequest,
) (*File, error) {
	id, owner, err := parseScopedID(fileID, userID)
	if err != nil {
		return nil, err
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}

	return c.fileService.Update(ctx, id, owner, services.UpdateFileInput{
		Name:     request.Name,
		FolderID: request.FolderID,
		Key:      request.Key,
		URL:      request.URL,
	})
}

// DeleteFile removes the stored object before the metadata row.
func (c *FileController) DeleteFile(ctx context.Context, fileID string, userID string) (*File, error) {
	id, owner, err := parseScopedID(fileID, userID)
	if err != nil {
		return nil, err
	}

	return c.orchestrationService.DeleteFile(ctx, id, owner)
}

func parseScopedID(resourceID string, userID string) (uuid.UUID, uuid.UUID, error) {
	id, err := types.ParseID("id", resourceID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	owner, err := types.ParseID("userId", userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	return id, owner, nil
}
