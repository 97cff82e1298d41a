package folderController

import (
	"context"
	"encoding/json"

	"fileforge/internal/controllers/rules"
	. "fileforge/internal/models"
	"fileforge/internal/services"
	"fileforge/internal/types"
	"fileforge/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type CreateFolderRequest struct {
	Name     string  `json:"name"`
	UserID   string  `json:"userId"`
	ParentID *string `json:"parentId,omitempty"`
}

func (r *CreateFolderRequest) Validate() error {
	return rules.Check(validation.ValidateStruct(r,
		validation.Field(&r.Name, rules.Name...),
		validation.Field(&r.UserID, rules.ID...),
		validation.Field(&r.ParentID, rules.FolderRef),
	))
}

// UpdateFolderRequest changes the name, the parent, or both. A parentId of
// "root" or an explicit JSON null moves the folder to the top level; leaving
// parentId out keeps the current parent.
type UpdateFolderRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parentId,omitempty"`
}

func (r *UpdateFolderRequest) UnmarshalJSON(data []byte) error {
	type fields UpdateFolderRequest
	var body struct {
		fields
		RawParentID json.RawMessage `json:"parentId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}

	*r = UpdateFolderRequest(body.fields)
	switch {
	case body.RawParentID == nil:
	case string(body.RawParentID) == "null":
		root := types.RootFolderRef
		r.ParentID = &root
	default:
		var parentID string
		if err := json.Unmarshal(body.RawParentID, &parentID); err != nil {
			return err
		}
		r.ParentID = &parentID
	}

	return nil
}

func (r *UpdateFolderRequest) Validate() error {
	if r.Name == nil && r.ParentID == nil {
		return rules.Check(validation.Errors{"name": validation.NewError(
			"validation_update_empty",
			"name or parentId must be provided",
		)})
	}

	return rules.Check(validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.When(r.Name != nil, rules.Name...)),
		validation.Field(&r.ParentID, rules.FolderRef),
	))
}

type FolderControllerInterface interface {
	CreateFolder(ctx context.Context, request *CreateFolderRequest) (*Folder, error)
	ListFolders(ctx context.Context, userID string, parentID string) ([]*Folder, error)
	ResolvePath(ctx context.Context, userID string, path string) (*uuid.UUID, error)
	GetPath(ctx context.Context, folderID string, userID string) ([]types.PathSegment, error)
	GetRecursiveFiles(ctx context.Context, folderID string, userID string) ([]*File, error)
	UpdateFolder(
		ctx context.Context,
		folderID string,
		userID string,
		request *UpdateFolderRequest,
	) (*Folder, error)
	DeleteFolder(ctx context.Context, folderID string, userID string) (*Folder, error)
}

type FolderController struct {
	folderService        *services.FolderService
	orchestrationService *services.OrchestrationService
	log                  logger.Logger
}

func New(services services.Service) FolderControllerInterface {
	return &FolderController{
		folderService:        services.Folder,
		orchestrationService: services.Orchestration,
		log:                  logger.New("folderController"),
	}
}

func parseFolderRef(ref string) (*uuid.UUID, error) {
	folderID, err := types.ParseFolderRef(ref)
	if err != nil {
		return nil, rules.Check(validation.Errors{"parentId": err})
	}
	return folderID, nil
}

func (c *FolderController) CreateFolder(
	ctx context.Context,
	request *CreateFolderRequest,
) (*Folder, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	userID, err := types.ParseID("userId", request.UserID)
	if err != nil {
		return nil, err
	}

	var parentID *uuid.UUID
	if request.ParentID != nil {
		if parentID, err = parseFolderRef(*request.ParentID); err != nil {
			return nil, err
		}
	}

	return c.folderService.Create(ctx, services.CreateFolderInput{
		Name:     request.Name,
		UserID:   userID,
		ParentID: parentID,
	})
}

func (c *FolderController) ListFolders(
	ctx context.Context,
	userID string,
	parentID string,
) ([]*Folder, error) {
	owner, err := types.ParseID("userId", userID)
	if err != nil {
		return nil, err
	}

	parent, err := parseFolderRef(parentID)
	if err != nil {
		return nil, err
	}

	return c.folderService.List(ctx, owner, parent)
}

// ResolvePath returns nil without error when the path does not exist.
func (c *FolderController) ResolvePath(
	ctx context.Context,
	userID string,
	path string,
) (*uuid.UUID, error) {
	owner, err := types.ParseID("userId", userID)
	if err != nil {
		return nil, err
	}

	return c.folderService.ResolvePath(ctx, owner, utils.SplitPath(path))
}

func (c *FolderController) GetPath(
	ctx context.Context,
	folderID string,
	userID string,
) ([]types.PathSegment, error) {
	id, owner, err := parseScopedID(folderID, userID)
	if err != nil {
		return nil, err
	}

	return c.folderService.GetPath(ctx, owner, id)
}

func (c *FolderController) GetRecursiveFiles(
	ctx context.Context,
	folderID string,
	userID string,
) ([]*File, error) {
	id, owner, err := parseScopedID(folderID, userID)
	if err != nil {
		return nil, err
	}

	return c.folderService.GetRecursiveFiles(ctx, owner, id)
}

func (c *FolderController) UpdateFolder(
	ctx context.Context,
	folderID string,
	userID string,
	request *UpdateFolderRequest,
) (*Folder, error) {
	log := c.log.Function("UpdateFolder")

	id, owner, err := parseScopedID(folderID, userID)
	if err != nil {
		return nil, err
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}

	input := services.UpdateFolderInput{Name: request.Name}
	if request.ParentID != nil {
		if input.ParentID, err = parseFolderRef(*request.ParentID); err != nil {
			return nil, err
		}
		input.SetParent = true
	}

	folder, err := c.orchestrationService.UpdateFolder(ctx, id, owner, input)
	if err != nil {
		log.Warn("folder update failed", "folderID", id, "userID", owner, "error", err)
		return nil, err
	}

	return folder, nil
}

func (c *FolderController) DeleteFolder(
	ctx context.Context,
	folderID string,
	userID string,
) (*Folder, error) {
	id, owner, err := parseScopedID(folderID, userID)
	if err != nil {
		return nil, err
	}

	return c.orchestrationService.DeleteFolder(ctx, id, owner)
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
