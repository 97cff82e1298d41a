package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	. "fileforge/internal/models"
	"fileforge/internal/repositories"
	"fileforge/internal/types"
	"fileforge/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateFolderInput struct {
	Name     string
	UserID   uuid.UUID
	ParentID *uuid.UUID
}

type UpdateFolderInput struct {
	Name *string
	// ParentID is only applied when SetParent is true. A nil ParentID then
	// moves the folder to the root level.
	ParentID  *uuid.UUID
	SetParent bool
}

type FolderService struct {
	repos    repositories.Repository
	notifier Notifier
	log      logger.Logger
}

func NewFolderService(repos repositories.Repository, notifier Notifier) *FolderService {
	return &FolderService{
		repos:    repos,
		notifier: notifier,
		log:      logger.New("FolderService"),
	}
}

func (s *FolderService) Create(ctx context.Context, input CreateFolderInput) (*Folder, error) {
	log := s.log.Function("Create")

	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", types.ErrValidation)
	}

	slug := utils.Slugify(input.Name)
	if slug == "" {
		return nil, fmt.Errorf("%w: folder name %q has no usable characters", types.ErrValidation, input.Name)
	}

	if input.ParentID != nil {
		if _, err := s.Get(ctx, *input.ParentID, input.UserID); err != nil {
			return nil, err
		}
	}

	if err := s.ensureUniqueSlug(ctx, input.UserID, input.ParentID, slug, nil); err != nil {
		return nil, err
	}

	folder := &Folder{
		Name:     input.Name,
		Slug:     slug,
		UserID:   input.UserID,
		ParentID: input.ParentID,
	}

	if err := s.repos.Folder.Create(ctx, folder); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: a folder named %q already exists here", types.ErrConflict, input.Name)
		}
		return nil, log.Err("failed to create folder", err, "userID", input.UserID)
	}

	s.notifier.Notify(
		ctx,
		folder.UserID,
		"Folder Created",
		fmt.Sprintf("Folder %q was created", folder.Name),
		types.NotificationSuccess,
		map[string]any{"folderId": folder.ID.String()},
	)

	return folder, nil
}

func (s *FolderService) Update(
	ctx context.Context,
	folderID uuid.UUID,
	userID uuid.UUID,
	input UpdateFolderInput,
) (*Folder, error) {
	log := s.log.Function("Update")

	folder, err := s.Get(ctx, folderID, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		slug := utils.Slugify(*input.Name)
		if slug == "" {
			return nil, fmt.Errorf("%w: folder name %q has no usable characters", types.ErrValidation, *input.Name)
		}
		folder.Name = *input.Name
		folder.Slug = slug
	}

	if input.SetParent {
		if err := s.ensureAcyclicMove(ctx, folder, input.ParentID); err != nil {
			return nil, err
		}
		folder.ParentID = input.ParentID
	}

	if err := s.ensureUniqueSlug(ctx, userID, folder.ParentID, folder.Slug, &folder.ID); err != nil {
		return nil, err
	}

	if err := s.repos.Folder.Update(ctx, folder); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: a folder named %q already exists here", types.ErrConflict, folder.Name)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundOr(err, "folder %s", folderID)
		}
		return nil, log.Err("failed to update folder", err, "folderID", folderID)
	}

	s.notifier.Notify(
		ctx,
		userID,
		"Folder Updated",
		fmt.Sprintf("Folder %q was updated", folder.Name),
		types.NotificationInfo,
		map[string]any{"folderId": folder.ID.String()},
	)

	return folder, nil
}

func (s *FolderService) List(
	ctx context.Context,
	userID uuid.UUID,
	parentID *uuid.UUID,
) ([]*Folder, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", types.ErrValidation)
	}
	return s.repos.Folder.ListChildren(ctx, userID, parentID)
}

func (s *FolderService) Get(ctx context.Context, folderID uuid.UUID, userID uuid.UUID) (*Folder, error) {
	folder, err := s.repos.Folder.GetByID(ctx, userID, folderID)
	if err != nil {
		return nil, notFoundOr(err, "folder %s", folderID)
	}
	return folder, nil
}

// Delete removes only the folder row. Descendants are the orchestrator's
// responsibility.
func (s *FolderService) Delete(ctx context.Context, folderID uuid.UUID, userID uuid.UUID) (*Folder, error) {
	folder, err := s.Get(ctx, folderID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Folder.Delete(ctx, userID, folderID); err != nil {
		return nil, notFoundOr(err, "folder %s", folderID)
	}

	s.notifier.Notify(
		ctx,
		userID,
		"Folder Deleted",
		fmt.Sprintf("Folder %q was deleted", folder.Name),
		types.NotificationWarning,
		map[string]any{"folderId": folder.ID.String()},
	)

	return folder, nil
}

// ResolvePath walks slug segments from the root. A miss at any level yields a
// nil id and no error, as does an empty segment list.
func (s *FolderService) ResolvePath(
	ctx context.Context,
	userID uuid.UUID,
	segments []string,
) (*uuid.UUID, error) {
	log := s.log.Function("ResolvePath")

	if len(segments) == 0 {
		return nil, nil
	}

	var parentID *uuid.UUID
	for _, segment := range segments {
		folder, err := s.repos.Folder.GetChildBySlug(ctx, userID, parentID, segment)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, log.Err("failed to resolve path segment", err, "userID", userID, "segment", segment)
		}
		parentID = &folder.ID
	}

	return parentID, nil
}

// GetPath returns the folder and its ancestors, root first. Every hop is
// scoped to userID.
func (s *FolderService) GetPath(
	ctx context.Context,
	userID uuid.UUID,
	folderID uuid.UUID,
) ([]types.PathSegment, error) {
	var path []types.PathSegment
	visited := make(map[uuid.UUID]bool)

	currentID := &folderID
	for currentID != nil {
		if visited[*currentID] {
			return nil, fmt.Errorf("%w: folder %s has a cyclic parent chain", types.ErrValidation, folderID)
		}
		visited[*currentID] = true

		folder, err := s.Get(ctx, *currentID, userID)
		if err != nil {
			return nil, err
		}

		path = append(path, types.PathSegment{
			ID:       folder.ID,
			Name:     folder.Name,
			Slug:     folder.Slug,
			ParentID: folder.ParentID,
		})
		currentID = folder.ParentID
	}

	slices.Reverse(path)
	return path, nil
}

// GetRecursiveFiles returns every file in the folder and its descendants,
// depth first with a folder's own files ahead of its subfolders.
func (s *FolderService) GetRecursiveFiles(
	ctx context.Context,
	userID uuid.UUID,
	folderID uuid.UUID,
) ([]*File, error) {
	if _, err := s.Get(ctx, folderID, userID); err != nil {
		return nil, err
	}

	files := make([]*File, 0)
	visited := make(map[uuid.UUID]bool)
	if err := s.collectFiles(ctx, userID, folderID, visited, &files); err != nil {
		return nil, err
	}

	return files, nil
}

func (s *FolderService) collectFiles(
	ctx context.Context,
	userID uuid.UUID,
	folderID uuid.UUID,
	visited map[uuid.UUID]bool,
	files *[]*File,
) error {
	log := s.log.Function("collectFiles")

	if visited[folderID] {
		log.Warn("skipping folder already visited", "userID", userID, "folderID", folderID)
		return nil
	}
	visited[folderID] = true

	direct, err := s.repos.File.ListByFolders(ctx, userID, []uuid.UUID{folderID})
	if err != nil {
		return err
	}
	*files = append(*files, direct...)

	childIDs, err := s.repos.Folder.ListChildIDs(ctx, userID, folderID)
	if err != nil {
		return err
	}

	for _, childID := range childIDs {
		if err := s.collectFiles(ctx, userID, childID, visited, files); err != nil {
			return err
		}
	}

	return nil
}

// DescendantFolderIDs returns folderID followed by every folder below it.
func (s *FolderService) DescendantFolderIDs(
	ctx context.Context,
	userID uuid.UUID,
	folderID uuid.UUID,
) ([]uuid.UUID, error) {
	if _, err := s.Get(ctx, folderID, userID); err != nil {
		return nil, err
	}

	ids := []uuid.UUID{folderID}
	visited := map[uuid.UUID]bool{folderID: true}

	for i := 0; i < len(ids); i++ {
		parentID := ids[i]
		childIDs, err := s.repos.Folder.ListChildIDs(ctx, userID, parentID)
		if err != nil {
			return nil, err
		}

		for _, childID := range childIDs {
			if visited[childID] {
				continue
			}
			visited[childID] = true
			ids = append(ids, childID)
		}
	}

	return ids, nil
}

func (s *FolderService) ensureUniqueSlug(
	ctx context.Context,
	userID uuid.UUID,
	parentID *uuid.UUID,
	slug string,
	excludeID *uuid.UUID,
) error {
	exists, err := s.repos.Folder.SiblingSlugExists(ctx, userID, parentID, slug, excludeID)
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: a folder with slug %q already exists here", types.ErrConflict, slug)
	}

	return nil
}

// ensureAcyclicMove walks up from the new parent and rejects the move when it
// reaches the folder being moved.
func (s *FolderService) ensureAcyclicMove(ctx context.Context, folder *Folder, newParentID *uuid.UUID) error {
	visited := make(map[uuid.UUID]bool)

	currentID := newParentID
	for currentID != nil {
		if *currentID == folder.ID {
			return fmt.Errorf(
				"%w: folder %s cannot be moved into itself or its descendants",
				types.ErrValidation,
				folder.ID,
			)
		}

		if visited[*currentID] {
			return fmt.Errorf("%w: folder %s has a cyclic parent chain", types.ErrValidation, *currentID)
		}
		visited[*currentID] = true

		ancestor, err := s.Get(ctx, *currentID, folder.UserID)
		if err != nil {
			return err
		}
		currentID = ancestor.ParentID
	}

	return nil
}
