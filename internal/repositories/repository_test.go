package repositories_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fileforge/internal/database"
	"fileforge/internal/models"
	"fileforge/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (repositories.Repository, database.DB) {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "repositories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repositories.New(db), db
}

func createFolder(
	t *testing.T,
	repos repositories.Repository,
	userID uuid.UUID,
	parentID *uuid.UUID,
	name string,
	slug string,
) *models.Folder {
	t.Helper()
	folder := &models.Folder{Name: name, Slug: slug, UserID: userID, ParentID: parentID}
	require.NoError(t, repos.Folder.Create(context.Background(), folder))
	return folder
}

func createFile(
	t *testing.T,
	repos repositories.Repository,
	userID uuid.UUID,
	folderID *uuid.UUID,
	name string,
	mime string,
) *models.File {
	t.Helper()
	file := &models.File{
		Name:     name,
		Type:     mime,
		Key:      userID.String() + "/" + uuid.NewString() + "/" + name,
		URL:      "http://objects.local/" + name,
		UserID:   userID,
		FolderID: folderID,
	}
	require.NoError(t, repos.File.Create(context.Background(), file))
	return file
}

func TestFolderRepository_LevelScoping(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	docs := createFolder(t, repos, userID, nil, "Docs", "docs")
	createFolder(t, repos, userID, nil, "Archive", "archive")
	child := createFolder(t, repos, userID, &docs.ID, "Reports", "reports")
	createFolder(t, repos, uuid.New(), nil, "Other", "other")

	roots, err := repos.Folder.ListChildren(ctx, userID, nil)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "Archive", roots[0].Name)
	assert.Equal(t, "Docs", roots[1].Name)

	children, err := repos.Folder.ListChildren(ctx, userID, &docs.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	found, err := repos.Folder.GetChildBySlug(ctx, userID, &docs.ID, "reports")
	require.NoError(t, err)
	assert.Equal(t, child.ID, found.ID)

	_, err = repos.Folder.GetChildBySlug(ctx, userID, nil, "reports")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestFolderRepository_SiblingSlugExists(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	docs := createFolder(t, repos, userID, nil, "Docs", "docs")

	exists, err := repos.Folder.SiblingSlugExists(ctx, userID, nil, "docs", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repos.Folder.SiblingSlugExists(ctx, userID, nil, "docs", &docs.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repos.Folder.SiblingSlugExists(ctx, userID, &docs.ID, "docs", nil)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repos.Folder.SiblingSlugExists(ctx, uuid.New(), nil, "docs", nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFolderRepository_ScopedMutations(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	folder := createFolder(t, repos, userID, nil, "Docs", "docs")

	_, err := repos.Folder.GetByID(ctx, uuid.New(), folder.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	intruder := *folder
	intruder.UserID = uuid.New()
	intruder.Name = "Hijacked"
	assert.ErrorIs(t, repos.Folder.Update(ctx, &intruder), gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repos.Folder.Delete(ctx, uuid.New(), folder.ID), gorm.ErrRecordNotFound)
	require.NoError(t, repos.Folder.Delete(ctx, userID, folder.ID))
	assert.ErrorIs(t, repos.Folder.Delete(ctx, userID, folder.ID), gorm.ErrRecordNotFound)
}

func TestFileRepository_ListFilters(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()
	folder := createFolder(t, repos, userID, nil, "Docs", "docs")

	createFile(t, repos, userID, nil, "photo.png", "image/png")
	createFile(t, repos, userID, nil, "Report.pdf", "application/pdf")
	createFile(t, repos, userID, nil, "config.json", "application/json")
	createFile(t, repos, userID, &folder.ID, "nested.png", "image/png")
	createFile(t, repos, uuid.New(), nil, "foreign.png", "image/png")

	names := func(files []*models.File) []string {
		out := make([]string, 0, len(files))
		for _, f := range files {
			out = append(out, f.Name)
		}
		return out
	}

	tests := []struct {
		name     string
		filter   repositories.FileFilter
		expected []string
	}{
		{
			name:     "root level sorted by name",
			filter:   repositories.FileFilter{UserID: userID, Sort: repositories.FileSortName},
			expected: []string{"Report.pdf", "config.json", "photo.png"},
		},
		{
			name:     "code bucket",
			filter:   repositories.FileFilter{UserID: userID, Type: repositories.FileTypeCode},
			expected: []string{"config.json"},
		},
		{
			name:     "image bucket",
			filter:   repositories.FileFilter{UserID: userID, Type: repositories.FileTypeImage},
			expected: []string{"photo.png"},
		},
		{
			name:     "pdf bucket",
			filter:   repositories.FileFilter{UserID: userID, Type: repositories.FileTypePDF},
			expected: []string{"Report.pdf"},
		},
		{
			name:     "case insensitive search",
			filter:   repositories.FileFilter{UserID: userID, Search: "REPORT"},
			expected: []string{"Report.pdf"},
		},
		{
			name:     "folder level",
			filter:   repositories.FileFilter{UserID: userID, FolderID: &folder.ID},
			expected: []string{"nested.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := repos.File.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.expected, names(files))
		})
	}
}

func TestFileRepository_DefaultSortIsMostRecentlyModified(t *testing.T) {
	repos, db := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	older := createFile(t, repos, userID, nil, "older.txt", "text/plain")
	newer := createFile(t, repos, userID, nil, "newer.txt", "text/plain")
	require.NoError(t, db.SQL.Model(&models.File{}).
		Where("id = ?", older.ID).
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	files, err := repos.File.List(ctx, repositories.FileFilter{UserID: userID, Sort: repositories.FileSortModified})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, newer.ID, files[0].ID)
}

func TestFileRepository_FolderBatchOperations(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	a := createFolder(t, repos, userID, nil, "A", "a")
	b := createFolder(t, repos, userID, &a.ID, "B", "b")
	createFile(t, repos, userID, &a.ID, "f1.txt", "text/plain")
	createFile(t, repos, userID, &b.ID, "f2.txt", "text/plain")
	createFile(t, repos, userID, nil, "loose.txt", "text/plain")

	files, err := repos.File.ListByFolders(ctx, userID, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	deleted, err := repos.File.DeleteByFolders(ctx, userID, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	remaining, err := repos.File.List(ctx, repositories.FileFilter{UserID: userID})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "loose.txt", remaining[0].Name)
}

func TestStorageOperationRepository_Replayable(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	pending := &models.StorageOperation{UserID: userID, Kind: models.StorageOperationDelete, Keys: []string{"a"}}
	require.NoError(t, repos.StorageOperation.Create(ctx, pending))
	assert.Equal(t, models.StorageOperationPending, pending.Status)

	done := &models.StorageOperation{UserID: userID, Kind: models.StorageOperationDelete, Keys: []string{"b"}}
	require.NoError(t, repos.StorageOperation.Create(ctx, done))
	require.NoError(t, repos.StorageOperation.MarkCompleted(ctx, done.ID))

	exhausted := &models.StorageOperation{UserID: userID, Kind: models.StorageOperationDelete, Keys: []string{"c"}}
	require.NoError(t, repos.StorageOperation.Create(ctx, exhausted))
	for i := 0; i < 3; i++ {
		require.NoError(t, repos.StorageOperation.MarkFailed(ctx, exhausted.ID, errors.New("boom")))
	}

	operations, err := repos.StorageOperation.ListReplayable(ctx, 3, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, operations, 1)
	assert.Equal(t, pending.ID, operations[0].ID)

	operations, err = repos.StorageOperation.ListReplayable(ctx, 3, time.Now().Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, operations)
}

func TestStorageOperationRepository_CreatePlanSupersedes(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	userID := uuid.New()
	fileID := uuid.New()
	otherFileID := uuid.New()

	stuck := &models.StorageOperation{
		UserID:    userID,
		Kind:      models.StorageOperationMove,
		FileID:    &fileID,
		SourceKey: "u/docs/a.txt",
		TargetKey: "u/renamed/a.txt",
	}
	require.NoError(t, repos.StorageOperation.Create(ctx, stuck))

	first := &models.StorageOperation{
		UserID:    userID,
		Kind:      models.StorageOperationMove,
		FileID:    &fileID,
		SourceKey: "u/docs/a.txt",
		TargetKey: "u/final/a.txt",
		Keys:      []string{"u/renamed/a.txt"},
	}
	second := &models.StorageOperation{
		UserID:    userID,
		Kind:      models.StorageOperationMove,
		FileID:    &otherFileID,
		SourceKey: "u/docs/b.txt",
		TargetKey: "u/final/b.txt",
	}
	require.NoError(t, repos.StorageOperation.CreatePlan(
		ctx,
		[]*models.StorageOperation{first, second},
		[]uuid.UUID{stuck.ID},
	))
	assert.Equal(t, models.StorageOperationPending, first.Status)
	assert.NotEqual(t, uuid.Nil, second.ID)

	outstanding, err := repos.StorageOperation.ListOutstandingMoves(ctx, userID, []uuid.UUID{fileID, otherFileID})
	require.NoError(t, err)
	require.Len(t, outstanding, 2)
	assert.Equal(t, first.ID, outstanding[0].ID)
	assert.Equal(t, []string{"u/renamed/a.txt"}, []string(outstanding[0].Keys))
	assert.Equal(t, second.ID, outstanding[1].ID)

	// Superseded entries are never replayed
	replayable, err := repos.StorageOperation.ListReplayable(ctx, 5, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Len(t, replayable, 2)
	for _, operation := range replayable {
		assert.NotEqual(t, stuck.ID, operation.ID)
	}

	none, err := repos.StorageOperation.ListOutstandingMoves(ctx, uuid.New(), []uuid.UUID{fileID})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileRepository_ReferencedKeys(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	kept := createFile(t, repos, owner, nil, "kept.txt", "text/plain")
	foreign := createFile(t, repos, other, nil, "foreign.txt", "text/plain")

	referenced, err := repos.File.ReferencedKeys(ctx, owner, []string{
		kept.Key,
		foreign.Key,
		owner.String() + "/gone.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{kept.Key}, referenced)

	empty, err := repos.File.ReferencedKeys(ctx, owner, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
