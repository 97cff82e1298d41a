package services

import (
	"context"
	"testing"

	"fileforge/internal/repositories"
	"fileforge/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileService_ListTypeBuckets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	env.addFile(t, userID, nil, "photo.png", "image/png")
	env.addFile(t, userID, nil, "report.pdf", "application/pdf")
	env.addFile(t, userID, nil, "data.json", "application/json")

	tests := []struct {
		fileType string
		want     []string
	}{
		{fileType: repositories.FileTypeCode, want: []string{"data.json"}},
		{fileType: repositories.FileTypeImage, want: []string{"photo.png"}},
		{fileType: repositories.FileTypePDF, want: []string{"report.pdf"}},
		{fileType: "", want: []string{"photo.png", "report.pdf", "data.json"}},
	}

	for _, tt := range tests {
		t.Run("type "+tt.fileType, func(t *testing.T) {
			files, err := env.files.List(ctx, ListFilesInput{UserID: userID, Type: tt.fileType})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, fileNames(files))
		})
	}

	_, err := env.files.List(ctx, ListFilesInput{UserID: userID, Type: "video"})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestFileService_ListSearchAndSort(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	env.addFile(t, userID, nil, "Quarterly Report.pdf", "application/pdf")
	env.addFile(t, userID, nil, "annual-report.pdf", "application/pdf")
	env.addFile(t, userID, nil, "notes.txt", "text/plain")

	files, err := env.files.List(ctx, ListFilesInput{UserID: userID, Search: "REPORT", Sort: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Quarterly Report.pdf", "annual-report.pdf"}, fileNames(files))

	files, err = env.files.List(ctx, ListFilesInput{UserID: userID, Search: "missing"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileService_SearchTreatsWildcardsLiterally(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	env.addFile(t, userID, nil, "a_b.txt", "text/plain")
	env.addFile(t, userID, nil, "axb.txt", "text/plain")
	env.addFile(t, userID, nil, "100%.txt", "text/plain")
	env.addFile(t, userID, nil, "1000.txt", "text/plain")

	files, err := env.files.List(ctx, ListFilesInput{UserID: userID, Search: "a_b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b.txt"}, fileNames(files))

	files, err = env.files.List(ctx, ListFilesInput{UserID: userID, Search: "0%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100%.txt"}, fileNames(files))

	files, _, err = env.files.Query(ctx, userID, map[string]string{"searchTerm": "a_b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b.txt"}, fileNames(files))
}

func TestFileService_RootSentinel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	folder := env.mkdir(t, userID, nil, "docs")
	atRoot := env.addFile(t, userID, nil, "root.txt", "text/plain")
	env.addFile(t, userID, folder, "nested.txt", "text/plain")

	for _, ref := range []string{"", "root", "null"} {
		files, err := env.files.List(ctx, ListFilesInput{UserID: userID, FolderID: ref})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{atRoot.ID}, fileIDs(files), "ref %q", ref)
	}

	created, err := env.files.Create(ctx, CreateFileInput{
		Name:     "sentinel.txt",
		Key:      userID.String() + "/sentinel.txt",
		UserID:   userID,
		FolderID: types.RootFolderRef,
	})
	require.NoError(t, err)
	assert.Nil(t, created.FolderID)
	assert.Equal(t, defaultContentType, created.Type)

	files, err := env.files.List(ctx, ListFilesInput{UserID: userID, FolderID: folder.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, []string{"nested.txt"}, fileNames(files))
}

func TestFileService_CreateRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	foreign := env.mkdir(t, uuid.New(), nil, "theirs")

	tests := []struct {
		name    string
		input   CreateFileInput
		wantErr error
	}{
		{
			name:    "missing name",
			input:   CreateFileInput{Key: "k", UserID: userID},
			wantErr: types.ErrValidation,
		},
		{
			name:    "missing key",
			input:   CreateFileInput{Name: "a.txt", UserID: userID},
			wantErr: types.ErrValidation,
		},
		{
			name:    "malformed folder",
			input:   CreateFileInput{Name: "a.txt", Key: "k", UserID: userID, FolderID: "not-a-uuid"},
			wantErr: types.ErrValidation,
		},
		{
			name:    "foreign folder",
			input:   CreateFileInput{Name: "a.txt", Key: "k", UserID: userID, FolderID: foreign.ID.String()},
			wantErr: types.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.files.Create(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	folder := env.mkdir(t, userID, nil, "docs")
	file := env.addFile(t, userID, nil, "draft.txt", "text/plain")

	name := "final.txt"
	folderRef := folder.ID.String()
	updated, err := env.files.Update(ctx, file.ID, userID, UpdateFileInput{Name: &name, FolderID: &folderRef})
	require.NoError(t, err)
	assert.Equal(t, "final.txt", updated.Name)
	assert.Equal(t, &folder.ID, updated.FolderID)

	_, err = env.files.Update(ctx, file.ID, uuid.New(), UpdateFileInput{Name: &name})
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = env.files.Delete(ctx, file.ID, uuid.New())
	assert.ErrorIs(t, err, types.ErrNotFound)

	deleted, err := env.files.Delete(ctx, file.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, deleted.ID)

	_, err = env.files.Get(ctx, file.ID, userID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.Equal(t, []string{"Folder Created", "File Uploaded", "File Updated", "File Deleted"}, env.bus.titles())
}

func TestFileService_Query(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		env.addFile(t, userID, nil, name, "text/plain")
	}
	env.addFile(t, uuid.New(), nil, "someone-else.txt", "text/plain")

	files, meta, err := env.files.Query(ctx, userID, map[string]string{
		"sort":  "-name",
		"page":  "1",
		"limit": "2",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.txt", "b.txt"}, fileNames(files))
	assert.Equal(t, int64(3), meta.Total)
	assert.Equal(t, 2, meta.TotalPage)

	files, _, err = env.files.Query(ctx, userID, map[string]string{"searchTerm": "B.TXT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, fileNames(files))
}
