package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	. "fileforge/internal/models"
	"fileforge/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteKeyPrefix(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		rewrite bool
	}{
		{name: "direct child", key: "u/docs/report.pdf", want: "u/documents-2024/report.pdf", rewrite: true},
		{name: "nested", key: "u/docs/a/b.txt", want: "u/documents-2024/a/b.txt", rewrite: true},
		{name: "sibling sharing a prefix", key: "u/docs-old/report.pdf", want: "u/docs-old/report.pdf"},
		{name: "prefix elsewhere in key", key: "u/other/u/docs/x", want: "u/other/u/docs/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rewriteKeyPrefix(tt.key, "u/docs", "u/documents-2024")
			assert.Equal(t, tt.rewrite, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrchestrationService_RenameRewritesKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	docs := env.mkdir(t, userID, nil, "docs")
	sibling := env.mkdir(t, userID, nil, "docs old")
	report := env.addFile(t, userID, docs, "report.pdf", "application/pdf")
	untouched := env.addFile(t, userID, sibling, "report.pdf", "application/pdf")

	name := "Documents 2024"
	updated, err := env.orchestration.UpdateFolder(ctx, docs.ID, userID, UpdateFolderInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "documents-2024", updated.Slug)

	moved, err := env.files.Get(ctx, report.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, userID.String()+"/documents-2024/report.pdf", moved.Key)
	assert.Equal(t, env.gateway.PublicURL(moved.Key), moved.URL)
	assert.True(t, env.gateway.has(moved.Key))
	assert.False(t, env.gateway.has(report.Key))

	stayed, err := env.files.Get(ctx, untouched.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, untouched.Key, stayed.Key)
	assert.Equal(t, userID.String()+"/docs-old/report.pdf", stayed.Key)
	assert.Len(t, env.gateway.moveCalls, 1)
}

func TestOrchestrationService_ReparentMovesKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	archive := env.mkdir(t, userID, nil, "Archive")
	docs := env.mkdir(t, userID, nil, "docs")
	file := env.addFile(t, userID, docs, "a.txt", "text/plain")

	_, err := env.orchestration.UpdateFolder(ctx, docs.ID, userID, UpdateFolderInput{
		ParentID:  &archive.ID,
		SetParent: true,
	})
	require.NoError(t, err)

	moved, err := env.files.Get(ctx, file.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, userID.String()+"/archive/docs/a.txt", moved.Key)
}

func TestOrchestrationService_RenameStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	docs := env.mkdir(t, userID, nil, "docs")
	file := env.addFile(t, userID, docs, "a.txt", "text/plain")
	env.gateway.moveErr = errors.New("backend unavailable")

	name := "Renamed"
	_, err := env.orchestration.UpdateFolder(ctx, docs.ID, userID, UpdateFolderInput{Name: &name})
	assert.ErrorIs(t, err, types.ErrStorage)

	// Metadata rename stays committed, the file still points at the old key
	folder, err := env.folders.Get(ctx, docs.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", folder.Slug)

	stale, err := env.files.Get(ctx, file.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, file.Key, stale.Key)

	var journal []StorageOperation
	require.NoError(t, env.db.SQL.Find(&journal).Error)
	require.Len(t, journal, 1)
	assert.Equal(t, StorageOperationFailed, journal[0].Status)
	assert.Equal(t, 1, journal[0].Attempts)

	// The replay job finishes the move once storage recovers
	env.gateway.moveErr = nil
	env.orchestration.now = func() time.Time { return time.Now().Add(time.Hour) }

	settled, err := env.orchestration.ReplayJournal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	repaired, err := env.files.Get(ctx, file.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, userID.String()+"/renamed/a.txt", repaired.Key)
	assert.True(t, env.gateway.has(repaired.Key))

	settled, err = env.orchestration.ReplayJournal(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled)
}

func journalEntries(t *testing.T, env *testEnv) []StorageOperation {
	t.Helper()

	var journal []StorageOperation
	require.NoError(t, env.db.SQL.Order("created_at ASC, id ASC").Find(&journal).Error)
	return journal
}

func TestOrchestrationService_RenameJournalsEveryMoveUpFront(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	docs := env.mkdir(t, userID, nil, "docs")
	first := env.addFile(t, userID, docs, "a.txt", "text/plain")
	second := env.addFile(t, userID, docs, "b.txt", "text/plain")
	env.gateway.moveErr = errors.New("backend unavailable")
	env.gateway.failMoveKey = first.Key

	name := "Renamed"
	_, err := env.orchestration.UpdateFolder(ctx, docs.ID, userID, UpdateFolderInput{Name: &name})
	assert.ErrorIs(t, err, types.ErrStorage)
	assert.Len(t, env.gateway.moveCalls, 1)

	journal := journalEntries(t, env)
	require.Len(t, journal, 2)
	assert.Equal(t, first.ID, *journal[0].FileID)
	assert.Equal(t, StorageOperationFailed, journal[0].Status)
	assert.Equal(t, second.ID, *journal[1].FileID)
	assert.Equal(t, StorageOperationPending, journal[1].Status)
	assert.Equal(t, userID.String()+"/renamed/b.txt", journal[1].TargetKey)

	env.gateway.moveErr = nil
	env.orchestration.now = func() time.Time { return time.Now().Add(time.Hour) }

	settled, err := env.orchestration.ReplayJournal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, settled)

	for _, file := range []*File{first, second} {
		repaired, err := env.files.Get(ctx, file.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, userID.String()+"/renamed/"+file.Name, repaired.Key)
		assert.True(t, env.gateway.has(repaired.Key))
		assert.False(t, env.gateway.has(file.Key))
	}
}

func TestOrchestrationService_RepeatedRenameResumesMoves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	docs := env.mkdir(t, userID, nil, "docs")
	first := env.addFile(t, userID, docs, "a.txt", "text/plain")
	second := env.addFile(t, userID, docs, "b.txt", "text/plain")
	env.gateway.moveErr = errors.New("backend unavailable")
	env.gateway.failMoveKey = first.Key

	name := "Renamed"
	_, err := env.orchestration.UpdateFolder(ctx, docs.ID, userID, UpdateFolderInput{Name: &name})
	require.ErrorIs(t, err, types.ErrStorage)

	// Same request again once storage is back, before any replay ran
	env.gateway.moveErr = nil
	updated, err := env.orchestration.UpdateFolder(ctx, docs.ID, userID, UpdateFolderInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Slug)

	for _, file := range []*File{first, second} {
		repaired, err := env.files.Get(ctx, file.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, userID.String()+"/renamed/"+file.Name, repaired.Key)
		assert.True(t, env.gateway.has(repaired.Key))
	}

	statuses := map[StorageOperationStatus]int{}
	for _, entry := range journalEntries(t, env) {
		statuses[entry.Status]++
	}
	assert.Equal(t, map[StorageOperationStatus]int{
		StorageOperationSuperseded: 2,
		StorageOperationCompleted:  2,
	}, statuses)

	env.orchestration.now = func() time.Time { return time.Now().Add(time.Hour) }
	settled, err := env.orchestration.ReplayJournal(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled)
}

func TestOrchestrationService_RenameAfterUnsettledMoveFindsObject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	docs := env.mkdir(t, userID, nil, "docs")
	file := env.addFile(t, userID, docs, "a.txt", "text/plain")

	// An earlier rename moved the object but never updated the row
	fileID := file.ID
	stuckKey := userID.String() + "/renamed/a.txt"
	require.NoError(t, env.repos.StorageOperation.Create(ctx, &StorageOperation{
		UserID:    userID,
		Kind:      StorageOperationMove,
		FileID:    &fileID,
		SourceKey: file.Key,
		TargetKey: stuckKey,
	}))
	_, err := env.gateway.Move(ctx, file.Key, stuckKey)
	require.NoError(t, err)
	name := "Renamed"
	_, err = env.folders.Update(ctx, docs.ID, userID, UpdateFolderInput{Name: &name})
	require.NoError(t, err)

	final := "Final"
	_, err = env.orchestration.UpdateFolder(ctx, docs.ID, userID, UpdateFolderInput{Name: &final})
	require.NoError(t, err)

	moved, err := env.files.Get(ctx, file.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, userID.String()+"/final/a.txt", moved.Key)
	assert.True(t, env.gateway.has(moved.Key))
	assert.False(t, env.gateway.has(stuckKey))
}

func TestOrchestrationService_UnchangedPathMovesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	docs := env.mkdir(t, userID, nil, "docs")
	env.addFile(t, userID, docs, "a.txt", "text/plain")

	name := "Docs"
	_, err := env.orchestration.UpdateFolder(ctx, docs.ID, userID, UpdateFolderInput{Name: &name})
	require.NoError(t, err)
	assert.Empty(t, env.gateway.moveCalls)
	assert.Empty(t, journalEntries(t, env))
}

func TestOrchestrationService_ReplayAfterCopyWithoutRelocate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	docs := env.mkdir(t, userID, nil, "docs")
	file := env.addFile(t, userID, docs, "a.txt", "text/plain")
	targetKey := userID.String() + "/moved/a.txt"

	// Simulates a crash after the object move but before the row update
	fileID := file.ID
	require.NoError(t, env.repos.StorageOperation.Create(ctx, &StorageOperation{
		UserID:    userID,
		Kind:      StorageOperationMove,
		FileID:    &fileID,
		SourceKey: file.Key,
		TargetKey: targetKey,
	}))
	_, err := env.gateway.Move(ctx, file.Key, targetKey)
	require.NoError(t, err)

	env.orchestration.now = func() time.Time { return time.Now().Add(time.Hour) }
	settled, err := env.orchestration.ReplayJournal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	repaired, err := env.files.Get(ctx, file.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, targetKey, repaired.Key)
}

func TestOrchestrationService_DeleteFolderCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	a := env.mkdir(t, userID, nil, "A")
	b := env.mkdir(t, userID, a, "B")
	c := env.mkdir(t, userID, b, "C")
	keep := env.mkdir(t, userID, nil, "Keep")

	f1 := env.addFile(t, userID, a, "f1.txt", "text/plain")
	f2 := env.addFile(t, userID, b, "f2.txt", "text/plain")
	f3 := env.addFile(t, userID, c, "f3.txt", "text/plain")
	kept := env.addFile(t, userID, keep, "kept.txt", "text/plain")

	deleted, err := env.orchestration.DeleteFolder(ctx, a.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, deleted.ID)

	require.Len(t, env.gateway.removeCalls, 1)
	assert.ElementsMatch(t, []string{f1.Key, f2.Key, f3.Key}, env.gateway.removeCalls[0])

	for _, id := range []uuid.UUID{a.ID, b.ID, c.ID} {
		_, err := env.folders.Get(ctx, id, userID)
		assert.ErrorIs(t, err, types.ErrNotFound)
	}
	for _, file := range []*File{f1, f2, f3} {
		_, err := env.files.Get(ctx, file.ID, userID)
		assert.ErrorIs(t, err, types.ErrNotFound)
	}

	_, err = env.files.Get(ctx, kept.ID, userID)
	assert.NoError(t, err)
	assert.True(t, env.gateway.has(kept.Key))

	// The deletion notification is sent once the transaction commits
	assert.Contains(t, env.bus.titles(), "Folder Deleted")
}

func TestOrchestrationService_DeleteFolderStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	a := env.mkdir(t, userID, nil, "A")
	b := env.mkdir(t, userID, a, "B")
	f1 := env.addFile(t, userID, a, "f1.txt", "text/plain")
	f2 := env.addFile(t, userID, b, "f2.txt", "text/plain")
	env.gateway.removeErr = errors.New("backend unavailable")

	_, err := env.orchestration.DeleteFolder(ctx, a.ID, userID)
	assert.ErrorIs(t, err, types.ErrStorage)

	_, err = env.folders.Get(ctx, a.ID, userID)
	assert.NoError(t, err)
	_, err = env.folders.Get(ctx, b.ID, userID)
	assert.NoError(t, err)
	for _, file := range []*File{f1, f2} {
		_, err := env.files.Get(ctx, file.ID, userID)
		assert.NoError(t, err)
	}
	assert.NotContains(t, env.bus.titles(), "Folder Deleted")

	// Replay never removes objects that rows still reference
	env.gateway.removeErr = nil
	env.orchestration.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = env.orchestration.ReplayJournal(ctx)
	require.NoError(t, err)
	assert.True(t, env.gateway.has(f1.Key))
	assert.True(t, env.gateway.has(f2.Key))
}

func TestOrchestrationService_DeleteEmptyFolderSkipsStorage(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	empty := env.mkdir(t, userID, nil, "Empty")

	_, err := env.orchestration.DeleteFolder(context.Background(), empty.ID, userID)
	require.NoError(t, err)
	assert.Empty(t, env.gateway.removeCalls)

	_, err = env.orchestration.DeleteFolder(context.Background(), empty.ID, userID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestOrchestrationService_UploadFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	fixed := time.UnixMilli(1700000000000)
	env.orchestration.now = func() time.Time { return fixed }

	reports := env.mkdir(t, userID, nil, "Reports")
	year := env.mkdir(t, userID, reports, "2024")

	file, err := env.orchestration.UploadFile(ctx, UploadFileInput{
		UserID:      userID,
		FolderID:    year.ID.String(),
		Name:        "../q1.pdf",
		Size:        3,
		ContentType: "application/pdf",
		Body:        bytes.NewBufferString("pdf"),
	})
	require.NoError(t, err)
	assert.Equal(t, userID.String()+"/reports/2024/1700000000000-q1.pdf", file.Key)
	assert.Equal(t, "q1.pdf", file.Name)
	assert.Equal(t, &year.ID, file.FolderID)
	assert.True(t, env.gateway.has(file.Key))

	atRoot, err := env.orchestration.UploadFile(ctx, UploadFileInput{
		UserID:   userID,
		FolderID: types.RootFolderRef,
		Name:     "notes.txt",
		Body:     bytes.NewBufferString("notes"),
	})
	require.NoError(t, err)
	assert.Equal(t, userID.String()+"/1700000000000-notes.txt", atRoot.Key)
	assert.Equal(t, defaultContentType, atRoot.Type)
	assert.Nil(t, atRoot.FolderID)

	env.gateway.putErr = errors.New("backend unavailable")
	_, err = env.orchestration.UploadFile(ctx, UploadFileInput{
		UserID: userID,
		Name:   "fails.txt",
		Body:   bytes.NewBufferString("x"),
	})
	assert.ErrorIs(t, err, types.ErrStorage)

	files, err := env.files.List(ctx, ListFilesInput{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, fileNames(files))
}

func TestOrchestrationService_DeleteFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	file := env.addFile(t, userID, nil, "a.txt", "text/plain")

	env.gateway.removeErr = errors.New("backend unavailable")
	_, err := env.orchestration.DeleteFile(ctx, file.ID, userID)
	assert.ErrorIs(t, err, types.ErrStorage)
	_, err = env.files.Get(ctx, file.ID, userID)
	assert.NoError(t, err)

	env.gateway.removeErr = nil
	deleted, err := env.orchestration.DeleteFile(ctx, file.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, deleted.ID)
	assert.False(t, env.gateway.has(file.Key))

	_, err = env.orchestration.DeleteFile(ctx, file.ID, userID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestOrchestrationService_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	f1 := env.mkdir(t, userID, nil, "Reports")
	assert.Equal(t, "reports", f1.Slug)
	f2 := env.mkdir(t, userID, f1, "2024")
	assert.Equal(t, "2024", f2.Slug)

	q1 := env.addFile(t, userID, f2, "q1.pdf", "application/pdf")
	assert.Equal(t, userID.String()+"/reports/2024/q1.pdf", q1.Key)

	resolved, err := env.folders.ResolvePath(ctx, userID, []string{"reports", "2024"})
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, f2.ID, *resolved)

	name := "Annual Reports"
	renamed, err := env.orchestration.UpdateFolder(ctx, f1.ID, userID, UpdateFolderInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "annual-reports", renamed.Slug)

	moved, err := env.files.Get(ctx, q1.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, userID.String()+"/annual-reports/2024/q1.pdf", moved.Key)

	_, err = env.orchestration.DeleteFolder(ctx, f2.ID, userID)
	require.NoError(t, err)

	require.Len(t, env.gateway.removeCalls, 1)
	assert.Equal(t, []string{moved.Key}, env.gateway.removeCalls[0])
	assert.False(t, env.gateway.has(moved.Key))

	_, err = env.files.Get(ctx, q1.ID, userID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = env.folders.Get(ctx, f2.ID, userID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = env.folders.Get(ctx, f1.ID, userID)
	assert.NoError(t, err)
}
