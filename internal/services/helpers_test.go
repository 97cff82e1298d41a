package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"fileforge/internal/database"
	"fileforge/internal/events"
	. "fileforge/internal/models"
	"fileforge/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryGateway struct {
	mu          sync.Mutex
	objects     map[string][]byte
	removeCalls [][]string
	moveCalls   [][2]string
	putErr      error
	removeErr   error
	// moveErr fails moves whose source key equals failMoveKey, or every move
	// when failMoveKey is empty.
	moveErr     error
	failMoveKey string
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{objects: make(map[string][]byte)}
}

func (g *memoryGateway) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.putErr != nil {
		return g.putErr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	g.objects[key] = data
	return nil
}

func (g *memoryGateway) PublicURL(key string) string {
	return "http://objects.local/" + key
}

func (g *memoryGateway) Remove(ctx context.Context, keys []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.removeCalls = append(g.removeCalls, append([]string(nil), keys...))
	if g.removeErr != nil {
		return g.removeErr
	}

	for _, key := range keys {
		delete(g.objects, key)
	}
	return nil
}

func (g *memoryGateway) Move(ctx context.Context, oldKey string, newKey string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.moveCalls = append(g.moveCalls, [2]string{oldKey, newKey})
	if g.moveErr != nil && (g.failMoveKey == "" || g.failMoveKey == oldKey) {
		return "", g.moveErr
	}

	data, ok := g.objects[oldKey]
	if !ok {
		return "", errors.New("no such key: " + oldKey)
	}
	delete(g.objects, oldKey)
	g.objects[newKey] = data
	return newKey, nil
}

func (g *memoryGateway) Exists(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.objects[key]
	return ok, nil
}

func (g *memoryGateway) has(key string) bool {
	exists, _ := g.Exists(context.Background(), key)
	return exists
}

func (g *memoryGateway) seed(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.objects[key] = []byte(key)
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(channel events.Channel, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	event.Channel = channel
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) titles() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	titles := make([]string, 0, len(b.events))
	for _, event := range b.events {
		titles = append(titles, event.Data["title"].(string))
	}
	return titles
}

type testEnv struct {
	db            database.DB
	repos         repositories.Repository
	gateway       *memoryGateway
	bus           *recordingBus
	notifications *NotificationService
	folders       *FolderService
	files         *FileService
	orchestration *OrchestrationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := repositories.New(db)
	gateway := newMemoryGateway()
	bus := &recordingBus{}

	notifications := NewNotificationService(repos.Notification, bus)
	folders := NewFolderService(repos, notifications)
	files := NewFileService(repos, notifications)
	orchestration := NewOrchestrationService(
		repos,
		folders,
		files,
		gateway,
		NewTransactionService(db),
		NewCacheInvalidationService(nil, repos),
	)

	return &testEnv{
		db:            db,
		repos:         repos,
		gateway:       gateway,
		bus:           bus,
		notifications: notifications,
		folders:       folders,
		files:         files,
		orchestration: orchestration,
	}
}

func (e *testEnv) mkdir(t *testing.T, userID uuid.UUID, parent *Folder, name string) *Folder {
	t.Helper()

	input := CreateFolderInput{Name: name, UserID: userID}
	if parent != nil {
		input.ParentID = &parent.ID
	}

	folder, err := e.folders.Create(context.Background(), input)
	require.NoError(t, err)
	return folder
}

// addFile records a file whose key follows the folder path convention and
// seeds the matching object.
func (e *testEnv) addFile(t *testing.T, userID uuid.UUID, folder *Folder, name string, mime string) *File {
	t.Helper()
	ctx := context.Background()

	key := userID.String() + "/" + name
	folderRef := ""
	if folder != nil {
		path, err := e.folders.GetPath(ctx, userID, folder.ID)
		require.NoError(t, err)
		key = userID.String() + "/" + joinPath(path) + "/" + name
		folderRef = folder.ID.String()
	}

	file, err := e.files.Create(ctx, CreateFileInput{
		Name:     name,
		Size:     int64(len(name)),
		Type:     mime,
		Key:      key,
		URL:      e.gateway.PublicURL(key),
		UserID:   userID,
		FolderID: folderRef,
	})
	require.NoError(t, err)

	e.gateway.seed(key)
	return file
}

func fileIDs(files []*File) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(files))
	for _, file := range files {
		ids = append(ids, file.ID)
	}
	return ids
}

func fileNames(files []*File) []string {
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	return names
}
