package repositories

import (
	"fileforge/internal/database"
)

type Repository struct {
	Folder           FolderRepository
	File             FileRepository
	Notification     NotificationRepository
	StorageOperation StorageOperationRepository
}

func New(db database.DB) Repository {
	return Repository{
		Folder:           NewFolderRepository(db),
		File:             NewFileRepository(db),
		Notification:     NewNotificationRepository(db),
		StorageOperation: NewStorageOperationRepository(db),
	}
}
