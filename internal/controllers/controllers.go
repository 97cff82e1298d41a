package controllers

import (
	"fileforge/internal/services"

	fileController "fileforge/internal/controllers/files"
	folderController "fileforge/internal/controllers/folders"
	notificationController "fileforge/internal/controllers/notifications"
)

type Controllers struct {
	Folder       folderController.FolderControllerInterface
	File         fileController.FileControllerInterface
	Notification notificationController.NotificationControllerInterface
}

func New(services services.Service) Controllers {
	return Controllers{
		Folder:       folderController.New(services),
		File:         fileController.New(services),
		Notification: notificationController.New(services),
	}
}
