package services

import (
	"fileforge/internal/database"
	"fileforge/internal/events"
	"fileforge/internal/repositories"
	"fileforge/internal/storage"
)

type Service struct {
	Transaction       *TransactionService
	Scheduler         *SchedulerService
	CacheInvalidation *CacheInvalidationService
	Notification      *NotificationService
	Folder            *FolderService
	File              *FileService
	Orchestration     *OrchestrationService
}

func New(
	db database.DB,
	repos repositories.Repository,
	eventBus *events.EventBus,
	gateway storage.Gateway,
) Service {
	transactionService := NewTransactionService(db)
	schedulerService := NewSchedulerService()
	cacheInvalidationService := NewCacheInvalidationService(eventBus, repos)

	var publisher EventPublisher
	if eventBus != nil {
		publisher = eventBus
	}
	notificationService := NewNotificationService(repos.Notification, publisher)

	folderService := NewFolderService(repos, notificationService)
	fileService := NewFileService(repos, notificationService)
	orchestrationService := NewOrchestrationService(
		repos,
		folderService,
		fileService,
		gateway,
		transactionService,
		cacheInvalidationService,
	)

	return Service{
		Transaction:       transactionService,
		Scheduler:         schedulerService,
		CacheInvalidation: cacheInvalidationService,
		Notification:      notificationService,
		Folder:            folderService,
		File:              fileService,
		Orchestration:     orchestrationService,
	}
}
