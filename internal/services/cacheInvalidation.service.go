package services

import (
	"context"

	"fileforge/internal/constants"
	"fileforge/internal/events"
	"fileforge/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

type CacheInvalidationService struct {
	eventBus *events.EventBus
	repos    repositories.Repository
	log      logger.Logger
}

func NewCacheInvalidationService(
	eventBus *events.EventBus,
	repos repositories.Repository,
) *CacheInvalidationService {
	return &CacheInvalidationService{
		eventBus: eventBus,
		repos:    repos,
		log:      logger.New("CacheInvalidationService"),
	}
}

// InvalidateUser drops every cached folder and file listing of the user and
// announces it on the bus. Failures are logged only.
func (s *CacheInvalidationService) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	log := s.log.Function("InvalidateUser")

	if err := s.repos.Folder.ClearUserCache(ctx, userID); err != nil {
		log.Warn("failed to clear folder listings", "userID", userID, "error", err)
	}

	if err := s.repos.File.ClearUserCache(ctx, userID); err != nil {
		log.Warn("failed to clear file listings", "userID", userID, "error", err)
	}

	if s.eventBus == nil {
		return
	}

	if err := s.eventBus.PublishCacheInvalidation(
		constants.UserListingsIndex,
		userID.String(),
		[]string{userID.String()},
	); err != nil {
		log.Warn("failed to publish cache invalidation", "userID", userID, "error", err)
	}
}
