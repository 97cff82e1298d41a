package jobs

import (
	"fileforge/config"
	"fileforge/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// RegisterAllJobs registers all jobs with the scheduler service
func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	service services.Service,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	storageJournalJob := NewStorageJournalJob(service.Orchestration, services.Hourly)
	if err := schedulerService.AddJob(storageJournalJob); err != nil {
		return log.Err("failed to register storage journal job", err)
	}
	log.Info("Registered storage journal job", "schedule", services.Hourly)

	return nil
}
