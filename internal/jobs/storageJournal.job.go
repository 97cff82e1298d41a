package jobs

import (
	"context"

	"fileforge/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type JournalReplayer interface {
	ReplayJournal(ctx context.Context) (int, error)
}

// StorageJournalJob settles storage operations that an interrupted rename or
// delete left behind.
type StorageJournalJob struct {
	replayer JournalReplayer
	log      logger.Logger
	schedule services.Schedule
}

func NewStorageJournalJob(replayer JournalReplayer, schedule services.Schedule) *StorageJournalJob {
	log := logger.New("storageJournalJob")
	log.Info("Creating new storage journal job", "schedule", schedule)

	return &StorageJournalJob{
		replayer: replayer,
		log:      log,
		schedule: schedule,
	}
}

func (j *StorageJournalJob) Name() string {
	return "StorageJournalReplay"
}

func (j *StorageJournalJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	settled, err := j.replayer.ReplayJournal(ctx)
	if err != nil {
		return log.Err("storage journal replay failed", err, "settled", settled)
	}

	if settled > 0 {
		log.Info("Storage journal replay completed", "settled", settled)
	}
	return nil
}

func (j *StorageJournalJob) Schedule() services.Schedule {
	return j.schedule
}
