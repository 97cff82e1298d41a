package database

import (
	"fileforge/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// Models lists every table owned by the service in creation order.
var Models = []any{
	&models.Folder{},
	&models.File{},
	&models.Notification{},
	&models.StorageOperation{},
}

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	for _, model := range Models {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}
