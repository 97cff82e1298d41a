package database

import (
	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLite opens a file backed SQLite store with the schema migrated. It backs
// local development (DB_DRIVER=sqlite) and the repository and service tests.
// Caches are left unset, so listings always read through to SQL.
func NewSQLite(path string) (DB, error) {
	log := logger.New("database").Function("NewSQLite")

	sqlDB, err := openSQLite(path, newGormConfig())
	if err != nil {
		return DB{}, err
	}

	db := DB{SQL: sqlDB, log: log}
	if err := db.MigrateModels(); err != nil {
		return DB{}, log.Err("failed to migrate sqlite schema", err, "path", path)
	}

	return db, nil
}

func openSQLite(path string, gormConfig *gorm.Config) (*gorm.DB, error) {
	log := logger.New("database").Function("openSQLite")

	if path == "" {
		return nil, log.Error("sqlite path is empty")
	}

	log.Info("Opening SQLite database", "path", path)
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), gormConfig)
	if err != nil {
		return nil, log.Err("failed to open SQLite database with GORM", err, "path", path)
	}

	return db, nil
}
