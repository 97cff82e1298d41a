package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"fileforge/cmd/migration/seed"
	"fileforge/config"
	"fileforge/internal/database"

	logger "github.com/Bparsons0904/goLogger"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	migrationDir     = "cmd/migration/migrations"
	migrationDialect = "postgres"
)

// migrator applies the GORM models and the SQL index migrations that sit on
// top of them. SQL files only target PostgreSQL.
type migrator struct {
	db     database.DB
	config config.Config
	log    logger.Logger
	source migrate.MigrationSource
}

func main() {
	log := logger.New("migrations").Function("main")

	cfg, err := config.New()
	if err != nil {
		log.Er("failed to initialize config", err)
		os.Exit(1)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Er("failed to create database", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Er("failed to close database", err)
		}
	}()

	m := &migrator{
		db:     db,
		config: cfg,
		log:    logger.New("migrations"),
		source: &migrate.FileMigrationSource{Dir: migrationDir},
	}

	command, args := "up", []string(nil)
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	if err := m.run(command, args); err != nil {
		log.Er("migration command failed", err, "command", command)
		os.Exit(1)
	}

	log.Info("Migration command complete", "command", command)
}

func (m *migrator) run(command string, args []string) error {
	switch command {
	case "up":
		return m.up()
	case "down":
		steps := 1
		if len(args) > 0 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed < 1 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			steps = parsed
		}
		return m.down(steps)
	case "status":
		return m.status()
	case "seed":
		return m.seed()
	default:
		return fmt.Errorf("unknown command %q, expected up, down, status or seed", command)
	}
}

func (m *migrator) up() error {
	log := m.log.Function("up")

	if err := m.db.MigrateModels(); err != nil {
		return err
	}

	return m.withSQL(func(conn *sql.DB) error {
		applied, err := migrate.Exec(conn, migrationDialect, m.source, migrate.Up)
		if err != nil {
			return log.Err("failed to apply sql migrations", err)
		}
		log.Info("Applied sql migrations", "count", applied, "tables", len(database.Models))
		return nil
	})
}

func (m *migrator) down(steps int) error {
	log := m.log.Function("down")

	return m.withSQL(func(conn *sql.DB) error {
		reverted, err := migrate.ExecMax(conn, migrationDialect, m.source, migrate.Down, steps)
		if err != nil {
			return log.Err("failed to revert sql migrations", err, "steps", steps)
		}
		log.Info("Reverted sql migrations", "count", reverted)
		return nil
	})
}

func (m *migrator) status() error {
	log := m.log.Function("status")

	for _, model := range database.Models {
		log.Info("Model table", "model", fmt.Sprintf("%T", model), "exists", m.db.SQL.Migrator().HasTable(model))
	}

	return m.withSQL(func(conn *sql.DB) error {
		records, err := migrate.GetMigrationRecords(conn, migrationDialect)
		if err != nil {
			return log.Err("failed to read migration history", err)
		}
		for _, record := range records {
			log.Info("Applied migration", "id", record.Id, "appliedAt", record.AppliedAt)
		}
		return nil
	})
}

// seed rebuilds the schema from scratch, flushes the caches and loads the
// demo folder tree.
func (m *migrator) seed() error {
	log := m.log.Function("seed")

	if err := m.db.SQL.Migrator().DropTable(database.Models...); err != nil {
		return log.Err("failed to drop model tables", err)
	}
	if err := m.db.SQL.Exec("DROP TABLE IF EXISTS gorp_migrations").Error; err != nil {
		return log.Err("failed to drop migration history", err)
	}

	if err := m.db.FlushAllCaches(); err != nil {
		return log.Err("failed to flush cache databases", err)
	}

	if err := m.up(); err != nil {
		return err
	}

	return seed.Seed(m.db.SQL, m.config, log)
}

func (m *migrator) withSQL(fn func(conn *sql.DB) error) error {
	log := m.log.Function("withSQL")

	if m.config.DatabaseDriver == database.DriverSQLite {
		log.Info("Skipping sql migrations for sqlite")
		return nil
	}

	conn, err := sql.Open(migrationDialect, database.PostgresDSN(m.config))
	if err != nil {
		return log.Err("failed to open database for sql migrations", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Er("failed to close migration connection", err)
		}
	}()

	return fn(conn)
}
