package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/types"
	"github.com/yungbote/moodjournal-backend/internal/utils"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens the journal database. DB_DRIVER selects the backend: "sqlite"
// (default, local file) or "postgres".
func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	driver := utils.GetEnv("DB_DRIVER", "sqlite", log)

	var (
		gormDB *gorm.DB
		err    error
	)
	switch driver {
	case "postgres":
		postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
		postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
		postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		postgresName := utils.GetEnv("POSTGRES_NAME", "moodjournal", log)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

		serviceLog.Info("Connecting to Postgres...")
		gormDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	default:
		path := utils.GetEnv("SQLITE_PATH", "moodjournal.db", log)
		// busy timeout so the handle survives being shared across request
		// goroutines without immediate SQLITE_BUSY failures
		dsn := fmt.Sprintf("%s?_busy_timeout=5000", path)

		serviceLog.Info("Opening SQLite database...", "path", path)
		gormDB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		serviceLog.Error("Failed to connect to database", "driver", driver, "error", err)
		return nil, fmt.Errorf("failed to connect to database (%s): %w", driver, err)
	}

	return &Service{db: gormDB, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating journal tables...")
	err := s.db.AutoMigrate(
		&types.MoodEntry{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for journal tables", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
