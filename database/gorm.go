package database

import (
	"fmt"
	"time"

	"github.com/sahilchouksey/educonnect-api/config"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore wraps an already opened connection
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

// StartGORM opens a GORM connection using the configured driver
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	dialector, err := Dialector(getEnv)
	if err != nil {
		return nil, err
	}

	// Configure GORM logger
	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if getEnv.GO_ENV == "production" {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
		TranslateError:         true, // surface unique violations as gorm.ErrDuplicatedKey
	})
	if err != nil {
		logger.Error("Unable to connect to %s with GORM: %v", getEnv.DB_DRIVER, err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("Successfully connected to %s database with GORM", getEnv.DB_DRIVER)

	return &GORMStore{db: db}, nil
}

// Dialector picks the GORM driver from DB_DRIVER
func Dialector(env *config.EnviornmentVariable) (gorm.Dialector, error) {
	switch env.DB_DRIVER {
	case "", "postgres":
		return postgres.Open(PostgresDSN(env)), nil
	case "mysql":
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			env.DB_USER_NAME,
			env.DB_PASSWORD,
			env.DB_HOST,
			env.DB_PORT,
			env.DB_NAME,
		)
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", env.DB_DRIVER)
	}
}

// Models lists every table managed by AutoMigrate, parents first
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Course{},
		&model.Project{},
		&model.Contribution{},
		&model.Enrollment{},
		&model.UserNotification{},
		&model.JWTTokenBlacklist{},
		&model.CronJobLog{},
		&model.AdminAuditLog{},
	}
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	logger.Info("Running GORM AutoMigrate for all models...")

	if err := s.db.AutoMigrate(Models()...); err != nil {
		logger.Error("Error running AutoMigrate: %v", err)
		return err
	}

	logger.Info("GORM AutoMigrate completed successfully")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	logger.Info("Closing GORM connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in services and handlers
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
