package config

import (
	"fmt"
	"log"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Dialector picks the GORM dialect for DB_DRIVER.
func Dialector(s *Settings) (gorm.Dialector, error) {
	switch s.DBDriver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			s.DBUsername,
			s.DBPassword,
			s.DBHost,
			s.DBPort,
			s.DBDatabase,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			s.DBHost, s.DBUsername, s.DBPassword, s.DBDatabase, s.DBPort)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}
}

func InitDB() {
	s := Current

	dialector, err := Dialector(s)
	if err != nil {
		Logger.Fatal("Invalid database configuration", zap.Error(err))
	}

	// In production, suppress SQL logs unless explicitly re-enabled via DEBUG_SQL=true.
	logLevel := logger.Info
	if s.IsProduction() && !s.DebugSQL {
		logLevel = logger.Warn
	}

	cfg := &gorm.Config{
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{LogLevel: logLevel},
		),
	}

	DB, err = gorm.Open(dialector, cfg)
	if err != nil {
		Logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	Logger.Info("Database connected successfully")
}
