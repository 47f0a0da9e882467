package config

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "task-board.com/task-board/pkg/models"
)

// NewDatabaseClient opens the board database and migrates the task table.
func NewDatabaseClient(dsn string) *gorm.DB {
	db, err := OpenDatabase(dsn)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	return db
}

func OpenDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.Task{}); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
