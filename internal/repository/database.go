package repository

import (
	"fmt"
	"os"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB() (*gorm.DB, error) {
	// Build connection string
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
	)

	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey, which the idempotent insert paths rely on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.User{},
		&models.Like{},
		&models.Block{},
		&models.Match{},
		&models.Message{},
		&models.MessageReaction{},
		&models.Device{},
		&models.TopicSubscription{},
		&models.NotificationJob{},
		&models.NotificationDelivery{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
