package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitPostgres(dsn string) (*gorm.DB, *sql.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		log.Error().Msg(fmt.Errorf("failed to connect to database: %w", err).Error())
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Error().Msg(fmt.Errorf("failed to get underlying sql.DB: %w", err).Error())
		return nil, nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxIdleTime(300 * time.Second)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, nil, err
	}

	log.Info().Msg("Postgres database connection established successfully")
	return db, sqlDB, nil
}

// Migrate keeps the chat schema in sync. Products/orders/users CRUD lives in
// the storefront service and manages its own tables; only the user table is
// shared read-only here for author lookups.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.User{}, &entity.Chat{}, &entity.Message{}, &entity.DLQJob{}); err != nil {
		return fmt.Errorf("failed to migrate chat schema: %w", err)
	}
	return nil
}
