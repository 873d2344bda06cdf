// File: cmd/server/providers.go
package main

import (
	"log"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shareaplate_backend/internal/claim"
	"shareaplate_backend/internal/coach"
	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/filestorage"
	"shareaplate_backend/internal/goal"
	"shareaplate_backend/internal/listing"
	"shareaplate_backend/internal/notification"
	"shareaplate_backend/internal/outcome"
	"shareaplate_backend/internal/platform/database"
	"shareaplate_backend/internal/platform/logger"
	"shareaplate_backend/internal/profile"
	"shareaplate_backend/internal/recommendation"
)

// models lists every table the service owns, in dependency order.
func models() []interface{} {
	return []interface{}{
		&profile.Profile{},
		&listing.FoodListing{},
		&claim.Claim{},
		&goal.Goal{},
		&notification.Notification{},
		&outcome.Outcome{},
		&recommendation.Recommendation{},
		&recommendation.MatchFeedback{},
	}
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		if err := l.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}, nil
}

func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := database.AutoMigrate(db, models()...); err != nil {
			database.CloseGORMDB(db, logger)
			return nil, nil, err
		}
		logger.Info("Database schema migrated")
	}
	return db, func() { database.CloseGORMDB(db, logger) }, nil
}

// provideImageStore keeps the store interface nil when S3 is not configured.
func provideImageStore(client *s3.Client, cfg *config.Config, logger *zap.Logger) listing.ImageStore {
	var store filestorage.ObjectStore
	if client != nil {
		store = client
	}
	return filestorage.NewFileStorageService(store, cfg, logger)
}

func provideCoachCache(cfg *config.Config) *coach.MessageCache {
	return coach.NewMessageCache(cfg.CoachCacheTTL)
}
