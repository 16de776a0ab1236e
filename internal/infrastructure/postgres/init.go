package postgres

import (
	"log"

	"github.com/LavaJover/tourhub-moderation-service/internal/config"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/logger"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.ModerationConfig) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.ModerationDB.Dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if cfg.ModerationDB.AutoMigrate {
		if err := db.AutoMigrate(Models()...); err != nil {
			log.Fatalf("failed to auto-migrate: %v\n", err)
		}
	}

	return db
}

// Models lists every table owned by the service.
func Models() []any {
	return append(models.All(), &logger.DecisionEvent{}, &logger.FailedPurchaseEvent{})
}
