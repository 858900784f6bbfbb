package db

import (
	"context"

	"github.com/itsriyaas/digitalcard-backend/pkg/config"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

// MaybeAutoMigrate syncs the schema outside production. Production deploys
// run migrations as a separate release step.
func MaybeAutoMigrate(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *Client) error {
	if cfg.App.IsProd() {
		return nil
	}
	if logg != nil {
		logg.Info(ctx, "running dev auto migrations")
	}
	return client.DB().WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Catalogue{},
		&models.Category{},
		&models.Product{},
		&models.Coupon{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCounter{},
		&models.Payment{},
		&models.OutboxEvent{},
	)
}
