package checkout

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
)

// NextOrderNumber allocates a collision-safe order number inside the
// checkout transaction. The per-catalogue counter row serializes concurrent
// checkouts; the timestamp keeps numbers roughly sortable for humans.
func NextOrderNumber(tx *gorm.DB, catalogueID uuid.UUID, now time.Time) (string, error) {
	seed := models.OrderCounter{CatalogueID: catalogueID, NextNumber: 1}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return "", fmt.Errorf("seeding order counter: %w", err)
	}

	if err := tx.Model(&models.OrderCounter{}).
		Where("catalogue_id = ?", catalogueID).
		Update("next_number", gorm.Expr("next_number + 1")).Error; err != nil {
		return "", fmt.Errorf("advancing order counter: %w", err)
	}

	var counter models.OrderCounter
	if err := tx.Where("catalogue_id = ?", catalogueID).First(&counter).Error; err != nil {
		return "", fmt.Errorf("reading order counter: %w", err)
	}

	return fmt.Sprintf("ORD-%d-%05d", now.UnixMilli(), counter.NextNumber-1), nil
}
