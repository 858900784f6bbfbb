package models

import "github.com/google/uuid"

// OrderCounter holds the per-catalogue sequence used for order numbers.
type OrderCounter struct {
	CatalogueID uuid.UUID `gorm:"column:catalogue_id;type:uuid;primaryKey"`
	NextNumber  int64     `gorm:"column:next_number;not null;default:1"`
}
