package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one product line inside a cart. SelectedOptions holds the
// canonical JSON text mapping option group ids to the chosen option choice ids
// at selection time; it is intentionally not foreign-keyed against the current
// catalog, so readers must resolve it defensively.
type CartItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID          uuid.UUID `gorm:"column:cart_id;type:uuid;not null"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity        int       `gorm:"column:quantity;not null"`
	SelectedOptions string    `gorm:"column:selected_options;not null;default:'{}'"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
