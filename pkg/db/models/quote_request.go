package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteRequest is the immutable record minted when a cart is submitted. It
// references the snapshot cart and is never updated afterwards.
type QuoteRequest struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null;unique"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
