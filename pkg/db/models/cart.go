package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/printcraft-co/printcraft-backend/pkg/enums"
)

// Cart is a customer's in-progress order. A user is meant to hold at most one
// active cart at a time; reads tolerate duplicates by taking the newest.
type Cart struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Status      enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	SubmittedAt *time.Time       `gorm:"column:submitted_at"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
