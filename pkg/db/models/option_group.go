package models

import (
	"time"

	"github.com/google/uuid"
)

// OptionGroup is a named customization axis owned by a product (e.g. "Paper Size").
type OptionGroup struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	NameEN    string         `gorm:"column:name_en;not null"`
	NameFR    string         `gorm:"column:name_fr;not null;default:''"`
	Position  int            `gorm:"column:position;not null;default:0"`
	Choices   []OptionChoice `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
