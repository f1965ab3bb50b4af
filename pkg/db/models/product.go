package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a print-product listing with its bilingual copy.
type Product struct {
	ID            uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	NameEN        string        `gorm:"column:name_en;not null"`
	NameFR        string        `gorm:"column:name_fr;not null;default:''"`
	DescriptionEN *string       `gorm:"column:description_en"`
	DescriptionFR *string       `gorm:"column:description_fr"`
	MinOrderQty   int           `gorm:"column:min_order_qty;not null;default:1"`
	IsActive      bool          `gorm:"column:is_active;not null;default:true"`
	Images        []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	OptionGroups  []OptionGroup  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
