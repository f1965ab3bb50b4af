package models

import (
	"time"

	"github.com/google/uuid"
)

// OptionChoice is one selectable value inside an OptionGroup (e.g. "A4").
type OptionChoice struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID   uuid.UUID `gorm:"column:group_id;type:uuid;not null"`
	NameEN    string    `gorm:"column:name_en;not null"`
	NameFR    string    `gorm:"column:name_fr;not null;default:''"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
