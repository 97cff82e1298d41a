package models

import (
	"fileforge/internal/types"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Notification struct {
	BaseUUIDModel
	UserID  uuid.UUID              `gorm:"type:uuid;not null;index" json:"userId"`
	Title   string                 `gorm:"type:text;not null"       json:"title"`
	Message string                 `gorm:"type:text;not null"       json:"message"`
	Type    types.NotificationType `gorm:"type:text;not null"       json:"type"`
	Read    bool                   `gorm:"not null;default:false"   json:"read"`
	Meta    datatypes.JSON         `json:"meta,omitempty"`
}
