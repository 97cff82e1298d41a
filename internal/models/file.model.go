package models

import (
	"github.com/google/uuid"
)

type File struct {
	BaseUUIDModel
	Name     string     `gorm:"type:text;not null"        json:"name"`
	Size     int64      `gorm:"not null;default:0"        json:"size"`
	Type     string     `gorm:"type:text;not null"        json:"type"`
	Key      string     `gorm:"type:text;not null;uniqueIndex" json:"key"`
	URL      string     `gorm:"type:text;not null"        json:"url"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;index"  json:"userId"`
	FolderID *uuid.UUID `gorm:"type:uuid;index"           json:"folderId"`
}
